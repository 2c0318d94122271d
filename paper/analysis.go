package paper

import (
	"sort"
	"sync"
	"time"
)

// RequestAnalysis accumulates the state of one analyze_request run: the
// queries issued, the raw search results harvested, and the final ranked
// papers. All mutators are safe for concurrent use, since C6 and C8 add to
// it from multiple goroutines.
type RequestAnalysis struct {
	mu sync.Mutex

	Queries          []string       `json:"-"`
	RankingGuidance  string         `json:"ranking_guidance,omitempty"`
	Parameters       map[string]any `json:"parameters,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	SearchQueries    []SearchQuery  `json:"queries"`
	SearchResults    []*Paper       `json:"-"`
	RankedPapers     []*RankedPaper `json:"ranked_papers"`
	Metadata         map[string]any `json:"metadata,omitempty"`

	searchTitles map[string]struct{}
	rankedTitles map[string]struct{}
}

// NewRequestAnalysis constructs an empty aggregate for the given query
// (or queries, in multi-query mode) and ranking guidance.
func NewRequestAnalysis(queries []string, rankingGuidance string, parameters map[string]any) *RequestAnalysis {
	return &RequestAnalysis{
		Queries:         queries,
		RankingGuidance: rankingGuidance,
		Parameters:      parameters,
		Timestamp:       time.Now(),
		Metadata:        map[string]any{},
		searchTitles:    map[string]struct{}{},
		rankedTitles:    map[string]struct{}{},
	}
}

// AddQuery records one formulated search query.
func (a *RequestAnalysis) AddQuery(q SearchQuery) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.SearchQueries = append(a.SearchQueries, q)
}

// AddSearchResult appends p to the search-result set, silently dropping it
// if a paper with the same normalized title is already present.
func (a *RequestAnalysis) AddSearchResult(p *Paper) {
	if p == nil {
		return
	}
	key := titleKey(p.Title)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.searchTitles[key]; seen {
		return
	}
	a.searchTitles[key] = struct{}{}
	a.SearchResults = append(a.SearchResults, p)
}

// AddRankedPaper appends rp to the ranked-paper set, applying the same
// title-based dedup rule as AddSearchResult.
func (a *RequestAnalysis) AddRankedPaper(rp *RankedPaper) {
	if rp == nil {
		return
	}
	key := titleKey(rp.Title)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.rankedTitles[key]; seen {
		return
	}
	a.rankedTitles[key] = struct{}{}
	a.RankedPapers = append(a.RankedPapers, rp)
}

// SetMetadata records a top-level metadata entry, e.g. a stage error
// recorded instead of raised (see spec §7).
func (a *RequestAnalysis) SetMetadata(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	a.Metadata[key] = value
}

// Snapshot returns a copy of the current search results, safe to range
// over without holding the aggregate's lock (used by C7/C8 to read the
// accumulated candidate set between pipeline stages).
func (a *RequestAnalysis) Snapshot() []*Paper {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Paper, len(a.SearchResults))
	copy(out, a.SearchResults)
	return out
}

// ReplaceSearchResults swaps in a new filtered search-result set, used by
// the adjudicator (C7) after applying exclusion criteria.
func (a *RequestAnalysis) ReplaceSearchResults(papers []*Paper) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.SearchResults = papers
	a.searchTitles = make(map[string]struct{}, len(papers))
	for _, p := range papers {
		a.searchTitles[titleKey(p.Title)] = struct{}{}
	}
}

// TopPapers returns the n highest-scoring ranked papers, sorted by
// descending relevance score. A nil/zero score sorts last, matching the
// "relevance_score or 0.0" ordering of the original get_top_papers.
func (a *RequestAnalysis) TopPapers(n int) []*RankedPaper {
	a.mu.Lock()
	sorted := make([]*RankedPaper, len(a.RankedPapers))
	copy(sorted, a.RankedPapers)
	a.mu.Unlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RelevanceScore > sorted[j].RelevanceScore
	})
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
