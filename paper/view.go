package paper

import "time"

// View is the serializable shape returned to callers of analyze_request:
// the original query/guidance, parameters, the queries issued, the final
// ranked papers, and metadata. It intentionally omits the internal
// search_results set — only ranked survivors cross the external boundary.
type View struct {
	Query           any            `json:"query"`
	RankingGuidance string         `json:"ranking_guidance,omitempty"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	Queries         []SearchQuery  `json:"queries"`
	RankedPapers    []*RankedPaper `json:"ranked_papers"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// View renders the aggregate's external JSON shape. When the request was
// single-query, Query is a bare string; in multi-query mode it is the
// full slice, matching the documented "string OR sequence of strings"
// wire contract.
func (a *RequestAnalysis) View() *View {
	a.mu.Lock()
	defer a.mu.Unlock()

	var query any
	if len(a.Queries) == 1 {
		query = a.Queries[0]
	} else {
		query = a.Queries
	}

	ranked := make([]*RankedPaper, len(a.RankedPapers))
	copy(ranked, a.RankedPapers)

	queries := make([]SearchQuery, len(a.SearchQueries))
	copy(queries, a.SearchQueries)

	return &View{
		Query:           query,
		RankingGuidance: a.RankingGuidance,
		Parameters:      a.Parameters,
		Timestamp:       a.Timestamp,
		Queries:         queries,
		RankedPapers:    ranked,
		Metadata:        a.Metadata,
	}
}
