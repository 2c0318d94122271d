package backend

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/fetch"
	"github.com/antflydb/scholarsearch/paper"
)

const scopusBaseURL = "http://api.elsevier.com/content/search/scopus"

// ScopusAdapter queries the Elsevier Scopus Search API. Grounded on
// original_source/academic_claim_analyzer/search/scopus_search.py: the
// invalid-pattern query validation, COMPLETE view, -citedby-count sort,
// and citation-count re-sort of the returned page.
type ScopusAdapter struct {
	base
	apiKey string
}

func NewScopusAdapter(apiKey string, log *zap.Logger, fetcher fetch.FullTextFetcher) *ScopusAdapter {
	return &ScopusAdapter{
		base:   newBase(Scopus, scopusConcurrency, newRateLimiter(1.0), log, fetcher),
		apiKey: apiKey,
	}
}

var scopusInvalidPatterns = []string{
	"W/n W/",
	"PRE/n PRE/",
	"AND NOT AND",
	"{*}",
	"(*)",
}

// validScopusQuery rejects queries containing known-malformed syntax:
// stacked proximity/precedence operators and bare wildcard groups.
func validScopusQuery(query string) bool {
	for _, p := range scopusInvalidPatterns {
		if strings.Contains(query, p) {
			return false
		}
	}
	return true
}

type scopusResponse struct {
	SearchResults struct {
		TotalResults string       `json:"opensearch:totalResults"`
		Entries      []scopusEntry `json:"entry"`
	} `json:"search-results"`
}

type scopusEntry struct {
	DOI               string         `json:"prism:doi"`
	Title             string         `json:"dc:title"`
	CoverDate         string         `json:"prism:coverDate"`
	Description       string         `json:"dc:description"`
	PublicationName   string         `json:"prism:publicationName"`
	CitedByCount      string         `json:"citedby-count"`
	Identifier        string         `json:"dc:identifier"`
	EID               string         `json:"eid"`
	AggregationType   string         `json:"prism:aggregationType"`
	SubtypeDesc       string         `json:"subtypeDescription"`
	Authors           []scopusAuthor `json:"author"`
}

type scopusAuthor struct {
	AuthName string `json:"authname"`
}

func (a *ScopusAdapter) Search(ctx context.Context, query string, limit int) ([]*paper.Paper, error) {
	if !validScopusQuery(query) {
		if a.log != nil {
			a.log.Warn("scopus: rejected query with invalid syntax")
		}
		return []*paper.Paper{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("count", strconv.Itoa(limit))
	params.Set("view", "COMPLETE")
	params.Set("sort", "-citedby-count")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scopusBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("X-ELS-APIKey", a.apiKey)
	req.Header.Set("Accept", "application/json")

	release, err := a.gate(ctx)
	if err != nil {
		return nil, err
	}
	resp, doErr := doRequestJSON[scopusResponse](ctx, &a.base, req)
	release()
	if doErr != nil {
		if a.log != nil {
			a.log.Warn("scopus: request exhausted retries", zap.Error(doErr))
		}
		return []*paper.Paper{}, nil
	}

	entries := resp.SearchResults.Entries
	sort.SliceStable(entries, func(i, j int) bool {
		return parseScopusCitations(entries[i].CitedByCount) > parseScopusCitations(entries[j].CitedByCount)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	papers := make([]*paper.Paper, 0, len(entries))
	for i := range entries {
		p := a.buildPaper(ctx, &entries[i])
		if p != nil && p.Valid() {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

func parseScopusCitations(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func (a *ScopusAdapter) buildPaper(ctx context.Context, e *scopusEntry) *paper.Paper {
	authors := make([]string, 0, len(e.Authors))
	for _, au := range e.Authors {
		if name := strings.TrimSpace(au.AuthName); name != "" {
			authors = append(authors, name)
		}
	}

	year := -1
	if e.CoverDate != "" {
		if y, err := strconv.Atoi(strings.SplitN(e.CoverDate, "-", 2)[0]); err == nil {
			year = paper.NormalizeYear(y)
		}
	}

	fullText := ""
	if e.DOI != "" {
		fullText = a.enrich(ctx, e.DOI, 0)
	}

	return &paper.Paper{
		DOI:           paper.NormalizeDOI(e.DOI),
		Title:         strings.TrimSpace(e.Title),
		Authors:       paper.NormalizeAuthors(authors),
		Year:          year,
		Abstract:      e.Description,
		Source:        Scopus,
		FullText:      fullText,
		CitationCount: parseScopusCitations(e.CitedByCount),
		Metadata: map[string]any{
			"scopus_id":   e.Identifier,
			"eid":         e.EID,
			"source_type": e.AggregationType,
			"subtype":     e.SubtypeDesc,
			"venue":       e.PublicationName,
		},
	}
}
