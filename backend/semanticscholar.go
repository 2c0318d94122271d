package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/fetch"
	"github.com/antflydb/scholarsearch/paper"
)

const semanticScholarSearchURL = "https://api.semanticscholar.org/graph/v1/paper/search"

// SemanticScholarAdapter queries the Semantic Scholar Graph API. Grounded
// on original_source/academic_claim_analyzer/search/semantic_scholar_search.py:
// paginated search capped at offset 1000 following the response's "next"
// cursor, an x-api-key header when a key is configured, and an unbounded,
// retry-only concurrent PDF-download pass once the page list is assembled.
type SemanticScholarAdapter struct {
	base
	apiKey string
}

func NewSemanticScholarAdapter(apiKey string, log *zap.Logger, fetcher fetch.FullTextFetcher) *SemanticScholarAdapter {
	return &SemanticScholarAdapter{
		base:   newBase(SemanticScholar, semanticScholarConcurrency, newRateLimiter(semanticScholarRequestInterval), log, fetcher),
		apiKey: apiKey,
	}
}

type s2SearchResponse struct {
	Next int         `json:"next"`
	Data []s2Paper   `json:"data"`
}

type s2Paper struct {
	Title         string      `json:"title"`
	Year          int         `json:"year"`
	Abstract      string      `json:"abstract"`
	Authors       []s2Author  `json:"authors"`
	ExternalIDs   map[string]string `json:"externalIds"`
	PaperID       string      `json:"paperId"`
	CitationCount int         `json:"citationCount"`
	OpenAccessPDF *s2PDF      `json:"openAccessPdf"`
}

type s2Author struct {
	Name string `json:"name"`
}

type s2PDF struct {
	URL string `json:"url"`
}

func (a *SemanticScholarAdapter) Search(ctx context.Context, query string, limit int) ([]*paper.Paper, error) {
	var papers []*paper.Paper
	offset := 0

	for len(papers) < limit && offset < 1000 {
		toFetch := limit - len(papers)
		if toFetch > 100 {
			toFetch = 100
		}

		resp, err := a.fetchPage(ctx, query, offset, toFetch)
		if err != nil {
			return nil, err
		}
		if resp == nil || len(resp.Data) == 0 {
			break
		}

		for _, item := range resp.Data {
			papers = append(papers, s2ToPaper(item))
		}

		if resp.Next <= offset {
			break
		}
		offset = resp.Next
	}

	if len(papers) > limit {
		papers = papers[:limit]
	}

	a.enrichAllConcurrently(ctx, papers)

	valid := make([]*paper.Paper, 0, len(papers))
	for _, p := range papers {
		if p.Valid() {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

func (a *SemanticScholarAdapter) fetchPage(ctx context.Context, query string, offset, limit int) (*s2SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", "title,authors,year,abstract,externalIds,citationCount,openAccessPdf")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticScholarSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, nil
	}
	if a.apiKey != "" {
		req.Header.Set("x-api-key", a.apiKey)
	}

	release, err := a.gate(ctx)
	if err != nil {
		return nil, err
	}
	resp, doErr := doRequestJSON[s2SearchResponse](ctx, &a.base, req)
	release()
	if doErr != nil {
		if a.log != nil {
			a.log.Warn("semantic scholar: page fetch exhausted retries", zap.Error(doErr))
		}
		return nil, nil
	}
	return resp, nil
}

func s2ToPaper(item s2Paper) *paper.Paper {
	authors := make([]string, 0, len(item.Authors))
	for _, au := range item.Authors {
		if au.Name != "" {
			authors = append(authors, au.Name)
		}
	}

	doi := item.ExternalIDs["DOI"]
	if doi == "" {
		doi = item.PaperID
	}

	pdfLink := ""
	if item.OpenAccessPDF != nil {
		pdfLink = item.OpenAccessPDF.URL
	}

	return &paper.Paper{
		DOI:           paper.NormalizeDOI(doi),
		Title:         item.Title,
		Authors:       paper.NormalizeAuthors(authors),
		Year:          paper.NormalizeYear(item.Year),
		Abstract:      item.Abstract,
		Source:        SemanticScholar,
		PDFLink:       pdfLink,
		CitationCount: item.CitationCount,
		Metadata: map[string]any{
			"s2_paper_id": item.PaperID,
		},
	}
}

// enrichAllConcurrently downloads every paper's PDF in parallel with no
// concurrency cap beyond the retry policy itself, matching the original's
// "no semaphore" PDF-fetch pass once the search page list is assembled.
func (a *SemanticScholarAdapter) enrichAllConcurrently(ctx context.Context, papers []*paper.Paper) {
	var wg sync.WaitGroup
	for _, p := range papers {
		if p.PDFLink == "" {
			continue
		}
		wg.Add(1)
		go func(p *paper.Paper) {
			defer wg.Done()
			p.FullText = a.enrich(ctx, p.PDFLink, 0)
		}(p)
	}
	wg.Wait()
}
