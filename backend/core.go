package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/fetch"
	"github.com/antflydb/scholarsearch/paper"
)

const coreBaseURL = "https://api.core.ac.uk/v3/search/works"

// CoreAdapter queries the CORE v3 search API. Grounded on
// original_source/academic_claim_analyzer/search/core_search.py: the
// over-fetch-then-sort-by-citationCount pattern, the scroll/relevance
// request body, and the field-by-field author/year extraction that
// tolerates CORE's loosely typed response shapes.
type CoreAdapter struct {
	base
	apiKey string
}

func NewCoreAdapter(apiKey string, log *zap.Logger, fetcher fetch.FullTextFetcher) *CoreAdapter {
	return &CoreAdapter{
		base:   newBase(Core, coreConcurrency, nil, log, fetcher),
		apiKey: apiKey,
	}
}

type coreRequestBody struct {
	Q      string `json:"q"`
	Limit  int    `json:"limit"`
	Scroll bool   `json:"scroll"`
	Sort   string `json:"sort"`
}

type coreResponse struct {
	TotalHits int          `json:"totalHits"`
	Results   []coreResult `json:"results"`
}

type coreResult struct {
	ID            json.Number     `json:"id"`
	DOI           string          `json:"doi"`
	Title         string          `json:"title"`
	Authors       json.RawMessage `json:"authors"`
	YearPublished json.Number     `json:"yearPublished"`
	PublishedDate string          `json:"publishedDate"`
	CreatedDate   string          `json:"createdDate"`
	Abstract      string          `json:"abstract"`
	Publisher     string          `json:"publisher"`
	DownloadURL   string          `json:"downloadUrl"`
	Language      struct {
		Code string `json:"code"`
	} `json:"language"`
	Repositories  []json.RawMessage `json:"repositories"`
	CitationCount int               `json:"citationCount"`
}

type coreAuthor struct {
	Name string `json:"name"`
}

func (a *CoreAdapter) Search(ctx context.Context, query string, limit int) ([]*paper.Paper, error) {
	reqBody, err := json.Marshal(coreRequestBody{Q: query, Limit: limit * 2, Scroll: true, Sort: "relevance"})
	if err != nil {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, coreBaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, nil
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	release, err := a.gate(ctx)
	if err != nil {
		return nil, err
	}
	resp, doErr := doRequestJSON[coreResponse](ctx, &a.base, req)
	release()
	if doErr != nil {
		if a.log != nil {
			a.log.Warn("core: request exhausted retries", zap.Error(doErr))
		}
		return []*paper.Paper{}, nil
	}
	if resp.TotalHits == 0 {
		return []*paper.Paper{}, nil
	}

	results := resp.Results
	sort.SliceStable(results, func(i, j int) bool { return results[i].CitationCount > results[j].CitationCount })

	papers := make([]*paper.Paper, 0, limit)
	for i := range results {
		if len(papers) >= limit {
			break
		}
		p := a.buildPaper(ctx, &results[i])
		if p != nil && p.Valid() {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

func (a *CoreAdapter) buildPaper(ctx context.Context, r *coreResult) *paper.Paper {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil
	}

	authors := extractCoreAuthors(r.Authors)
	year := extractCoreYear(r)

	fullText := ""
	switch {
	case r.DOI != "":
		fullText = a.enrich(ctx, r.DOI, 0)
	case r.DownloadURL != "":
		fullText = a.enrich(ctx, r.DownloadURL, 0)
	}

	return &paper.Paper{
		DOI:      paper.NormalizeDOI(r.DOI),
		Title:    title,
		Authors:  paper.NormalizeAuthors(authors),
		Year:     year,
		Abstract: strings.TrimSpace(r.Abstract),
		Source:   r.Publisher,
		FullText: fullText,
		PDFLink:  r.DownloadURL,
		Metadata: map[string]any{
			"core_id":        r.ID.String(),
			"language":       firstNonEmpty(r.Language.Code, "en"),
			"repositories":   len(r.Repositories),
			"citation_count": r.CitationCount,
		},
	}
}

// extractCoreAuthors tolerates CORE's varying authors shape: a JSON array
// of {"name": ...} objects, or (rarely) a bare array of strings.
func extractCoreAuthors(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{"Unknown Author"}
	}

	var objects []coreAuthor
	if err := json.Unmarshal(raw, &objects); err == nil {
		authors := make([]string, 0, len(objects))
		for _, o := range objects {
			if name := strings.TrimSpace(o.Name); name != "" {
				authors = append(authors, name)
			}
		}
		if len(authors) > 0 {
			return authors
		}
	}

	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil {
		authors := make([]string, 0, len(strs))
		for _, s := range strs {
			if name := strings.TrimSpace(s); name != "" {
				authors = append(authors, name)
			}
		}
		if len(authors) > 0 {
			return authors
		}
	}

	return []string{"Unknown Author"}
}

func extractCoreYear(r *coreResult) int {
	if y, err := r.YearPublished.Int64(); err == nil && y != 0 {
		return paper.NormalizeYear(int(y))
	}
	for _, date := range []string{r.PublishedDate, r.CreatedDate} {
		if date == "" {
			continue
		}
		if y, err := strconv.Atoi(strings.SplitN(date, "-", 2)[0]); err == nil {
			return paper.NormalizeYear(y)
		}
	}
	return -1
}
