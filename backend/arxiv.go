package backend

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/fetch"
	"github.com/antflydb/scholarsearch/paper"
)

// ArXivAdapter queries the arXiv Atom feed API and downloads each
// result's PDF in-memory for full-text extraction. Grounded on
// original_source/academic_claim_analyzer/search/arxiv_search.py:
// natural-language query embedded as `all:<escaped>`, sort by
// submittedDate descending, Atom namespace parsing, and a mandatory
// 3-second interval shared by both the feed fetch and every PDF
// download under the same single concurrency permit.
type ArXivAdapter struct {
	base
}

func NewArXivAdapter(log *zap.Logger, fetcher fetch.FullTextFetcher) *ArXivAdapter {
	return &ArXivAdapter{base: newBase(ArXiv, arxivConcurrency, newRateLimiter(arxivRequestInterval), log, fetcher)}
}

const arxivBaseURL = "http://export.arxiv.org/api/query"

// Search fetches the feed under one gate acquisition, then releases it
// before enriching: each PDF download re-acquires the same shared
// permit/limiter individually, so the single arXiv concurrency slot is
// never held for the adapter call's entire lifetime (it would otherwise
// deadlock downloadAndExtractPDF's own gate call).
func (a *ArXivAdapter) Search(ctx context.Context, query string, limit int) ([]*paper.Paper, error) {
	reqURL := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		arxivBaseURL, escapeArXivQuery(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil
	}

	release, err := a.gate(ctx)
	if err != nil {
		return nil, err
	}
	_, body, doErr := a.doRequest(ctx, req)
	release()
	if doErr != nil {
		if a.log != nil {
			a.log.Warn("arxiv: feed fetch exhausted retries", zap.Error(doErr))
		}
		return []*paper.Paper{}, nil
	}
	if body == nil {
		return []*paper.Paper{}, nil
	}

	entries := parseArXivFeed(body)
	papers := make([]*paper.Paper, 0, len(entries))
	for _, e := range entries {
		p := a.buildPaper(ctx, e)
		if p != nil && p.Valid() {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

func escapeArXivQuery(q string) string {
	q = strings.ReplaceAll(q, " ", "+")
	q = strings.ReplaceAll(q, ":", "")
	return q
}

type arxivEntry struct {
	ID        string
	Title     string
	Summary   string
	Published string
	Updated   string
	Authors   []string
	PDFLink   string
	DOI       string
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Updated   string       `xml:"updated"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
	DOI       string       `xml:"http://arxiv.org/schemas/atom doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

func parseArXivFeed(body []byte) []arxivEntry {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil
	}

	entries := make([]arxivEntry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		authors := make([]string, 0, len(e.Authors))
		for _, a := range e.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				authors = append(authors, name)
			}
		}
		if len(authors) == 0 {
			authors = []string{"Unknown Author"}
		}

		var pdfLink string
		for _, l := range e.Links {
			if l.Title == "pdf" {
				pdfLink = l.Href
				break
			}
		}

		entries = append(entries, arxivEntry{
			ID:        strings.TrimSpace(e.ID),
			Title:     html.UnescapeString(strings.TrimSpace(e.Title)),
			Summary:   html.UnescapeString(strings.TrimSpace(e.Summary)),
			Published: strings.TrimSpace(e.Published),
			Updated:   strings.TrimSpace(e.Updated),
			Authors:   authors,
			PDFLink:   pdfLink,
			DOI:       strings.TrimSpace(e.DOI),
		})
	}
	return entries
}

func (a *ArXivAdapter) buildPaper(ctx context.Context, e arxivEntry) *paper.Paper {
	fullText := ""
	if e.PDFLink != "" {
		fullText = a.downloadAndExtractPDF(ctx, e.PDFLink)
	}

	return &paper.Paper{
		DOI:      paper.NormalizeDOI(e.DOI),
		Title:    e.Title,
		Authors:  paper.NormalizeAuthors(e.Authors),
		Year:     extractArXivYear(e.Published),
		Abstract: e.Summary,
		Source:   ArXiv,
		FullText: fullText,
		PDFLink:  e.PDFLink,
		Metadata: map[string]any{
			"arxiv_id":       e.ID,
			"published_date": e.Published,
			"updated_date":   e.Updated,
		},
	}
}

func extractArXivYear(published string) int {
	if published == "" {
		return -1
	}
	yearStr, _, found := strings.Cut(published, "-")
	if !found {
		return -1
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return -1
	}
	return paper.NormalizeYear(year)
}

// downloadAndExtractPDF re-acquires the shared permit/limiter before
// every PDF download, per the original's "every network call, feed or
// PDF, consumes the single concurrency permit and 3s interval" rule.
func (a *ArXivAdapter) downloadAndExtractPDF(ctx context.Context, pdfURL string) string {
	release, err := a.gate(ctx)
	if err != nil {
		return ""
	}
	defer release()
	return a.enrich(ctx, pdfURL, 0)
}
