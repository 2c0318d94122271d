package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/fetch"
	"github.com/antflydb/scholarsearch/paper"
)

// OpenAlexAdapter queries OpenAlex's /works endpoint. Grounded on
// anandheritage-paper-app/backend/pkg/openalex/client.go for response
// shape (authorships, abstract_inverted_index, primary_location) and the
// abstract-reconstruction algorithm; query construction and sort/trim
// behavior follow spec §4.1's OpenAlex specifics instead of that repo's
// parameterized Search method.
type OpenAlexAdapter struct {
	base
}

func NewOpenAlexAdapter(log *zap.Logger, fetcher fetch.FullTextFetcher) *OpenAlexAdapter {
	return &OpenAlexAdapter{base: newBase(OpenAlex, openAlexConcurrency, nil, log, fetcher)}
}

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	DOI                   string                 `json:"doi"`
	Title                 string                 `json:"title"`
	DisplayName           string                 `json:"display_name"`
	PublicationYear       int                    `json:"publication_year"`
	CitedByCount          int                    `json:"cited_by_count"`
	RelevanceScore        float64                `json:"relevance_score"`
	Authorships           []openAlexAuthorship   `json:"authorships"`
	Concepts              []openAlexConcept      `json:"concepts"`
	PrimaryLocation       *openAlexLocation      `json:"primary_location"`
	OpenAccess            *openAlexOpenAccess    `json:"open_access"`
	AbstractInvertedIndex map[string][]int       `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexConcept struct {
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	PDFURL string `json:"pdf_url"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

// Search expects query to already be a fully formed OpenAlex works URL,
// per spec §4.1 ("the query-formulator produces these"). Over-fetches up
// to 2×limit, sorts by relevance_score, then trims.
func (a *OpenAlexAdapter) Search(ctx context.Context, query string, limit int) ([]*paper.Paper, error) {
	parsed, err := url.Parse(query)
	if err != nil || !strings.HasPrefix(parsed.Path, "/works") {
		return []*paper.Paper{}, nil
	}

	requestURL := withPerPage(query, 2*limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil
	}

	release, err := a.gate(ctx)
	if err != nil {
		return nil, err
	}
	resp, doErr := doRequestJSON[openAlexResponse](ctx, &a.base, req)
	release()
	if doErr != nil {
		if a.log != nil {
			a.log.Warn("openalex: request exhausted retries", zap.Error(doErr))
		}
		return []*paper.Paper{}, nil
	}

	works := resp.Results
	sort.SliceStable(works, func(i, j int) bool { return works[i].RelevanceScore > works[j].RelevanceScore })
	if len(works) > limit {
		works = works[:limit]
	}

	papers := make([]*paper.Paper, 0, len(works))
	for i := range works {
		p := a.buildPaper(ctx, &works[i])
		if p != nil && p.Valid() {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

func withPerPage(rawURL string, perPage int) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if perPage > 100 {
		perPage = 100
	}
	q := u.Query()
	q.Set("per-page", fmt.Sprintf("%d", perPage))
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *OpenAlexAdapter) buildPaper(ctx context.Context, w *openAlexWork) *paper.Paper {
	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	authors := make([]string, 0, len(w.Authorships))
	for _, au := range w.Authorships {
		if name := strings.TrimSpace(au.Author.DisplayName); name != "" {
			authors = append(authors, name)
		}
	}

	concepts := make([]string, 0, 5)
	for _, c := range w.Concepts {
		if len(concepts) >= 5 {
			break
		}
		if c.DisplayName != "" {
			concepts = append(concepts, c.DisplayName)
		}
	}

	pdfLink := ""
	if w.PrimaryLocation != nil && w.PrimaryLocation.PDFURL != "" {
		pdfLink = w.PrimaryLocation.PDFURL
	} else if w.OpenAccess != nil && w.OpenAccess.OAURL != "" {
		pdfLink = w.OpenAccess.OAURL
	}

	isOA := w.OpenAccess != nil && w.OpenAccess.IsOA

	fullText := a.enrich(ctx, firstNonEmpty(w.DOI, pdfLink), 0)

	return &paper.Paper{
		DOI:      paper.NormalizeDOI(w.DOI),
		Title:    strings.TrimSpace(title),
		Authors:  paper.NormalizeAuthors(authors),
		Year:     paper.NormalizeYear(w.PublicationYear),
		Abstract: reconstructAbstract(w.AbstractInvertedIndex),
		Source:   OpenAlex,
		FullText: fullText,
		PDFLink:  pdfLink,
		Metadata: map[string]any{
			"is_oa":          isOA,
			"cited_by_count": w.CitedByCount,
			"concepts":       concepts,
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// reconstructAbstract rebuilds plain text from OpenAlex's
// abstract_inverted_index ({"word": [positions...]}), the same algorithm
// anandheritage-paper-app's openalex client uses.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	maxPos := 0
	for _, positions := range invertedIndex {
		for _, pos := range positions {
			if pos > maxPos {
				maxPos = pos
			}
		}
	}
	words := make([]string, maxPos+1)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			if pos >= 0 && pos <= maxPos {
				words[pos] = word
			}
		}
	}
	var b strings.Builder
	for _, w := range words {
		if w != "" {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w)
		}
	}
	return b.String()
}
