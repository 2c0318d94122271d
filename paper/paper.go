// Package paper defines the core data model shared by every pipeline
// stage: the candidate Paper, its ranked form, the search queries issued
// against backends, and the RequestAnalysis aggregate that accumulates
// results across the whole run.
package paper

import (
	"strings"
	"time"
)

// Paper is a single candidate document harvested from a backend adapter,
// optionally enriched with full text by the FullTextFetcher. It is
// assembled by an adapter only once the retain invariant holds: non-empty
// title and (non-empty abstract or non-empty full text).
type Paper struct {
	ID            string         `json:"id,omitempty"`
	DOI           string         `json:"doi"`
	Title         string         `json:"title"`
	Authors       []string       `json:"authors"`
	Year          int            `json:"year"`
	Abstract      string         `json:"abstract"`
	Source        string         `json:"source"`
	FullText      string         `json:"full_text,omitempty"`
	PDFLink       string         `json:"pdf_link,omitempty"`
	Bibtex        string         `json:"bibtex,omitempty"`
	CitationCount int            `json:"citation_count"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	FetchedAt     time.Time      `json:"fetched_at,omitempty"`
}

// NormalizeYear clamps a parsed publication year to the supported range,
// mirroring the sentinel-on-failure convention used across every backend
// adapter: -1 means "unknown or out of range", never an error.
func NormalizeYear(year int) int {
	if year < 1900 || year > 2100 {
		return -1
	}
	return year
}

// NormalizeDOI strips a leading doi.org resolver prefix and surrounding
// whitespace, leaving the bare DOI the backend adapters compare on.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/"} {
		if strings.HasPrefix(doi, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(doi, prefix))
		}
	}
	return doi
}

// NormalizeAuthors replaces an empty author list with the documented
// singleton placeholder, preserving source order otherwise.
func NormalizeAuthors(authors []string) []string {
	if len(authors) == 0 {
		return []string{"Unknown Author"}
	}
	return authors
}

// Valid reports whether p satisfies the Paper retain invariant: non-empty
// title, and a non-empty abstract or full text.
func (p *Paper) Valid() bool {
	if strings.TrimSpace(p.Title) == "" {
		return false
	}
	return strings.TrimSpace(p.Abstract) != "" || strings.TrimSpace(p.FullText) != ""
}

// titleKey returns the deduplication key for a paper: the title, folded
// to lowercase with surrounding whitespace trimmed.
func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// RankedPaper extends Paper with the tournament ranker's verdict: a
// normalized relevance score, free-text analysis, supporting quotes, and
// the adjudicator's exclusion/extraction field maps (keyed by schema
// field name).
type RankedPaper struct {
	Paper
	RelevanceScore   float64        `json:"relevance_score"`
	Analysis         string         `json:"analysis"`
	RelevantQuotes   []string       `json:"relevant_quotes,omitempty"`
	ExclusionResult  map[string]any `json:"exclusion_criteria_result,omitempty"`
	ExtractionResult map[string]any `json:"extraction_result,omitempty"`
}

// ClampRelevanceScore enforces the [0.0, 1.0] invariant on a ranked
// paper's relevance score.
func ClampRelevanceScore(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// SearchQuery is one formulated query bound to the backend it should be
// issued against.
type SearchQuery struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}
