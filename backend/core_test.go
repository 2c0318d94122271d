package backend

import (
	"encoding/json"
	"testing"
)

func TestExtractCoreAuthorsFromObjectList(t *testing.T) {
	raw := json.RawMessage(`[{"name":"Ada Lovelace"},{"name":"Alan Turing"}]`)
	authors := extractCoreAuthors(raw)
	if len(authors) != 2 || authors[0] != "Ada Lovelace" || authors[1] != "Alan Turing" {
		t.Errorf("extractCoreAuthors() = %v", authors)
	}
}

func TestExtractCoreAuthorsFromStringList(t *testing.T) {
	raw := json.RawMessage(`["Grace Hopper"]`)
	authors := extractCoreAuthors(raw)
	if len(authors) != 1 || authors[0] != "Grace Hopper" {
		t.Errorf("extractCoreAuthors() = %v", authors)
	}
}

func TestExtractCoreAuthorsEmptyFallsBackToUnknown(t *testing.T) {
	authors := extractCoreAuthors(nil)
	if len(authors) != 1 || authors[0] != "Unknown Author" {
		t.Errorf("extractCoreAuthors(nil) = %v, want [Unknown Author]", authors)
	}
}

func TestExtractCoreYearPrefersYearPublished(t *testing.T) {
	r := &coreResult{YearPublished: json.Number("2019"), PublishedDate: "2020-01-01"}
	if got := extractCoreYear(r); got != 2019 {
		t.Errorf("extractCoreYear() = %d, want 2019", got)
	}
}

func TestExtractCoreYearFallsBackToPublishedDate(t *testing.T) {
	r := &coreResult{PublishedDate: "2018-03-01"}
	if got := extractCoreYear(r); got != 2018 {
		t.Errorf("extractCoreYear() = %d, want 2018", got)
	}
}

func TestExtractCoreYearUnknownReturnsSentinel(t *testing.T) {
	r := &coreResult{}
	if got := extractCoreYear(r); got != -1 {
		t.Errorf("extractCoreYear() = %d, want -1", got)
	}
}

func TestCoreBuildPaperRejectsMissingTitle(t *testing.T) {
	a := &CoreAdapter{}
	p := a.buildPaper(nil, &coreResult{Abstract: "something"}) //nolint:staticcheck // no network path: DOI/DownloadURL empty
	if p != nil {
		t.Errorf("buildPaper() = %+v, want nil for missing title", p)
	}
}
