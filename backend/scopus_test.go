package backend

import "testing"

func TestValidScopusQueryAcceptsWellFormedSyntax(t *testing.T) {
	q := `TITLE-ABS-KEY(("precision agriculture" OR "precision farming") AND "water")`
	if !validScopusQuery(q) {
		t.Errorf("expected well-formed query to validate, got rejected: %q", q)
	}
}

func TestValidScopusQueryRejectsMalformedSyntax(t *testing.T) {
	cases := []string{
		"term1 W/3 W/5 term2",
		"term1 PRE/2 PRE/4 term2",
		"term1 AND NOT AND term2",
		"sensor{*}",
		"(*)",
	}
	for _, q := range cases {
		if validScopusQuery(q) {
			t.Errorf("expected malformed query to be rejected: %q", q)
		}
	}
}

func TestParseScopusCitationsHandlesMissingValue(t *testing.T) {
	if got := parseScopusCitations(""); got != 0 {
		t.Errorf("parseScopusCitations(\"\") = %d, want 0", got)
	}
	if got := parseScopusCitations("42"); got != 42 {
		t.Errorf("parseScopusCitations(\"42\") = %d, want 42", got)
	}
}

func TestScopusBuildPaperExtractsYearFromCoverDate(t *testing.T) {
	a := &ScopusAdapter{}
	entry := &scopusEntry{
		Title:     "A Study",
		CoverDate: "2021-06-15",
		Authors:   []scopusAuthor{{AuthName: "Jane Doe"}},
	}
	p := a.buildPaper(nil, entry) //nolint:staticcheck // no network path taken: DOI is empty
	if p.Year != 2021 {
		t.Errorf("Year = %d, want 2021", p.Year)
	}
	if len(p.Authors) != 1 || p.Authors[0] != "Jane Doe" {
		t.Errorf("Authors = %v", p.Authors)
	}
}

func TestScopusBuildPaperDefaultsUnknownAuthor(t *testing.T) {
	a := &ScopusAdapter{}
	entry := &scopusEntry{Title: "No Authors Listed"}
	p := a.buildPaper(nil, entry) //nolint:staticcheck // no network path taken: DOI is empty
	if len(p.Authors) != 1 || p.Authors[0] != "Unknown Author" {
		t.Errorf("Authors = %v, want [Unknown Author]", p.Authors)
	}
}
