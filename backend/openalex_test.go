package backend

import "testing"

func TestReconstructAbstractFromInvertedIndex(t *testing.T) {
	index := map[string][]int{
		"Machine": {0},
		"learning": {1},
		"is":      {2},
		"useful":  {3},
	}
	got := reconstructAbstract(index)
	want := "Machine learning is useful"
	if got != want {
		t.Errorf("reconstructAbstract() = %q, want %q", got, want)
	}
}

func TestReconstructAbstractEmptyIndexReturnsEmpty(t *testing.T) {
	if got := reconstructAbstract(nil); got != "" {
		t.Errorf("reconstructAbstract(nil) = %q, want empty", got)
	}
}

func TestReconstructAbstractHandlesRepeatedWords(t *testing.T) {
	index := map[string][]int{
		"the": {0, 2},
		"cat": {1},
		"sat": {3},
	}
	got := reconstructAbstract(index)
	want := "the cat the sat"
	if got != want {
		t.Errorf("reconstructAbstract() = %q, want %q", got, want)
	}
}

func TestWithPerPageCapsAtOneHundred(t *testing.T) {
	got := withPerPage("https://api.openalex.org/works?search=test", 500)
	if got != "https://api.openalex.org/works?per-page=100&search=test" {
		t.Errorf("withPerPage() = %q", got)
	}
}

func TestFirstNonEmptyReturnsFirstNonEmptyArg(t *testing.T) {
	if got := firstNonEmpty("", "", "b", "c"); got != "b" {
		t.Errorf("firstNonEmpty() = %q, want %q", got, "b")
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestOpenAlexBuildPaperFallsBackToDisplayName(t *testing.T) {
	a := &OpenAlexAdapter{}
	w := &openAlexWork{DisplayName: "Fallback Name", PublicationYear: 2022}
	p := a.buildPaper(nil, w) //nolint:staticcheck // no network path: DOI/pdf empty
	if p.Title != "Fallback Name" {
		t.Errorf("Title = %q, want fallback display name", p.Title)
	}
	if p.Year != 2022 {
		t.Errorf("Year = %d, want 2022", p.Year)
	}
}
