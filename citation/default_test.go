package citation

import (
	"context"
	"strings"
	"testing"
)

func TestByDOIEmptyReturnsEmpty(t *testing.T) {
	r := NewDefaultResolver()
	got, err := r.ByDOI(context.Background(), "  ")
	if err != nil || got != "" {
		t.Fatalf("got %q, err %v, want empty result", got, err)
	}
}

func TestByDOIFormatsMiscEntry(t *testing.T) {
	r := NewDefaultResolver()
	got, err := r.ByDOI(context.Background(), "10.1234/test")
	if err != nil {
		t.Fatalf("ByDOI: %v", err)
	}
	if !strings.Contains(got, "@misc{") || !strings.Contains(got, "doi = {10.1234/test}") {
		t.Errorf("got %q, missing expected bibtex fields", got)
	}
}

func TestByTitleFormatsArticleEntry(t *testing.T) {
	r := NewDefaultResolver()
	got, err := r.ByTitle(context.Background(), "A Study of Things", []string{"Smith, John", "Jones, Jane"}, 2024)
	if err != nil {
		t.Fatalf("ByTitle: %v", err)
	}
	for _, want := range []string{"@article{Smith2024,", "author = {Smith, John and Jones, Jane}", "title = {A Study of Things}", "year = {2024}"} {
		if !strings.Contains(got, want) {
			t.Errorf("result missing %q\ngot: %s", want, got)
		}
	}
}

func TestByTitleEmptyTitleReturnsEmpty(t *testing.T) {
	r := NewDefaultResolver()
	got, err := r.ByTitle(context.Background(), "", nil, 2024)
	if err != nil || got != "" {
		t.Fatalf("got %q, err %v, want empty result", got, err)
	}
}

func TestByTitleNoYearUsesND(t *testing.T) {
	r := NewDefaultResolver()
	got, err := r.ByTitle(context.Background(), "Untitled Study", []string{"Doe, Jane"}, 0)
	if err != nil {
		t.Fatalf("ByTitle: %v", err)
	}
	if !strings.Contains(got, "@article{Doend,") || !strings.Contains(got, "year = {n.d.}") {
		t.Errorf("got %q, want nd key and year", got)
	}
}

func TestEscapeLaTeXSpecialCharacters(t *testing.T) {
	got := escapeLaTeX("Smith & Jones: 50% ($100)")
	want := "Smith \\& Jones: 50\\% (\\$100)"
	if got != want {
		t.Errorf("escapeLaTeX = %q, want %q", got, want)
	}
}
