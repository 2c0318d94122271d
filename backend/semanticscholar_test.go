package backend

import "testing"

func TestS2ToPaperPrefersDOIOverPaperID(t *testing.T) {
	item := s2Paper{
		Title:       "A Paper",
		PaperID:     "abc123",
		ExternalIDs: map[string]string{"DOI": "10.1000/xyz"},
	}
	p := s2ToPaper(item)
	if p.DOI != "10.1000/xyz" {
		t.Errorf("DOI = %q, want 10.1000/xyz", p.DOI)
	}
}

func TestS2ToPaperFallsBackToPaperIDWhenNoDOI(t *testing.T) {
	item := s2Paper{Title: "A Paper", PaperID: "abc123"}
	p := s2ToPaper(item)
	if p.DOI != "abc123" {
		t.Errorf("DOI = %q, want abc123", p.DOI)
	}
}

func TestS2ToPaperExtractsOpenAccessPDF(t *testing.T) {
	item := s2Paper{Title: "A Paper", OpenAccessPDF: &s2PDF{URL: "https://example.org/paper.pdf"}}
	p := s2ToPaper(item)
	if p.PDFLink != "https://example.org/paper.pdf" {
		t.Errorf("PDFLink = %q", p.PDFLink)
	}
}

func TestS2ToPaperDefaultsUnknownAuthorWhenNoneNamed(t *testing.T) {
	item := s2Paper{Title: "A Paper", Authors: []s2Author{{Name: ""}}}
	p := s2ToPaper(item)
	if len(p.Authors) != 1 || p.Authors[0] != "Unknown Author" {
		t.Errorf("Authors = %v, want [Unknown Author]", p.Authors)
	}
}
