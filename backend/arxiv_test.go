package backend

import "testing"

func TestEscapeArXivQueryReplacesSpacesAndStripsColons(t *testing.T) {
	got := escapeArXivQuery("machine learning: transformers")
	want := "machine+learning+transformers"
	if got != want {
		t.Errorf("escapeArXivQuery() = %q, want %q", got, want)
	}
}

func TestExtractArXivYearParsesPublishedDate(t *testing.T) {
	if got := extractArXivYear("2023-04-15T00:00:00Z"); got != 2023 {
		t.Errorf("extractArXivYear() = %d, want 2023", got)
	}
}

func TestExtractArXivYearEmptyReturnsSentinel(t *testing.T) {
	if got := extractArXivYear(""); got != -1 {
		t.Errorf("extractArXivYear(\"\") = %d, want -1", got)
	}
}

func TestParseArXivFeedExtractsEntriesAndPDFLink(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/1234.5678v1</id>
    <title>A Sample Paper</title>
    <summary>This is the abstract.</summary>
    <published>2022-01-10T00:00:00Z</published>
    <updated>2022-01-11T00:00:00Z</updated>
    <author><name>Jane Researcher</name></author>
    <link title="pdf" href="http://arxiv.org/pdf/1234.5678v1"/>
    <arxiv:doi>10.1000/abcd</arxiv:doi>
  </entry>
</feed>`)

	entries := parseArXivFeed(body)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Title != "A Sample Paper" {
		t.Errorf("Title = %q", e.Title)
	}
	if e.PDFLink != "http://arxiv.org/pdf/1234.5678v1" {
		t.Errorf("PDFLink = %q", e.PDFLink)
	}
	if e.DOI != "10.1000/abcd" {
		t.Errorf("DOI = %q", e.DOI)
	}
	if len(e.Authors) != 1 || e.Authors[0] != "Jane Researcher" {
		t.Errorf("Authors = %v", e.Authors)
	}
}

func TestParseArXivFeedDefaultsUnknownAuthor(t *testing.T) {
	body := []byte(`<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1234.5678v1</id>
    <title>No Authors</title>
    <summary>abstract</summary>
  </entry>
</feed>`)
	entries := parseArXivFeed(body)
	if len(entries) != 1 || len(entries[0].Authors) != 1 || entries[0].Authors[0] != "Unknown Author" {
		t.Errorf("Authors = %v, want [Unknown Author]", entries[0].Authors)
	}
}
