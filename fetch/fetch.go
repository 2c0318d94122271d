// Package fetch implements the Full-Text Fetcher (C4), an external
// collaborator per spec §4.2: given a DOI-like identifier or URL, it
// returns as much full-text content as it can extract, never raising to
// the caller.
package fetch

import "context"

// FullTextFetcher resolves a DOI or URL to extracted full text. minWords
// is a soft target: implementations return the longest candidate meeting
// it if one exists, else the longest candidate found by any strategy.
// Returns ("", nil) on total failure; fetch failure is always non-fatal
// to the caller per spec §4.2/§7.
type FullTextFetcher interface {
	Fetch(ctx context.Context, target string, minWords int) (string, error)
}
