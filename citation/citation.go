// Package citation defines CitationResolver, the opaque external
// collaborator spec §9 calls out for bibliographic citation formatting,
// plus a deterministic default implementation so the repo is runnable
// without a network-backed resolver wired in.
package citation

import "context"

// Resolver formats a BibTeX entry for a paper, identified either by DOI
// or by its title/authors/year. Both methods return ("", nil) when no
// citation can be produced — citation failure is non-fatal per spec §7,
// so callers never treat an empty result as an error.
type Resolver interface {
	ByDOI(ctx context.Context, doi string) (string, error)
	ByTitle(ctx context.Context, title string, authors []string, year int) (string, error)
}
