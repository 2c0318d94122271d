// Package backend implements the Backend Adapters (C3): one Adapter per
// scholarly API, each translating a backend-specific query string into a
// list of paper.Paper records while enforcing its own concurrency limit,
// rate interval, retry/backoff policy, and response parsing.
package backend

import (
	"context"

	"github.com/antflydb/scholarsearch/paper"
)

// Backend name constants, used both as map keys for per-backend
// configuration (query guides, concurrency permits) and as the
// paper.Paper.Source / paper.SearchQuery.Source value.
const (
	Scopus          = "scopus"
	OpenAlex        = "openalex"
	ArXiv           = "arxiv"
	Core            = "core"
	SemanticScholar = "semantic_scholar"
)

// Names lists every backend in a stable order, used wherever the
// orchestrator needs to enumerate the full backend set (e.g. validating
// analysis.parameters.platforms).
var Names = []string{Scopus, OpenAlex, Core, ArXiv, SemanticScholar}

// Adapter searches one backend and returns up to limit papers. It never
// returns a non-nil error for a transient condition: exhausted retries,
// malformed responses, and non-200 statuses all degrade to an empty
// slice plus nil error, per spec §4's "never raise across the adapter
// boundary" rule. A non-nil error return is reserved for a canceled or
// deadline-exceeded context.
type Adapter interface {
	Search(ctx context.Context, query string, limit int) ([]*paper.Paper, error)
}

// Registry maps a backend name to its configured Adapter.
type Registry map[string]Adapter
