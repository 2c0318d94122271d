// Package llm defines StructuredLLM, the external-collaborator capability
// consumed by C5 (query formulator), C7 (adjudicator) and C8 (tournament
// ranker): given a prompt and a schema describing the expected shape, it
// returns a typed object or an error. The pipeline never references a
// concrete model; it only depends on this interface, per SPEC_FULL.md's
// "inject, not reference" design note.
package llm

import (
	"context"

	"github.com/invopop/jsonschema"
)

// Request is one structured-generation call.
type Request struct {
	System string
	Prompt string
	// Schema describes the expected JSON shape, embedded in the prompt
	// and used by callers to validate/coerce the response. May be nil
	// for a free-form request.
	Schema *jsonschema.Schema
}

// Result is the outcome of one Request within a batch: exactly one of
// Data/Err is meaningful. A non-nil Err never escapes as a Go error
// across the pipeline boundary — callers apply the spec's per-component
// keep-on-error or skip-on-error policy instead of propagating it.
type Result struct {
	Data map[string]any
	Err  error
}

// StructuredLLM is the opaque capability external to the core pipeline.
type StructuredLLM interface {
	// Generate performs one structured call and decodes the response into
	// a generic map, ready for schema-driven coercion.
	Generate(ctx context.Context, req Request) (map[string]any, error)

	// GenerateBatch performs Generate over many requests, submitted as a
	// single logical batch (C7 submits one prompt per paper, C8 submits
	// one prompt per group, both in a single batched call per spec
	// §4.6/§4.7). Results are returned in request order; a failed
	// individual request yields a Result with a non-nil Err rather than
	// aborting the batch.
	GenerateBatch(ctx context.Context, reqs []Request) []Result
}
