// Package adjudicate implements the Exclusion/Extraction Adjudicator
// (C7): for every candidate paper.Paper it asks a StructuredLLM, in one
// batched call, to evaluate a caller-supplied set of boolean exclusion
// criteria and extract a caller-supplied set of data fields, then drops
// any paper for which an exclusion field came back true. Grounded on
// original_source/academic_claim_analyzer/exclusion_processor.py's
// prompt text, per-paper RankedPaper construction, and keep-on-error
// policy ("absence of evidence is not evidence of absence": a paper the
// LLM fails to evaluate is kept, unfiltered, with empty results rather
// than dropped).
package adjudicate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/llm"
	"github.com/antflydb/scholarsearch/paper"
	"github.com/antflydb/scholarsearch/schema"
)

const promptTemplate = `You are analyzing the following academic paper to (1) evaluate certain Exclusion Criteria (boolean flags) and (2) extract structured data fields. Read the entire text carefully and then produce a single JSON object with exactly the fields specified in the schema below. Do not add extra keys, text, or commentary.

Paper to Analyze

Title: %s

Full Text:
%s

Task Requirements

1. Exclusion Criteria (boolean fields): each field asks whether the paper meets some
   condition that would exclude it from further analysis. If the paper's text clearly
   indicates the condition is true, set that field to true; if the text contradicts it
   or is silent, set it to false. If any boolean exclusion criterion is true, the paper
   is considered excluded.
2. Data Extraction Fields: provide the requested information from the paper, using each
   field's documented fallback when the paper does not specify it.
3. Schema: return a JSON object matching this schema exactly, no extra keys or wrappers:
%s

Output only a single valid JSON object, no markdown fences, no commentary. Every field in
the schema must be present.`

// Adjudicate evaluates every paper in analysis.Snapshot() against merged,
// replacing analysis's search results with the subset that survives
// exclusion. A paper whose LLM call errors is kept with empty
// exclusion/extraction results rather than dropped or retried further —
// C7 does not itself retry; llm.StructuredLLM's own retry policy already
// covers transient failures.
func Adjudicate(ctx context.Context, model llm.StructuredLLM, analysis *paper.RequestAnalysis, merged *schema.CompiledSchema, log *zap.Logger) {
	candidates := analysis.Snapshot()
	if len(candidates) == 0 {
		return
	}

	schemaJSON := renderSchemaDescription(merged)
	requests := make([]llm.Request, len(candidates))
	for i, p := range candidates {
		requests[i] = llm.Request{
			Prompt: fmt.Sprintf(promptTemplate, p.Title, p.FullText, schemaJSON),
			Schema: merged.RenderJSONSchema(),
		}
	}

	results := model.GenerateBatch(ctx, requests)

	survivors := make([]*paper.Paper, 0, len(candidates))
	for i, p := range candidates {
		rp := buildRankedPaper(p, results[i], merged, log)
		if !isExcluded(rp, merged) {
			survivors = append(survivors, p)
		}
	}
	analysis.ReplaceSearchResults(survivors)
}

func buildRankedPaper(p *paper.Paper, result llm.Result, merged *schema.CompiledSchema, log *zap.Logger) *paper.RankedPaper {
	rp := &paper.RankedPaper{Paper: *p}
	if result.Err != nil {
		if log != nil {
			log.Warn("adjudicate: llm call failed, keeping paper unfiltered",
				zap.String("title", p.Title), zap.Error(result.Err))
		}
		return rp
	}

	decoded := merged.Decode(result.Data)
	exclusionResult := make(map[string]any)
	extractionResult := make(map[string]any)
	for _, f := range merged.Fields {
		if f.Origin == schema.OriginExclusion {
			exclusionResult[f.Name] = decoded[f.Name]
		} else {
			extractionResult[f.Name] = decoded[f.Name]
		}
	}
	rp.ExclusionResult = exclusionResult
	rp.ExtractionResult = extractionResult
	return rp
}

// isExcluded reports whether any exclusion-schema field in
// rp.ExclusionResult is true. A data-extraction field is never
// consulted here, even when it happens to be KindBoolean — only a
// field's Origin, not its Kind, marks it as an exclusion verdict. A
// paper with no exclusion verdicts at all (LLM failure) is never
// excluded by this check.
func isExcluded(rp *paper.RankedPaper, merged *schema.CompiledSchema) bool {
	for _, f := range merged.Fields {
		if f.Origin != schema.OriginExclusion {
			continue
		}
		if v, ok := rp.ExclusionResult[f.Name].(bool); ok && v {
			return true
		}
	}
	return false
}

func renderSchemaDescription(merged *schema.CompiledSchema) string {
	s := ""
	for _, f := range merged.Fields {
		s += fmt.Sprintf("- %s (%s): %s\n", f.Name, f.Kind, f.Description)
	}
	return s
}
