package adjudicate

import (
	"context"
	"testing"

	"github.com/antflydb/scholarsearch/llm"
	"github.com/antflydb/scholarsearch/paper"
	"github.com/antflydb/scholarsearch/schema"
)

func mergedSchema(t *testing.T) *schema.CompiledSchema {
	t.Helper()
	exclusion, err := schema.Compile([]string{"is_review_article"}, map[string]schema.FieldSpec{
		"is_review_article": {Kind: schema.KindBoolean, Description: "Is this a review article?"},
	})
	if err != nil {
		t.Fatalf("compile exclusion: %v", err)
	}
	extraction, err := schema.Compile([]string{"sample_size", "has_control_group"}, map[string]schema.FieldSpec{
		"sample_size":       {Kind: schema.KindInteger, Description: "Study sample size"},
		"has_control_group": {Kind: schema.KindBoolean, Description: "Does the study include a control group?"},
	})
	if err != nil {
		t.Fatalf("compile extraction: %v", err)
	}
	return schema.Merge(exclusion, extraction)
}

func analysisWithPapers(titles ...string) *paper.RequestAnalysis {
	a := paper.NewRequestAnalysis(nil, "", nil)
	for _, title := range titles {
		a.AddSearchResult(&paper.Paper{Title: title, Abstract: "some abstract"})
	}
	return a
}

func TestAdjudicateDropsExcludedPapers(t *testing.T) {
	merged := mergedSchema(t)
	analysis := analysisWithPapers("Review Paper", "Original Study")

	fake := &llm.Fake{Responses: []llm.Result{
		{Data: map[string]any{"is_review_article": true, "sample_size": float64(0)}},
		{Data: map[string]any{"is_review_article": false, "sample_size": float64(120)}},
	}}

	Adjudicate(context.Background(), fake, analysis, merged, nil)

	remaining := analysis.Snapshot()
	if len(remaining) != 1 || remaining[0].Title != "Original Study" {
		t.Fatalf("remaining = %v, want only Original Study", remaining)
	}
}

func TestAdjudicateBooleanExtractionFieldDoesNotExclude(t *testing.T) {
	merged := mergedSchema(t)
	analysis := analysisWithPapers("Controlled Study")

	fake := &llm.Fake{Responses: []llm.Result{
		{Data: map[string]any{
			"is_review_article": false,
			"sample_size":       float64(200),
			"has_control_group": true,
		}},
	}}

	Adjudicate(context.Background(), fake, analysis, merged, nil)

	remaining := analysis.Snapshot()
	if len(remaining) != 1 {
		t.Fatalf("remaining = %v, want the paper kept: a true boolean extraction field must not exclude it", remaining)
	}
}

func TestAdjudicateKeepsPaperOnLLMError(t *testing.T) {
	merged := mergedSchema(t)
	analysis := analysisWithPapers("Uncertain Paper")

	fake := &llm.Fake{Responses: []llm.Result{
		{Err: errBoom},
	}}

	Adjudicate(context.Background(), fake, analysis, merged, nil)

	remaining := analysis.Snapshot()
	if len(remaining) != 1 {
		t.Fatalf("remaining = %v, want the paper kept despite LLM error", remaining)
	}
}

func TestAdjudicateNoCandidatesIsNoop(t *testing.T) {
	merged := mergedSchema(t)
	analysis := paper.NewRequestAnalysis(nil, "", nil)
	fake := &llm.Fake{}

	Adjudicate(context.Background(), fake, analysis, merged, nil)

	if len(fake.Requests) != 0 {
		t.Errorf("expected no LLM calls for an empty candidate set, got %d", len(fake.Requests))
	}
}

var errBoom = fakeErr("boom")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
