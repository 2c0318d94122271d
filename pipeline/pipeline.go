// Package pipeline implements the Pipeline Orchestrator (C9): the single
// analyze_request entry point that wires C5 (query.Formulate) through C8
// (rank.Rank), handling both single-query and multi-query mode. Grounded
// on original_source/academic_claim_analyzer/analyzer.py's
// analyze_request/_search_and_exclude/_rank_papers control flow.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/adjudicate"
	"github.com/antflydb/scholarsearch/backend"
	"github.com/antflydb/scholarsearch/citation"
	"github.com/antflydb/scholarsearch/coordinate"
	"github.com/antflydb/scholarsearch/healthz"
	"github.com/antflydb/scholarsearch/llm"
	"github.com/antflydb/scholarsearch/paper"
	"github.com/antflydb/scholarsearch/query"
	"github.com/antflydb/scholarsearch/rank"
	"github.com/antflydb/scholarsearch/schema"
)

const (
	defaultNumQueries        = 2
	defaultPapersPerQuery    = 2
	defaultNumPapersToReturn = 2
)

// FieldSpec is one caller-supplied exclusion or extraction field, in the
// order it should be presented in the adjudication prompt.
type FieldSpec struct {
	Name        string
	Kind        schema.Kind
	Description string
}

// Request is the analyze_request entry point's option set, per spec §6.
// Query holds one element in single-query mode, or several in
// multi-query mode.
type Request struct {
	Query                []string
	RankingGuidance      string
	ExclusionCriteria    []FieldSpec
	DataExtractionSchema []FieldSpec
	NumQueries           int
	PapersPerQuery       int
	NumPapersToReturn    int
	Platforms            []string
	MinYear              int // 0 means unset
	MaxYear              int // 0 means unset
}

// Orchestrator wires C5 through C8 behind the single AnalyzeRequest
// entry point.
type Orchestrator struct {
	Model    llm.StructuredLLM
	Resolver citation.Resolver
	Registry backend.Registry
	Log      *zap.Logger
	// Metrics is nil unless the caller wires one via WithMetrics; every
	// stage-duration observation is a no-op against a nil Metrics.
	Metrics *healthz.Metrics
}

// NewOrchestrator constructs an Orchestrator from its already-validated
// collaborators. Catastrophic misconfiguration (missing secrets, unset
// model) is the caller's responsibility to reject at construction time —
// AnalyzeRequest itself never raises, per spec §7.
func NewOrchestrator(model llm.StructuredLLM, resolver citation.Resolver, registry backend.Registry, log *zap.Logger) *Orchestrator {
	return &Orchestrator{Model: model, Resolver: resolver, Registry: registry, Log: log}
}

// WithMetrics attaches m to o and to every registered backend.Adapter that
// implements metricsReceiver, so both stage-duration and per-backend
// request/retry counters share one Metrics instance. Returns o for
// chaining at construction time.
func (o *Orchestrator) WithMetrics(m *healthz.Metrics) *Orchestrator {
	o.Metrics = m
	for _, adapter := range o.Registry {
		if mr, ok := adapter.(metricsReceiver); ok {
			mr.SetMetrics(m)
		}
	}
	return o
}

type metricsReceiver interface {
	SetMetrics(m *healthz.Metrics)
}

func (o *Orchestrator) observeStage(stage string, start time.Time) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// AnalyzeRequest runs the full pipeline for req and always returns a
// RequestAnalysis; it has no error return. The only entry it writes to
// analysis.Metadata is a "warning" when no candidate papers reach the
// ranker. Failures inside a stage (query formulation, a backend search,
// an adjudication or ranking call) are logged or absorbed by that stage
// and are not recorded in analysis.Metadata.
func (o *Orchestrator) AnalyzeRequest(ctx context.Context, req Request) *paper.RequestAnalysis {
	req = applyDefaults(req)
	merged := compileSchemas(req)

	analysis := paper.NewRequestAnalysis(req.Query, req.RankingGuidance, map[string]any{
		"num_queries":          req.NumQueries,
		"papers_per_query":     req.PapersPerQuery,
		"num_papers_to_return": req.NumPapersToReturn,
		"platforms":            req.Platforms,
	})

	for _, q := range req.Query {
		o.searchAndExclude(ctx, analysis, q, req, merged)
	}

	o.rankSurvivors(ctx, analysis, req)
	return analysis
}

func applyDefaults(req Request) Request {
	if req.NumQueries <= 0 {
		req.NumQueries = defaultNumQueries
	}
	if req.PapersPerQuery <= 0 {
		req.PapersPerQuery = defaultPapersPerQuery
	}
	if req.NumPapersToReturn <= 0 {
		req.NumPapersToReturn = defaultNumPapersToReturn
	}
	if len(req.Platforms) == 0 {
		req.Platforms = backend.Names
	}
	return req
}

func compileSchemas(req Request) *schema.CompiledSchema {
	exclusion := compileFields(req.ExclusionCriteria)
	extraction := compileFields(req.DataExtractionSchema)
	if exclusion == nil && extraction == nil {
		return nil
	}
	return schema.Merge(exclusion, extraction)
}

func compileFields(fields []FieldSpec) *schema.CompiledSchema {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, len(fields))
	specs := make(map[string]schema.FieldSpec, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		specs[f.Name] = schema.FieldSpec{Kind: f.Kind, Description: f.Description}
	}
	compiled, err := schema.Compile(names, specs)
	if err != nil {
		return nil
	}
	return compiled
}

// searchAndExclude formulates queries for one element of req.Query
// across every enabled backend, runs C6's search fan-out, applies any
// year filter, and runs C7's adjudication, mirroring the original's
// _search_and_exclude. analysis is reused across multi-query rounds so
// its title-based deduplication carries over between elements.
func (o *Orchestrator) searchAndExclude(ctx context.Context, analysis *paper.RequestAnalysis, userQuery string, req Request, merged *schema.CompiledSchema) {
	var queries []paper.SearchQuery
	for _, backendName := range req.Platforms {
		if _, ok := o.Registry[backendName]; !ok {
			continue
		}
		for _, text := range query.Formulate(ctx, o.Model, userQuery, backendName, req.NumQueries) {
			q := paper.SearchQuery{Text: text, Source: backendName}
			analysis.AddQuery(q)
			queries = append(queries, q)
		}
	}

	searchStart := time.Now()
	coordinate.Coordinate(ctx, analysis, queries, o.Registry, req.Platforms, req.PapersPerQuery, o.Log)
	o.observeStage("search", searchStart)

	if req.MinYear != 0 || req.MaxYear != 0 {
		filterByYear(analysis, req.MinYear, req.MaxYear)
	}

	if merged != nil {
		adjudicateStart := time.Now()
		adjudicate.Adjudicate(ctx, o.Model, analysis, merged, o.Log)
		o.observeStage("adjudicate", adjudicateStart)
	}
}

// filterByYear drops search results outside [minYear, maxYear] (0 means
// unbounded on that side); a paper with an unknown year (-1) is always
// kept, per spec §6's post-ingest year filter.
func filterByYear(analysis *paper.RequestAnalysis, minYear, maxYear int) {
	kept := make([]*paper.Paper, 0)
	for _, p := range analysis.Snapshot() {
		if p.Year == -1 {
			kept = append(kept, p)
			continue
		}
		if minYear != 0 && p.Year < minYear {
			continue
		}
		if maxYear != 0 && p.Year > maxYear {
			continue
		}
		kept = append(kept, p)
	}
	analysis.ReplaceSearchResults(kept)
}

// rankSurvivors runs C8 once over every accumulated candidate and
// records the result, matching the original's _rank_papers: an empty
// candidate set is a no-op, not an error.
func (o *Orchestrator) rankSurvivors(ctx context.Context, analysis *paper.RequestAnalysis, req Request) {
	candidates := analysis.Snapshot()
	if len(candidates) == 0 {
		analysis.SetMetadata("warning", "no papers to rank")
		return
	}

	opts := rank.Options{
		Query:           strings.Join(req.Query, "; "),
		RankingGuidance: req.RankingGuidance,
		TopN:            req.NumPapersToReturn,
	}
	rankStart := time.Now()
	ranked := rank.Rank(ctx, o.Model, o.Resolver, candidates, opts, o.Log)
	o.observeStage("rank", rankStart)
	for _, rp := range ranked {
		analysis.AddRankedPaper(rp)
	}
}
