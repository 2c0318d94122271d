// Package httpapi exposes the pipeline's single inbound transport: a
// POST /v1/analyze handler deserializing a request body into a
// pipeline.Request, invoking the orchestrator, and writing back the
// resulting RequestAnalysis as JSON. Grounded on the teacher's own bare
// net/http + encoding/json service-handler idiom (no framework), as
// confirmed by healthz/healthserver.go's mux-based server shape.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/config"
	"github.com/antflydb/scholarsearch/pipeline"
	"github.com/antflydb/scholarsearch/schema"
)

var (
	errEmptyQuery   = errors.New("httpapi: query must not be empty")
	errInvalidQuery = errors.New("httpapi: query must be a string or an array of strings")
)

// analyzeRequestBody mirrors pipeline.Request's JSON wire shape: fields
// are named the way spec §6 documents the entry point's options.
type analyzeRequestBody struct {
	Query                any             `json:"query"`
	RankingGuidance      string          `json:"ranking_guidance"`
	ExclusionCriteria    []fieldSpecBody `json:"exclusion_criteria"`
	DataExtractionSchema []fieldSpecBody `json:"data_extraction_schema"`
	NumQueries           int             `json:"num_queries"`
	PapersPerQuery       int             `json:"papers_per_query"`
	NumPapersToReturn    int             `json:"num_papers_to_return"`
	Platforms            []string        `json:"platforms"`
	MinYear              int             `json:"min_year"`
	MaxYear              int             `json:"max_year"`
}

type fieldSpecBody struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// Handler serves POST /v1/analyze against a pipeline.Orchestrator.
// Defaults supplies the server's config.search.* values, applied to any
// request field the body leaves unset (zero value / empty slice), per
// spec §6's config-vs-request-override contract.
type Handler struct {
	Orchestrator *pipeline.Orchestrator
	Defaults     config.SearchConfig
	Log          *zap.Logger
}

// NewHandler constructs a Handler bound to orchestrator, with no
// config-level search defaults. Use NewHandlerWithDefaults to apply a
// server config's search section to every request.
func NewHandler(orchestrator *pipeline.Orchestrator, log *zap.Logger) *Handler {
	return &Handler{Orchestrator: orchestrator, Log: log}
}

// NewHandlerWithDefaults constructs a Handler that falls back to
// defaults' platform list, year bounds, and per-query counts whenever a
// request body omits them.
func NewHandlerWithDefaults(orchestrator *pipeline.Orchestrator, defaults config.SearchConfig, log *zap.Logger) *Handler {
	return &Handler{Orchestrator: orchestrator, Defaults: defaults, Log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body analyzeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	query, err := queryStrings(body.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	platforms := body.Platforms
	if len(platforms) == 0 {
		platforms = h.Defaults.Platforms
	}
	numQueries := body.NumQueries
	if numQueries == 0 {
		numQueries = h.Defaults.NumQueries
	}
	papersPerQuery := body.PapersPerQuery
	if papersPerQuery == 0 {
		papersPerQuery = h.Defaults.PapersPerQuery
	}
	minYear := body.MinYear
	if minYear == 0 {
		minYear = h.Defaults.MinYear
	}
	maxYear := body.MaxYear
	if maxYear == 0 {
		maxYear = h.Defaults.MaxYear
	}

	req := pipeline.Request{
		Query:                query,
		RankingGuidance:      body.RankingGuidance,
		ExclusionCriteria:    toFieldSpecs(body.ExclusionCriteria),
		DataExtractionSchema: toFieldSpecs(body.DataExtractionSchema),
		NumQueries:           numQueries,
		PapersPerQuery:       papersPerQuery,
		NumPapersToReturn:    body.NumPapersToReturn,
		Platforms:            platforms,
		MinYear:              minYear,
		MaxYear:              maxYear,
	}

	analysis := h.Orchestrator.AnalyzeRequest(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(analysis.View()); err != nil && h.Log != nil {
		h.Log.Error("httpapi: failed to encode response", zap.Error(err))
	}
}

// queryStrings accepts either a bare string or an array of strings for
// the "query" field, per spec §6's "string OR sequence of strings"
// contract.
func queryStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, errEmptyQuery
		}
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errInvalidQuery
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, errEmptyQuery
		}
		return out, nil
	default:
		return nil, errInvalidQuery
	}
}

func toFieldSpecs(body []fieldSpecBody) []pipeline.FieldSpec {
	if len(body) == 0 {
		return nil
	}
	out := make([]pipeline.FieldSpec, len(body))
	for i, f := range body {
		out[i] = pipeline.FieldSpec{Name: f.Name, Kind: schemaKind(f.Kind), Description: f.Description}
	}
	return out
}

// schemaKind maps the wire "kind" string onto schema.Kind, defaulting to
// KindString for an unrecognized or empty value, matching
// schema.Compile's own "empty kind means string" fallback.
func schemaKind(kind string) schema.Kind {
	switch schema.Kind(kind) {
	case schema.KindString, schema.KindInteger, schema.KindNumber, schema.KindBoolean, schema.KindList:
		return schema.Kind(kind)
	default:
		return schema.KindString
	}
}
