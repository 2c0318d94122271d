// Package coordinate implements the Search Coordinator (C6): given a
// paper.RequestAnalysis and a caller-supplied list of backend-tagged
// queries, it fans out one Adapter.Search call per (backend, query) pair concurrently
// and folds every returned paper.Paper into the analysis, deduplicating
// by title as it goes. Grounded on
// original_source/academic_claim_analyzer/search_coordinator.py's
// per-platform task fan-out, adapted to Go's errgroup.Group idiom from
// evalaf/eval/runner.go's runParallel.
package coordinate

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/antflydb/scholarsearch/backend"
	"github.com/antflydb/scholarsearch/paper"
)

// Coordinate runs one Adapter.Search per query in queries whose Source is
// both in registry and in platforms (platforms nil or empty means "every
// registered backend"). Each task's results are folded into analysis via
// AddSearchResult; a task that errors (context cancellation) is logged
// and otherwise ignored, matching the original's per-task try/except that
// never aborts the whole gather. queries is caller-supplied rather than
// read off analysis itself so the orchestrator's multi-query mode can run
// one round of queries at a time without re-issuing earlier rounds'
// searches against the backends a second time.
func Coordinate(ctx context.Context, analysis *paper.RequestAnalysis, queries []paper.SearchQuery, registry backend.Registry, platforms []string, papersPerQuery int, log *zap.Logger) {
	enabled := enabledSet(platforms, registry)

	// continueOnError: every task returns nil regardless of its own
	// adapter.Search error, so a single backend failure never cancels
	// groupCtx and aborts the others' in-flight searches.
	g, groupCtx := errgroup.WithContext(ctx)
	for _, q := range queries {
		adapter, ok := registry[q.Source]
		if !ok || !enabled[q.Source] {
			continue
		}

		adapter, query := adapter, q
		g.Go(func() error {
			results, err := adapter.Search(groupCtx, query.Text, papersPerQuery)
			if err != nil {
				if log != nil {
					log.Warn("coordinate: search task failed",
						zap.String("backend", query.Source), zap.Error(err))
				}
				return nil
			}
			for _, p := range results {
				analysis.AddSearchResult(p)
			}
			return nil
		})
	}
	g.Wait()
}

func enabledSet(platforms []string, registry backend.Registry) map[string]bool {
	if len(platforms) == 0 {
		enabled := make(map[string]bool, len(registry))
		for name := range registry {
			enabled[name] = true
		}
		return enabled
	}
	enabled := make(map[string]bool, len(platforms))
	for _, p := range platforms {
		enabled[p] = true
	}
	return enabled
}
