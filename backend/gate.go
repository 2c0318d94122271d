package backend

import (
	"context"

	"golang.org/x/time/rate"
)

// permit is a bounded counting semaphore implemented as a buffered
// channel, used for the per-backend concurrency caps from
// original_source/academic_claim_analyzer/search/search_config.py's
// GlobalSearchConfig (scopus=3, core=2, openalex=2, arxiv=1,
// semantic_scholar=1).
type permit chan struct{}

func newPermit(n int) permit {
	return make(permit, n)
}

func (p permit) acquire(ctx context.Context) error {
	select {
	case p <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p permit) release() {
	<-p
}

// Concurrency permits per backend, mirroring GlobalSearchConfig exactly.
const (
	scopusConcurrency          = 3
	coreConcurrency            = 2
	openAlexConcurrency        = 2
	arxivConcurrency           = 1
	semanticScholarConcurrency = 1
)

// arxivRequestInterval is arXiv's mandatory minimum spacing between any
// two requests (feed fetch or PDF download) from this process: 1 request
// per 3 seconds, enforced with a token-bucket limiter rather than the
// permit's bare mutual exclusion.
const arxivRequestInterval = 3.0 // seconds

// semanticScholarRequestInterval approximates Semantic Scholar's
// unauthenticated rate limit of roughly one request per second.
const semanticScholarRequestInterval = 1.0 // seconds

func newRateLimiter(intervalSeconds float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(1.0/intervalSeconds), 1)
}
