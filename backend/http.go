package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/antflydb/scholarsearch/fetch"
	"github.com/antflydb/scholarsearch/healthz"
	"github.com/antflydb/scholarsearch/retry"
)

// base holds everything every adapter needs: an HTTP client, its
// concurrency permit, a retry policy, a logger, and the C4 fetcher used
// for full-text enrichment. Each concrete adapter embeds base and adds
// its own request-building/response-parsing logic.
type base struct {
	name     string
	client   *http.Client
	permit   permit
	limiter  rateLimiter
	retryCfg retry.Config
	log      *zap.Logger
	fetcher  fetch.FullTextFetcher
	metrics  *healthz.Metrics
}

// SetMetrics attaches m so doRequest/doRequestJSON record per-backend
// request/retry counts against it; every concrete adapter promotes this
// method by embedding base. A nil m (the zero value until a caller wires
// one) makes every metrics call below a no-op.
func (b *base) SetMetrics(m *healthz.Metrics) { b.metrics = m }

// rateLimiter is satisfied by *rate.Limiter; nil means no minimum-interval
// gating beyond the concurrency permit.
type rateLimiter interface {
	Wait(ctx context.Context) error
}

func newBase(name string, concurrency int, limiter rateLimiter, log *zap.Logger, fetcher fetch.FullTextFetcher) base {
	return base{
		name:     name,
		client:   &http.Client{Timeout: 30 * time.Second},
		permit:   newPermit(concurrency),
		limiter:  limiter,
		retryCfg: retry.Default,
		log:      log,
		fetcher:  fetcher,
	}
}

// gate acquires the concurrency permit and, if a rate limiter is
// configured, waits for its minimum-interval token before returning the
// release function the caller must defer.
func (b *base) gate(ctx context.Context) (func(), error) {
	if err := b.permit.acquire(ctx); err != nil {
		return nil, err
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			b.permit.release()
			return nil, err
		}
	}
	return b.permit.release, nil
}

// doRequest executes req with the adapter's retry policy, retrying on
// network error, 5xx, and 429; any other non-2xx status degrades to a
// nil response with no error (fatal 4xx → empty result upstream).
func (b *base) doRequest(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	type respResult struct {
		resp *http.Response
		body []byte
	}
	attempt := 0
	result, err := retry.Do(ctx, b.log, b.retryCfg, isRetryableStatus, func() (respResult, error) {
		b.recordAttempt(attempt)
		attempt++
		resp, err := b.client.Do(req.Clone(ctx))
		if err != nil {
			return respResult{}, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return respResult{}, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return respResult{}, &statusError{resp.StatusCode}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return respResult{}, nil
		}
		return respResult{resp: resp, body: body}, nil
	})
	b.recordOutcome(err)
	if err != nil {
		return nil, nil, err
	}
	return result.resp, result.body, nil
}

// recordAttempt increments BackendRetries for every call beyond the
// first; a no-op when b.metrics is nil.
func (b *base) recordAttempt(attempt int) {
	if b.metrics == nil {
		return
	}
	if attempt > 0 {
		b.metrics.BackendRetries.WithLabelValues(b.name).Inc()
	}
}

// recordOutcome increments BackendRequests once per doRequest/
// doRequestJSON call, labeled by whether it ultimately succeeded.
func (b *base) recordOutcome(err error) {
	if b.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	b.metrics.BackendRequests.WithLabelValues(b.name, outcome).Inc()
}

// doRequestJSON executes req under the same retry policy as doRequest,
// but decodes the body into a fresh T inside the retried closure: a
// json.Unmarshal failure on a truncated or garbled body is treated as
// just as retryable as a network error or 5xx, instead of being decoded
// once after doRequest's retry loop has already given up. Grounded on
// original_source/academic_claim_analyzer/search/core_search.py, which
// raises on a JSON decode failure from inside its own retry loop so the
// request is reattempted rather than permanently yielding zero results.
func doRequestJSON[T any](ctx context.Context, b *base, req *http.Request) (*T, error) {
	attempt := 0
	out, err := retry.Do(ctx, b.log, b.retryCfg, isRetryableStatus, func() (*T, error) {
		b.recordAttempt(attempt)
		attempt++
		resp, err := b.client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &statusError{resp.StatusCode}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return new(T), nil
		}
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return &v, nil
	})
	b.recordOutcome(err)
	return out, err
}

type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }

func isRetryableStatus(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return err != nil
}

// enrich fetches full text for target (a DOI or URL chosen by the
// calling adapter) via the configured fetcher. Fetch failure is
// non-fatal: it returns an empty string rather than an error.
func (b *base) enrich(ctx context.Context, target string, minWords int) string {
	if b.fetcher == nil || target == "" {
		return ""
	}
	text, err := b.fetcher.Fetch(ctx, target, minWords)
	if err != nil {
		return ""
	}
	return text
}
