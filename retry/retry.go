// Package retry implements the exponential-backoff-with-jitter policy
// shared by every outbound call in the pipeline: backend search adapters,
// full-text fetches, and structured LLM calls. Grounded on
// anatolykoptev-go_job/internal/engine/retry.go's generic RetryDo shape,
// adapted to this repo's exact backoff constants and to zap logging.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Config controls one Do call.
type Config struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	JitterRatio float64
}

// Default mirrors the spec's retry constants: base 2s, cap 45s, jitter up
// to 50% of the base, five retries.
var Default = Config{
	MaxRetries:  5,
	BaseBackoff: 2 * time.Second,
	MaxBackoff:  45 * time.Second,
	JitterRatio: 0.5,
}

// backoff computes min(base*2^attempt, max) + uniform(0, base*jitterRatio).
func backoff(c Config, attempt int) time.Duration {
	wait := time.Duration(float64(c.BaseBackoff) * math.Pow(2, float64(attempt)))
	if wait > c.MaxBackoff {
		wait = c.MaxBackoff
	}
	jitter := time.Duration(rand.Float64() * float64(c.BaseBackoff) * c.JitterRatio)
	return wait + jitter
}

// Do retries fn up to c.MaxRetries times with exponential backoff and
// jitter, stopping early on context cancellation. isRetryable decides
// whether a given error is worth another attempt; a non-retryable error
// returns immediately. Callers that must never surface an error across
// their own boundary (adapters, fetchers) should translate a non-nil
// error from Do into a zero value plus nil, logging at the call site.
func Do[T any](ctx context.Context, log *zap.Logger, c Config, isRetryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if isRetryable != nil && !isRetryable(err) {
			return zero, err
		}

		if attempt < c.MaxRetries {
			wait := backoff(c, attempt)
			if log != nil {
				log.Debug("retrying after error",
					zap.Int("attempt", attempt+1),
					zap.Duration("wait", wait),
					zap.Error(err))
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, lastErr
}
