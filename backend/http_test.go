package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/antflydb/scholarsearch/healthz"
	"github.com/antflydb/scholarsearch/retry"
)

func TestIsRetryableStatusRetriesOnRateLimitAndServerError(t *testing.T) {
	if !isRetryableStatus(&statusError{code: http.StatusTooManyRequests}) {
		t.Error("expected 429 to be retryable")
	}
	if !isRetryableStatus(&statusError{code: http.StatusServiceUnavailable}) {
		t.Error("expected 503 to be retryable")
	}
}

func TestIsRetryableStatusTreatsNetworkErrorsAsRetryable(t *testing.T) {
	if !isRetryableStatus(errors.New("connection reset")) {
		t.Error("expected a plain network error to be retryable")
	}
}

func TestIsRetryableStatusNilIsNotRetryable(t *testing.T) {
	if isRetryableStatus(nil) {
		t.Error("expected nil error to be non-retryable (nothing to retry)")
	}
}

func TestIsRetryableStatusFatalStatusIsNotRetryable(t *testing.T) {
	if isRetryableStatus(&statusError{code: http.StatusNotFound}) {
		t.Error("expected 404 to be non-retryable")
	}
}

type doRequestJSONResult struct {
	Count int `json:"count"`
}

// A single transient truncated/garbled body must be retried rather than
// permanently yielding a parse failure, matching doRequest's existing
// treatment of network errors and 5xx/429 statuses.
func TestDoRequestJSONRetriesOnMalformedBody(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.Write([]byte(`{"count": `)) // truncated JSON
			return
		}
		w.Write([]byte(`{"count": 7}`))
	}))
	defer srv.Close()

	b := &base{
		client:   srv.Client(),
		retryCfg: retry.Config{MaxRetries: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, JitterRatio: 0},
	}
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	result, err := doRequestJSON[doRequestJSONResult](context.Background(), b, req)
	if err != nil {
		t.Fatalf("doRequestJSON() error = %v, want nil after retrying past the malformed attempts", err)
	}
	if result.Count != 7 {
		t.Errorf("result.Count = %d, want 7", result.Count)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3 (2 malformed + 1 success)", attempts.Load())
	}
}

func TestDoRequestJSONGivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	b := &base{
		client:   srv.Client(),
		retryCfg: retry.Config{MaxRetries: 2, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, JitterRatio: 0},
	}
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	_, err := doRequestJSON[doRequestJSONResult](context.Background(), b, req)
	if err == nil {
		t.Fatal("expected an error once retries are exhausted against a permanently malformed body")
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3 (1 initial + 2 retries)", attempts.Load())
	}
}

// A SetMetrics call wired by the orchestrator must make doRequestJSON
// record one retry per retried attempt and exactly one request outcome
// per call, regardless of how many attempts it took.
func TestDoRequestJSONRecordsMetrics(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.Write([]byte(`{"count": `))
			return
		}
		w.Write([]byte(`{"count": 7}`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	metrics := healthz.NewMetrics(reg)
	b := &base{
		name:     "test-backend",
		client:   srv.Client(),
		retryCfg: retry.Config{MaxRetries: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, JitterRatio: 0},
		metrics:  metrics,
	}
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	if _, err := doRequestJSON[doRequestJSONResult](context.Background(), b, req); err != nil {
		t.Fatalf("doRequestJSON() error = %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	var retries, requests float64
	for _, f := range families {
		switch f.GetName() {
		case "scholarsearch_backend_retries_total":
			for _, m := range f.GetMetric() {
				retries += m.GetCounter().GetValue()
			}
		case "scholarsearch_backend_requests_total":
			for _, m := range f.GetMetric() {
				requests += m.GetCounter().GetValue()
			}
		}
	}
	if retries != 2 {
		t.Errorf("BackendRetries = %v, want 2 (the two malformed attempts)", retries)
	}
	if requests != 1 {
		t.Errorf("BackendRequests = %v, want 1 (one outcome recorded per doRequestJSON call)", requests)
	}
}
