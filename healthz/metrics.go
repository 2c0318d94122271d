package healthz

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors shared across backend adapters
// and pipeline stages. Construct one instance per process and pass it down
// through the adapters/orchestrator rather than relying on package-level
// globals.
type Metrics struct {
	BackendRequests *prometheus.CounterVec
	BackendRetries  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
}

// NewMetrics registers the pipeline's collectors against reg and returns
// the handles used to record observations.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarsearch_backend_requests_total",
			Help: "Total requests issued to a scholarly backend adapter.",
		}, []string{"backend", "outcome"}),
		BackendRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarsearch_backend_retries_total",
			Help: "Total retry attempts issued to a scholarly backend adapter.",
		}, []string{"backend"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scholarsearch_pipeline_stage_duration_seconds",
			Help:    "Duration of a pipeline stage (search, adjudicate, rank).",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	reg.MustRegister(m.BackendRequests, m.BackendRetries, m.StageDuration)
	return m
}
