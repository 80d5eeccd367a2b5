// Package metrics provides observability for the validation pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts pipeline outcomes. A nil *Metrics is a no-op, so
// callers never need to guard.
type Metrics struct {
	// Final decisions by status and document type
	Decisions *prometheus.CounterVec

	// Validator stage faults by stage name
	StageFaults *prometheus.CounterVec

	// Judgement cache hits and misses
	CacheLookups *prometheus.CounterVec

	// Full run latency
	RunLatency prometheus.Histogram
}

// New creates a Metrics instance with all pipeline metrics registered
// on the default registry.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_decisions_total",
			Help: "Final validation decisions by status and document type",
		}, []string{"status", "doc_type"}),

		StageFaults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_stage_faults_total",
			Help: "Validator stages that failed to complete, by stage",
		}, []string{"stage"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_judgement_cache_lookups_total",
			Help: "Judgement cache lookups by result (hit/miss)",
		}, []string{"result"}),

		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veridoc_run_duration_seconds",
			Help:    "Duration of one full validation run including model calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// IncrementDecision records a final decision
func (m *Metrics) IncrementDecision(status, docType string) {
	if m != nil {
		m.Decisions.WithLabelValues(status, docType).Inc()
	}
}

// IncrementStageFault records a faulted validator stage
func (m *Metrics) IncrementStageFault(stage string) {
	if m != nil {
		m.StageFaults.WithLabelValues(stage).Inc()
	}
}

// IncrementCacheLookup records a judgement cache lookup
func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveRunLatency records the duration of one pipeline run
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}

// Serve exposes /metrics on addr. Blocks until the listener fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
