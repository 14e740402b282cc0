package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the request lifecycle module.
type Metrics struct {
	// Transition outcomes by action and result
	TransitionOutcome *prometheus.CounterVec

	// Compare-and-set retries inside the execute loop
	ConflictRetries prometheus.Counter

	// Overall execute latency including the retry loop
	ExecuteLatency prometheus.Histogram
}

// New creates a new Metrics instance with all request module metrics registered.
func New() *Metrics {
	return &Metrics{
		TransitionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "driveflow_request_transitions_total",
			Help: "Total workflow transitions by action and outcome",
		}, []string{"action", "outcome"}), // outcome: "applied", "forbidden", "illegal", "conflict", "error"

		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "driveflow_request_conflict_retries_total",
			Help: "Total optimistic-concurrency retries in the execute loop",
		}),

		ExecuteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "driveflow_request_execute_duration_seconds",
			Help:    "Duration of a full execute call including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementTransition records a transition attempt outcome.
func (m *Metrics) IncrementTransition(action, outcome string) {
	if m != nil {
		m.TransitionOutcome.WithLabelValues(action, outcome).Inc()
	}
}

// IncrementConflictRetry records one compare-and-set retry.
func (m *Metrics) IncrementConflictRetry() {
	if m != nil {
		m.ConflictRetries.Inc()
	}
}

// ObserveExecuteLatency records the total execute duration.
func (m *Metrics) ObserveExecuteLatency(d time.Duration) {
	if m != nil {
		m.ExecuteLatency.Observe(d.Seconds())
	}
}
