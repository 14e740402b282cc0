// Package metrics holds process-wide Prometheus metrics; per-module metrics
// live next to their modules.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides HTTP-level observability.
type Metrics struct {
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates and registers all platform metrics.
func New() *Metrics {
	return &Metrics{
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driveflow_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, path and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path", "status"}),

		HTTPInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "driveflow_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
	}
}
