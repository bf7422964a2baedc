package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec

	// Quota metrics
	QuotaDecisionsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "styleai"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		GenerationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "studio",
				Name:      "generations_total",
				Help:      "Total number of generation requests by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		GenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "studio",
				Name:      "generation_duration_seconds",
				Help:      "Provider generation duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"kind"},
		),
		QuotaDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quota",
				Name:      "decisions_total",
				Help:      "Quota gate decisions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGeneration records a generation attempt.
func (m *Metrics) RecordGeneration(kind, status string, duration time.Duration) {
	m.GenerationsTotal.WithLabelValues(kind, status).Inc()
	m.GenerationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordQuotaDecision records a quota gate decision.
func (m *Metrics) RecordQuotaDecision(operation, outcome string) {
	m.QuotaDecisionsTotal.WithLabelValues(operation, outcome).Inc()
}
