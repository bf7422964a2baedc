package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// createTestMetrics creates metrics with plain collectors so tests do not
// collide with the default registry.
func createTestMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "test_http_requests_total"},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "test_http_request_duration_seconds"},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "test_http_requests_in_flight"},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "test_generations_total"},
			[]string{"kind", "status"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "test_generation_duration_seconds"},
			[]string{"kind"},
		),
		QuotaDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "test_quota_decisions_total"},
			[]string{"operation", "outcome"},
		),
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	m := createTestMetrics()

	m.RecordHTTPRequest("POST", "/api/v1/studio/try-on", 200, 150*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/studio/try-on", 200, 250*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/usage", 503, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/studio/try-on", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/usage", "503")))
}

func TestRecordGeneration(t *testing.T) {
	m := createTestMetrics()

	m.RecordGeneration("try_on", "success", 3*time.Second)
	m.RecordGeneration("try_on", "provider_error", time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.GenerationsTotal.WithLabelValues("try_on", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.GenerationsTotal.WithLabelValues("try_on", "provider_error")))
}

func TestRecordQuotaDecision(t *testing.T) {
	m := createTestMetrics()

	m.RecordQuotaDecision("consume", "accepted")
	m.RecordQuotaDecision("consume", "accepted")
	m.RecordQuotaDecision("consume", "rejected")

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.QuotaDecisionsTotal.WithLabelValues("consume", "accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.QuotaDecisionsTotal.WithLabelValues("consume", "rejected")))
}

func TestInFlightGauge(t *testing.T) {
	m := createTestMetrics()

	m.HTTPRequestsInFlight.Inc()
	m.HTTPRequestsInFlight.Inc()
	m.HTTPRequestsInFlight.Dec()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsInFlight))
}
