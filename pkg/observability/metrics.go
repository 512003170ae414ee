// Package observability provides Prometheus metrics for the chat relay.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gromo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gromo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Gateway metrics
	gatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gromo_gateway_calls_total",
			Help: "Total number of Groq completion calls by outcome",
		},
		[]string{"outcome"},
	)

	gatewayCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gromo_gateway_call_duration_seconds",
			Help:    "Groq completion call duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gromo_fallback_responses_total",
			Help: "Total number of fallback chat responses by gateway error code",
		},
		[]string{"code"},
	)

	initOnce  sync.Once
	gaugeOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			gatewayCallsTotal,
			gatewayCallDuration,
			fallbacksTotal,
		)
	})
}

// RegisterActiveConversations registers a gauge sampling the live
// session count from the store.
func RegisterActiveConversations(count func() int) {
	gaugeOnce.Do(func() {
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "gromo_active_conversations",
				Help: "Number of live conversation sessions",
			},
			func() float64 { return float64(count()) },
		))
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGatewayCall records one completion call; outcome is "success"
// or the gateway error code.
func RecordGatewayCall(outcome string, duration time.Duration) {
	gatewayCallsTotal.WithLabelValues(outcome).Inc()
	gatewayCallDuration.Observe(duration.Seconds())
}

// RecordFallback records a fallback response served for the given
// gateway error code.
func RecordFallback(code string) {
	fallbacksTotal.WithLabelValues(code).Inc()
}
