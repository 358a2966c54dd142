package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics instruments the engine's HTTP surface: the three query
// endpoints (/v1/filter, /v1/match, /v1/querify) plus /healthz and
// /v1/filter/stream. Constructed against the same registry the /metrics
// endpoint serves, so these collectors actually show up there instead of
// silently landing on Go's global default registry.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	responseSize    *prometheus.HistogramVec
}

// NewHTTPMetrics registers the middleware's collectors against reg. A nil
// reg falls back to the global default registry.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "selector_engine_http_requests_total",
			Help: "Total number of HTTP requests, by method, endpoint and status",
		}, []string{"method", "endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "selector_engine_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by method and endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),

		requestsInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "selector_engine_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}, []string{"method", "endpoint"}),

		responseSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "selector_engine_http_response_size_bytes",
			Help:    "HTTP response size in bytes, by method and endpoint (a large /v1/filter match set shows up here)",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		}, []string{"method", "endpoint"}),
	}
}

// Middleware wraps next, recording the four HTTPMetrics collectors for
// every request.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		method, endpoint := r.Method, r.URL.Path

		m.requestsInFlight.WithLabelValues(method, endpoint).Inc()
		defer m.requestsInFlight.WithLabelValues(method, endpoint).Dec()

		rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		m.requestsTotal.WithLabelValues(method, endpoint, status).Inc()
		m.requestDuration.WithLabelValues(method, endpoint).Observe(duration)
		m.responseSize.WithLabelValues(method, endpoint).Observe(float64(rw.size))
	})
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}
