// Package server assembles the selector engine's HTTP surface: the
// /v1/filter, /v1/match, /v1/querify routes, the /v1/filter/stream
// WebSocket upgrade, and the operational endpoints (/healthz, /metrics),
// wrapped in the teacher's middleware stack and graceful-shutdown idiom.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitaliisemenov/selector-engine/internal/api/handlers"
	"github.com/vitaliisemenov/selector-engine/internal/api/middleware"
	"github.com/vitaliisemenov/selector-engine/internal/realtime"
)

// Config controls which middleware and routes NewRouter wires in.
type Config struct {
	EnableRateLimit   bool
	EnableCompression bool
	EnableCORS        bool
	EnableMetrics     bool

	RateLimitPerMinute int
	RateLimitBurst     int

	CORSConfig middleware.CORSConfig

	// Registry backs the /metrics endpoint. A nil Registry falls back to
	// the default Prometheus registry.
	Registry *prometheus.Registry

	Logger *slog.Logger
}

// DefaultConfig returns sane defaults: every optional middleware on, 100
// requests/min per client with a burst of 20.
func DefaultConfig(logger *slog.Logger) Config {
	return Config{
		EnableRateLimit:    true,
		EnableCompression:  true,
		EnableCORS:         true,
		EnableMetrics:      true,
		RateLimitPerMinute: 100,
		RateLimitBurst:     20,
		CORSConfig:         middleware.DefaultCORSConfig(),
		Logger:             logger,
	}
}

// NewRouter builds the mux.Router for the selector engine.
//
// Global middleware order: RequestID, Logging, Metrics, CORS, Compression.
// Rate limiting applies only to the three query endpoints, not to /healthz
// or /metrics.
func NewRouter(cfg Config, eng *handlers.Engine, bus *realtime.DefaultEventBus) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware(cfg.Logger))

	if cfg.EnableMetrics {
		var registerer prometheus.Registerer = prometheus.DefaultRegisterer
		if cfg.Registry != nil {
			registerer = cfg.Registry
		}
		httpMetrics := middleware.NewHTTPMetrics(registerer)
		router.Use(httpMetrics.Middleware)
	}
	if cfg.EnableCORS {
		router.Use(middleware.CORSMiddleware(cfg.CORSConfig))
	}
	if cfg.EnableCompression {
		router.Use(middleware.CompressionMiddleware)
	}

	api := router.PathPrefix("/v1").Subrouter()
	if cfg.EnableRateLimit {
		api.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst))
	}
	api.HandleFunc("/filter", eng.Filter).Methods(http.MethodPost)
	api.HandleFunc("/match", eng.Match).Methods(http.MethodPost)
	api.HandleFunc("/querify", eng.Querify).Methods(http.MethodPost)

	router.HandleFunc("/v1/filter/stream", NewStreamHandler(bus, cfg.Logger)).Methods(http.MethodGet)

	router.HandleFunc("/healthz", HealthCheckHandler(cfg.Logger)).Methods(http.MethodGet)

	if cfg.EnableMetrics {
		if cfg.Registry != nil {
			router.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
		} else {
			router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
		}
	}

	return router
}

// HealthCheckHandler reports liveness. The selector engine has no required
// backing store, so "healthy" means only that the process is serving.
func HealthCheckHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{"status": "healthy"}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode health response", "error", err)
		}
	}
}
