package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration for the engine's HTTP API.
type CORSConfig struct {
	AllowedOrigins []string // allowed origins (["*"] for all)
	AllowedHeaders []string // allowed request headers
	ExposedHeaders []string // headers exposed to the browser
	MaxAge         int      // preflight cache duration (seconds)
}

// DefaultCORSConfig returns default CORS configuration. The selector engine
// only ever serves GET (/healthz, /metrics, /v1/filter/stream) and POST
// (/v1/filter, /v1/match, /v1/querify); there is no PUT/DELETE/PATCH route
// to allow, and no auth header concept to expose.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"Origin",
			RequestIDHeader,
		},
		ExposedHeaders: []string{
			RequestIDHeader,
			RateLimitLimitHeader,
			RateLimitRemainingHeader,
			RateLimitResetHeader,
		},
		MaxAge: 86400, // 24 hours
	}
}

// corsAllowedMethods is fixed rather than configurable: every route this
// router serves is GET or POST.
var corsAllowedMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")

// CORSMiddleware handles Cross-Origin Resource Sharing for browser-based
// callers (e.g. a dashboard polling /v1/filter directly). For production,
// restrict CORSConfig.AllowedOrigins to specific domains.
func CORSMiddleware(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && isOriginAllowed(origin, config.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else if isWildcard(config.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			if len(config.ExposedHeaders) > 0 {
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isWildcard(allowedOrigins []string) bool {
	return len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
}

// isOriginAllowed checks if origin is in allowedOrigins, supporting
// wildcard subdomains (e.g. "*.example.com").
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if domain, ok := strings.CutPrefix(allowed, "*."); ok && strings.HasSuffix(origin, "."+domain) {
			return true
		}
	}
	return false
}
