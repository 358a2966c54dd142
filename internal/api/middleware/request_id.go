package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDMiddleware stamps every /v1/filter, /v1/match, and /v1/querify
// call with a correlation ID, so a single query's parse error, metric, and
// access log line can all be tied back together.
//
// An inbound X-Request-ID is honored as-is (useful when the caller is
// itself a gateway propagating its own trace ID); otherwise a UUID is
// generated. Either way the ID is echoed back on the response and made
// available to handlers via GetRequestID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := resolveRequestID(r)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func resolveRequestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

// GetRequestID reads the correlation ID RequestIDMiddleware placed on ctx.
// Returns "" if the middleware never ran (e.g. a handler invoked directly
// from a test).
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
