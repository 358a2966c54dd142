package middleware

// Context keys for middleware-populated request data.
type contextKey string

// RequestIDContextKey is the context key RequestIDMiddleware stores the
// correlation ID under.
const RequestIDContextKey contextKey = "request_id"

// HTTP headers used by the middleware stack.
const (
	// RequestIDHeader is the header name for the correlation ID.
	RequestIDHeader = "X-Request-ID"

	// Rate-limit headers set by RateLimitMiddleware: Limit and Remaining on
	// every response it lets through, Reset only on a 429 rejection.
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)
