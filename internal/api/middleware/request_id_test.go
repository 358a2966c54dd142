package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		existingID string
	}{
		{name: "generates an ID for a fresh /v1/filter call", existingID: ""},
		{name: "preserves an ID forwarded by a gateway", existingID: "gw-request-id-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenInContext string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenInContext = GetRequestID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/v1/filter", nil)
			if tt.existingID != "" {
				req.Header.Set(RequestIDHeader, tt.existingID)
			}
			rec := httptest.NewRecorder()

			RequestIDMiddleware(handler).ServeHTTP(rec, req)

			if seenInContext == "" {
				t.Fatal("handler saw no request ID in context")
			}
			if tt.existingID != "" && seenInContext != tt.existingID {
				t.Errorf("context request ID = %q, want %q", seenInContext, tt.existingID)
			}

			headerID := rec.Header().Get(RequestIDHeader)
			if headerID != seenInContext {
				t.Errorf("response header %q != context value %q", headerID, seenInContext)
			}
		})
	}
}

func TestRequestIDMiddleware_SameIDAcrossHandlersInChain(t *testing.T) {
	var first, second string

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = GetRequestID(r.Context())
		second = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/match", nil)
	rec := httptest.NewRecorder()

	RequestIDMiddleware(inner).ServeHTTP(rec, req)

	if first == "" || first != second {
		t.Errorf("request ID not stable across the handler chain: %q vs %q", first, second)
	}
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/querify", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty request ID outside the middleware chain, got %q", id)
	}
}
