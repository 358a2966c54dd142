package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	apierrors "github.com/vitaliisemenov/selector-engine/internal/api/errors"
	"github.com/vitaliisemenov/selector-engine/internal/api/middleware"
	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// MatchRequest is the body of POST /v1/match.
type MatchRequest struct {
	Expr    string            `json:"expr" validate:"required"`
	Kind    string            `json:"kind,omitempty"`
	Subject *selector.Subject `json:"subject" validate:"required"`
}

// MatchResponse is the body of a successful /v1/match response.
type MatchResponse struct {
	Matched bool `json:"matched"`
}

// Match handles POST /v1/match: parse the query and evaluate it against a
// single subject supplied in the request body, rather than a pool pulled
// from Source.
func (e *Engine) Match(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, apierrors.ValidationError("invalid request body: "+err.Error()).WithRequestID(requestID))
		return
	}
	if err := middleware.ValidateStruct(req); err != nil {
		apiErr := apierrors.ValidationError("invalid request body").WithRequestID(requestID)
		apierrors.WriteError(w, apiErr.WithDetails(middleware.FormatValidationErrors(err)))
		return
	}

	rule, err := e.Query.Parse(req.Expr, e.parseOptions(req.Kind)...)
	if err != nil {
		e.Metrics.RecordQuery(e.defaultKindLabel(req.Kind), "error")
		apierrors.WriteError(w, apierrors.FromSelectorError(err).WithRequestID(requestID))
		return
	}
	e.Metrics.RecordQuery(e.defaultKindLabel(req.Kind), "ok")

	start := time.Now()
	matched := rule.Match(r.Context(), e.Opts, req.Subject)
	e.Metrics.RecordMatch("ok", time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(MatchResponse{Matched: matched}); err != nil {
		e.Logger.Error("failed to encode match response", "error", err, "request_id", requestID)
	}
}
