package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/vitaliisemenov/selector-engine/internal/api/errors"
	"github.com/vitaliisemenov/selector-engine/internal/api/middleware"
)

// QuerifyRequest is the body of POST /v1/querify.
type QuerifyRequest struct {
	Expr string `json:"expr" validate:"required"`
	Kind string `json:"kind,omitempty"`
}

// QuerifyResponse is the body of a successful /v1/querify response.
type QuerifyResponse struct {
	// Query is the canonical re-serialization of Expr: flattened and
	// deduplicated combinators in ascending priority order, the default
	// kind rendered bare and every other kind PREFIX@expr.
	Query string `json:"query"`
}

// Querify handles POST /v1/querify: parse the query and serialize the
// resulting rule tree back to selector text, normalizing it in the
// process.
func (e *Engine) Querify(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req QuerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, apierrors.ValidationError("invalid request body: "+err.Error()).WithRequestID(requestID))
		return
	}
	if err := middleware.ValidateStruct(req); err != nil {
		apiErr := apierrors.ValidationError("invalid request body").WithRequestID(requestID)
		apierrors.WriteError(w, apiErr.WithDetails(middleware.FormatValidationErrors(err)))
		return
	}

	opts := e.parseOptions(req.Kind)
	rule, err := e.Query.Parse(req.Expr, opts...)
	if err != nil {
		apierrors.WriteError(w, apierrors.FromSelectorError(err).WithRequestID(requestID))
		return
	}

	canonical, err := e.Query.Querify(rule, opts...)
	if err != nil {
		apierrors.WriteError(w, apierrors.FromSelectorError(err).WithRequestID(requestID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(QuerifyResponse{Query: canonical}); err != nil {
		e.Logger.Error("failed to encode querify response", "error", err, "request_id", requestID)
	}
}
