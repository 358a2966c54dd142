package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	apierrors "github.com/vitaliisemenov/selector-engine/internal/api/errors"
	"github.com/vitaliisemenov/selector-engine/internal/api/middleware"
	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// FilterRequest is the body of POST /v1/filter.
type FilterRequest struct {
	// Expr is the selector query text.
	Expr string `json:"expr" validate:"required"`

	// Kind overrides the default rule kind for prefix-less atoms. Empty
	// uses the engine's configured default ("glob" unless overridden).
	Kind string `json:"kind,omitempty"`

	// IncludeUncertain also returns subjects the rule could not evaluate
	// (missing the attribute it needed), alongside the certain matches.
	IncludeUncertain bool `json:"include_uncertain,omitempty"`
}

// FilterResponse is the body of a successful /v1/filter response.
type FilterResponse struct {
	Matched   []*selector.Subject `json:"matched"`
	Uncertain []*selector.Subject `json:"uncertain,omitempty"`
}

// Filter handles POST /v1/filter: parse the query, pull the current
// subject pool from Source, and return every subject the rule matches.
func (e *Engine) Filter(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req FilterRequest
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

	subjects, err := e.Source.Subjects(r.Context())
	if err != nil {
		apierrors.WriteError(w, apierrors.InternalError("failed to load subjects: "+err.Error()).WithRequestID(requestID))
		return
	}

	start := time.Now()
	verdicts, err := rule.Filter(r.Context(), e.Opts, subjects)
	duration := time.Since(start)
	if err != nil {
		e.Metrics.RecordFilter("error", duration, 0)
		apierrors.WriteError(w, apierrors.FromSelectorError(err).WithRequestID(requestID))
		return
	}

	resp := FilterResponse{}
	for _, v := range verdicts {
		if v.Doubt {
			if req.IncludeUncertain {
				resp.Uncertain = append(resp.Uncertain, v.Subject)
			}
			continue
		}
		resp.Matched = append(resp.Matched, v.Subject)
	}
	e.Metrics.RecordFilter("ok", duration, len(resp.Matched))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		e.Logger.Error("failed to encode filter response", "error", err, "request_id", requestID)
	}
}

func (e *Engine) defaultKindLabel(kind string) string {
	if kind != "" {
		return kind
	}
	return e.Opts.DefaultKind
}
