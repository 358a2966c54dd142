// Package handlers implements the HTTP surface of the selector engine:
// /v1/filter, /v1/match, and /v1/querify, adapted from the teacher's
// cmd/server/handlers request/response idiom (plain structs, encoding/json,
// apierrors.WriteError on failure) onto internal/selector's Query/Subject
// API.
package handlers

import (
	"log/slog"

	"github.com/vitaliisemenov/selector-engine/internal/metrics"
	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// Engine bundles the pieces a handler needs: the rule registry, the live
// subject pool, the base parse options, and metrics/logging.
type Engine struct {
	Query   *selector.Query
	Source  selector.SubjectSource
	Opts    *selector.Options
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewEngine builds an Engine. A nil logger defaults to slog.Default().
func NewEngine(query *selector.Query, source selector.SubjectSource, opts *selector.Options, m *metrics.Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Query: query, Source: source, Opts: opts, Metrics: m, Logger: logger}
}

func (e *Engine) parseOptions(kind string) []selector.Option {
	if kind == "" && e.Opts != nil && e.Opts.DefaultKind != "" {
		kind = e.Opts.DefaultKind
	}
	if kind == "" {
		return nil
	}
	return []selector.Option{selector.WithDefaultKind(kind)}
}
