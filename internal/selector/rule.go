package selector

import (
	"context"
	"log/slog"

	"github.com/vitaliisemenov/selector-engine/internal/selectorcache"
)

// Priority constants, ascending cheapest-first. Lower priority rules run
// first within a combinator; this ordering is itself part of the public
// contract (observable via short-circuiting and via a counting provider).
const (
	PriorityGlob       = 10
	PriorityPCRE       = 20
	PrioritySubnetIP   = 30
	PriorityGrain      = 40
	PriorityPillar     = 40
	PriorityGrainPCRE  = 40
	PriorityLocalStore = 40
	PriorityYahooRange = 50
	PriorityExsel      = 60
	PriorityAll        = 70
	PriorityAny        = 80
)

// Rule is a node of the selector AST: either a leaf (one matching
// predicate) or a combinator (All/Any/Not). Rule trees are immutable after
// construction.
type Rule interface {
	// Kind names the rule's variant ("glob", "grain", "all", ...), used by
	// the registry for prefix/querify binding and by Equal for variant
	// comparison.
	Kind() string

	// Priority orders evaluation within a combinator; lower runs first.
	Priority() int

	// Filter reads only the attribute it needs from each subject. A
	// subject missing that attribute is yielded as Uncertain; otherwise it
	// is included iff Match would return true.
	Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error)

	// Match reads the required attribute directly; absence returns false
	// and logs a warning via opts.logger().
	Match(ctx context.Context, opts *Options, s *Subject) bool

	// Equal reports whether two rules are the same variant with the same
	// operative attributes (expr, delim, nested rules). Used to deduplicate
	// combinator children.
	Equal(other Rule) bool

	// String renders the rule without any "X@" prefix: a leaf gives its raw
	// expr, All/Any join their children with " and "/" or " (no
	// parentheses), and Not prepends "not ". Prefixed output is the
	// registry's Querify's job. Used for debugging and for secondary
	// sort-order tie-breaks.
	String() string
}

// exprRule is implemented by every leaf so the registry's querify can
// recover the raw expr text without a type switch per kind.
type exprRule interface {
	Rule
	Expr() string
}

// Options carries per-parse configuration: the rule kind used for
// prefix-less atoms, the nested-lookup delimiter, the macro table for N@,
// an injected RangeProvider for R@, a shared pattern cache, and a logger
// for match-time missing-attribute warnings.
type Options struct {
	DefaultKind   string
	Delim         byte
	Macros        Macros
	RangeProvider RangeProvider
	Cache         *selectorcache.Cache
	Logger        *slog.Logger
}

// DefaultOptions returns the registry's baseline options: Glob as the
// default kind, ':' as the delimiter, no macros, no range provider, a
// package-default pattern cache, and slog.Default() as the logger.
func DefaultOptions() *Options {
	return &Options{
		DefaultKind: "glob",
		Delim:       ':',
		Macros:      Macros{},
		Cache:       selectorcache.New(0),
		Logger:      slog.Default(),
	}
}

// Option mutates Options in place; used as a functional-option argument to
// Query.Parse and Query.ParseShortcut so a single call can override macros,
// delimiter, default kind, or range provider without constructing a whole
// Options value.
type Option func(*Options)

// WithDelim overrides the nested-lookup delimiter.
func WithDelim(d byte) Option { return func(o *Options) { o.Delim = d } }

// WithDefaultKind overrides the rule kind used for prefix-less atoms.
func WithDefaultKind(kind string) Option { return func(o *Options) { o.DefaultKind = kind } }

// WithMacros overrides the macro table consulted by N@.
func WithMacros(m Macros) Option { return func(o *Options) { o.Macros = m } }

// WithRangeProvider injects the collaborator backing R@.
func WithRangeProvider(p RangeProvider) Option { return func(o *Options) { o.RangeProvider = p } }

// WithLogger overrides the logger used for match-time warnings.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

func (o *Options) clone() *Options {
	cp := *o
	return &cp
}

func (o *Options) apply(opts ...Option) *Options {
	cp := o.clone()
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

func (o *Options) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) cache() *selectorcache.Cache {
	if o == nil {
		return nil
	}
	return o.Cache
}

func (o *Options) delim() byte {
	if o == nil || o.Delim == 0 {
		return ':'
	}
	return o.Delim
}
