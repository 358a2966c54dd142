package selector

import (
	"context"
	"log/slog"
	"net/netip"
	"strings"

	"github.com/gaissmai/bart"
)

// filterByPresence implements the common leaf filter shape described in
// component B: a subject missing the required attribute is yielded
// Uncertain; otherwise it is included iff match returns true.
func filterByPresence(subjects []*Subject, present func(*Subject) bool, match func(*Subject) bool) []Verdict {
	out := make([]Verdict, 0, len(subjects))
	for _, s := range subjects {
		if !present(s) {
			out = append(out, Uncertain(s))
			continue
		}
		if match(s) {
			out = append(out, Certain(s))
		}
	}
	return out
}

// ---- Glob ----------------------------------------------------------------

// GlobRule matches a subject's id against a shell-glob pattern.
type GlobRule struct{ expr string }

// NewGlobRule builds a Glob leaf. The glob pattern is not validated at
// construction since globToRegexpSource never fails; any whitespace is
// normalized by the parser before the expr reaches here.
func NewGlobRule(expr string) *GlobRule { return &GlobRule{expr: expr} }

func (r *GlobRule) Kind() string  { return "glob" }
func (r *GlobRule) Priority() int { return PriorityGlob }
func (r *GlobRule) Expr() string  { return r.expr }
func (r *GlobRule) String() string { return r.expr }

func (r *GlobRule) Equal(other Rule) bool {
	o, ok := other.(*GlobRule)
	return ok && o.expr == r.expr
}

func (r *GlobRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasID() {
		opts.logger().Warn("glob rule: subject missing id", slog.String("expr", r.expr))
		return false
	}
	ok, err := globMatch(opts.cache(), r.expr, s.IDValue())
	if err != nil {
		opts.logger().Warn("glob rule: match error", slog.String("expr", r.expr), slog.Any("error", err))
		return false
	}
	return ok
}

func (r *GlobRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	return filterByPresence(subjects, (*Subject).HasID, func(s *Subject) bool { return r.Match(ctx, opts, s) }), nil
}

// ---- PCRE -----------------------------------------------------------------

// PCRERule matches a subject's id against an anchored regular expression.
type PCRERule struct{ expr string }

// NewPCRERule validates expr compiles as a regular expression immediately,
// so Match/Filter never need to surface a compile error (they return bool
// and []Verdict respectively, with errors reserved for construction time).
func NewPCRERule(opts *Options, expr string) (*PCRERule, error) {
	if _, err := compiledPCRE(opts.cache(), expr); err != nil {
		return nil, err
	}
	return &PCRERule{expr: expr}, nil
}

func (r *PCRERule) Kind() string   { return "pcre" }
func (r *PCRERule) Priority() int  { return PriorityPCRE }
func (r *PCRERule) Expr() string   { return r.expr }
func (r *PCRERule) String() string { return r.expr }

func (r *PCRERule) Equal(other Rule) bool {
	o, ok := other.(*PCRERule)
	return ok && o.expr == r.expr
}

func (r *PCRERule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasID() {
		opts.logger().Warn("pcre rule: subject missing id", slog.String("expr", r.expr))
		return false
	}
	ok, err := pcreMatch(opts.cache(), r.expr, s.IDValue())
	if err != nil {
		opts.logger().Warn("pcre rule: match error", slog.String("expr", r.expr), slog.Any("error", err))
		return false
	}
	return ok
}

func (r *PCRERule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	return filterByPresence(subjects, (*Subject).HasID, func(s *Subject) bool { return r.Match(ctx, opts, s) }), nil
}

// ---- Grain ----------------------------------------------------------------

// GrainRule matches a subject's grains via a delimiter-aware nested glob.
type GrainRule struct {
	expr  string
	delim byte
}

func NewGrainRule(expr string, delim byte) *GrainRule { return &GrainRule{expr: expr, delim: delim} }

func (r *GrainRule) Kind() string   { return "grain" }
func (r *GrainRule) Priority() int  { return PriorityGrain }
func (r *GrainRule) Expr() string   { return r.expr }
func (r *GrainRule) String() string { return r.expr }

func (r *GrainRule) Equal(other Rule) bool {
	o, ok := other.(*GrainRule)
	return ok && o.expr == r.expr && o.delim == r.delim
}

func (r *GrainRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasGrains() {
		opts.logger().Warn("grain rule: subject missing grains", slog.String("expr", r.expr))
		return false
	}
	ok, err := globMatchNested(opts.cache(), r.expr, map[string]any(s.Grains), r.delim)
	if err != nil {
		opts.logger().Warn("grain rule: match error", slog.String("expr", r.expr), slog.Any("error", err))
		return false
	}
	return ok
}

func (r *GrainRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	return filterByPresence(subjects, (*Subject).HasGrains, func(s *Subject) bool { return r.Match(ctx, opts, s) }), nil
}

// ---- Pillar ----------------------------------------------------------------

// PillarRule matches a subject's pillar via a delimiter-aware nested glob.
type PillarRule struct {
	expr  string
	delim byte
}

func NewPillarRule(expr string, delim byte) *PillarRule {
	return &PillarRule{expr: expr, delim: delim}
}

func (r *PillarRule) Kind() string   { return "pillar" }
func (r *PillarRule) Priority() int  { return PriorityPillar }
func (r *PillarRule) Expr() string   { return r.expr }
func (r *PillarRule) String() string { return r.expr }

func (r *PillarRule) Equal(other Rule) bool {
	o, ok := other.(*PillarRule)
	return ok && o.expr == r.expr && o.delim == r.delim
}

func (r *PillarRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasPillar() {
		opts.logger().Warn("pillar rule: subject missing pillar", slog.String("expr", r.expr))
		return false
	}
	ok, err := globMatchNested(opts.cache(), r.expr, map[string]any(s.Pillar), r.delim)
	if err != nil {
		opts.logger().Warn("pillar rule: match error", slog.String("expr", r.expr), slog.Any("error", err))
		return false
	}
	return ok
}

func (r *PillarRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	return filterByPresence(subjects, (*Subject).HasPillar, func(s *Subject) bool { return r.Match(ctx, opts, s) }), nil
}

// ---- GrainPCRE --------------------------------------------------------------

// GrainPCRERule matches a subject's grains via a delimiter-aware nested,
// anchored regular expression.
type GrainPCRERule struct {
	expr  string
	delim byte
}

// NewGrainPCRERule validates that the trailing regex component compiles.
func NewGrainPCRERule(opts *Options, expr string, delim byte) (*GrainPCRERule, error) {
	parts := strings.Split(expr, string(delim))
	if len(parts) < 2 {
		return nil, malformedExpressionf("grain_pcre expression %q has no delimiter %q", expr, string(delim))
	}
	if _, err := compiledPCRE(opts.cache(), parts[len(parts)-1]); err != nil {
		return nil, err
	}
	return &GrainPCRERule{expr: expr, delim: delim}, nil
}

func (r *GrainPCRERule) Kind() string   { return "grain_pcre" }
func (r *GrainPCRERule) Priority() int  { return PriorityGrainPCRE }
func (r *GrainPCRERule) Expr() string   { return r.expr }
func (r *GrainPCRERule) String() string { return r.expr }

func (r *GrainPCRERule) Equal(other Rule) bool {
	o, ok := other.(*GrainPCRERule)
	return ok && o.expr == r.expr && o.delim == r.delim
}

func (r *GrainPCRERule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasGrains() {
		opts.logger().Warn("grain_pcre rule: subject missing grains", slog.String("expr", r.expr))
		return false
	}
	ok, err := pcreMatchNested(opts.cache(), r.expr, map[string]any(s.Grains), r.delim)
	if err != nil {
		opts.logger().Warn("grain_pcre rule: match error", slog.String("expr", r.expr), slog.Any("error", err))
		return false
	}
	return ok
}

func (r *GrainPCRERule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	return filterByPresence(subjects, (*Subject).HasGrains, func(s *Subject) bool { return r.Match(ctx, opts, s) }), nil
}

// ---- LocalStore -------------------------------------------------------------

// LocalStoreRule matches a subject's local data store via a delimiter-aware
// nested glob.
type LocalStoreRule struct {
	expr  string
	delim byte
}

func NewLocalStoreRule(expr string, delim byte) *LocalStoreRule {
	return &LocalStoreRule{expr: expr, delim: delim}
}

func (r *LocalStoreRule) Kind() string   { return "local_store" }
func (r *LocalStoreRule) Priority() int  { return PriorityLocalStore }
func (r *LocalStoreRule) Expr() string   { return r.expr }
func (r *LocalStoreRule) String() string { return r.expr }

func (r *LocalStoreRule) Equal(other Rule) bool {
	o, ok := other.(*LocalStoreRule)
	return ok && o.expr == r.expr && o.delim == r.delim
}

func (r *LocalStoreRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasData() {
		opts.logger().Warn("local_store rule: subject missing data", slog.String("expr", r.expr))
		return false
	}
	ok, err := globMatchNested(opts.cache(), r.expr, map[string]any(s.Data), r.delim)
	if err != nil {
		opts.logger().Warn("local_store rule: match error", slog.String("expr", r.expr), slog.Any("error", err))
		return false
	}
	return ok
}

func (r *LocalStoreRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	return filterByPresence(subjects, (*Subject).HasData, func(s *Subject) bool { return r.Match(ctx, opts, s) }), nil
}

// ---- SubnetIP ---------------------------------------------------------------

// SubnetIPRule matches a subject's ipv4 addresses against a literal address
// or CIDR network.
type SubnetIPRule struct{ expr string }

// NewSubnetIPRule validates expr parses as an address or CIDR.
func NewSubnetIPRule(expr string) (*SubnetIPRule, error) {
	if _, _, _, err := ipCIDRTable(expr); err != nil {
		return nil, err
	}
	return &SubnetIPRule{expr: expr}, nil
}

func (r *SubnetIPRule) Kind() string   { return "subnet_ip" }
func (r *SubnetIPRule) Priority() int  { return PrioritySubnetIP }
func (r *SubnetIPRule) Expr() string   { return r.expr }
func (r *SubnetIPRule) String() string { return r.expr }

func (r *SubnetIPRule) Equal(other Rule) bool {
	o, ok := other.(*SubnetIPRule)
	return ok && o.expr == r.expr
}

func (r *SubnetIPRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasIPv4() {
		opts.logger().Warn("subnet_ip rule: subject missing ipv4", slog.String("expr", r.expr))
		return false
	}
	ok, err := ipCIDRMatch(r.expr, s.IPv4)
	if err != nil {
		opts.logger().Warn("subnet_ip rule: match error", slog.String("expr", r.expr), slog.Any("error", err))
		return false
	}
	return ok
}

// Filter builds a single bart routing table for the rule's network once
// and reuses it across every subject's address list, instead of reparsing
// the CIDR per subject.
func (r *SubnetIPRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	prefix, literal, isLiteral, err := ipCIDRTable(r.expr)
	if err != nil {
		return nil, err
	}
	var table *bart.Table[struct{}]
	if !isLiteral {
		table = newSingleRouteTable(prefix)
	}
	match := func(s *Subject) bool {
		for _, candidate := range s.IPv4 {
			a, err := netip.ParseAddr(candidate)
			if err != nil {
				continue
			}
			if isLiteral {
				if a == literal {
					return true
				}
				continue
			}
			if table.Contains(a) {
				return true
			}
		}
		return false
	}
	return filterByPresence(subjects, (*Subject).HasIPv4, match), nil
}

// ---- Exsel ------------------------------------------------------------------

// ExselRule matches a subject via a named nullary function it exposes.
type ExselRule struct{ expr string }

func NewExselRule(expr string) *ExselRule { return &ExselRule{expr: expr} }

func (r *ExselRule) Kind() string   { return "exsel" }
func (r *ExselRule) Priority() int  { return PriorityExsel }
func (r *ExselRule) Expr() string   { return r.expr }
func (r *ExselRule) String() string { return r.expr }

func (r *ExselRule) Equal(other Rule) bool {
	o, ok := other.(*ExselRule)
	return ok && o.expr == r.expr
}

func (r *ExselRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasFunctions() {
		opts.logger().Warn("exsel rule: subject missing functions", slog.String("expr", r.expr))
		return false
	}
	fn, ok := s.Functions[r.expr]
	if !ok || fn == nil {
		return false
	}
	return fn()
}

func (r *ExselRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	return filterByPresence(subjects, (*Subject).HasFunctions, func(s *Subject) bool { return r.Match(ctx, opts, s) }), nil
}

// ---- YahooRange ---------------------------------------------------------------

// YahooRangeRule matches a subject's fqdn against the membership set
// returned by a RangeProvider for expr.
type YahooRangeRule struct{ expr string }

func NewYahooRangeRule(expr string) *YahooRangeRule { return &YahooRangeRule{expr: expr} }

func (r *YahooRangeRule) Kind() string   { return "yahoo_range" }
func (r *YahooRangeRule) Priority() int  { return PriorityYahooRange }
func (r *YahooRangeRule) Expr() string   { return r.expr }
func (r *YahooRangeRule) String() string { return r.expr }

func (r *YahooRangeRule) Equal(other Rule) bool {
	o, ok := other.(*YahooRangeRule)
	return ok && o.expr == r.expr
}

func (r *YahooRangeRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	if !s.HasFQDN() || opts.RangeProvider == nil {
		opts.logger().Warn("yahoo_range rule: subject missing fqdn or no provider configured", slog.String("expr", r.expr))
		return false
	}
	members, err := opts.RangeProvider.Get(ctx, r.expr)
	if err != nil {
		opts.logger().Warn("yahoo_range rule: provider error", slog.String("expr", r.expr), slog.Any("error", err))
		return false
	}
	for _, m := range members {
		if m == s.FQDNValue() {
			return true
		}
	}
	return false
}

// Filter is batched: it issues a single RangeProvider.Get call for the
// whole candidate set, rather than one per subject.
func (r *YahooRangeRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	if opts.RangeProvider == nil {
		return nil, externalErrorf("yahoo_range rule %q: no range provider configured", r.expr)
	}
	members, err := opts.RangeProvider.Get(ctx, r.expr)
	if err != nil {
		return nil, externalErrorf("yahoo_range rule %q: %v", r.expr, err)
	}
	memberSet := make(map[string]struct{}, len(members))
	for _, m := range members {
		memberSet[m] = struct{}{}
	}
	return filterByPresence(subjects, (*Subject).HasFQDN, func(s *Subject) bool {
		_, ok := memberSet[s.FQDNValue()]
		return ok
	}), nil
}
