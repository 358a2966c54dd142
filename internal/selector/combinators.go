package selector

import (
	"context"
	"sort"
)

// normalizeChildren flattens nested combinators of the same kind into a
// single slice, deduplicates structurally-equal rules, and sorts by
// ascending priority with a stringified tie-break, per the All/Any
// construction invariants.
func normalizeChildren(kind string, rules []Rule) []Rule {
	var flat []Rule
	for _, r := range rules {
		if r == nil {
			continue
		}
		if r.Kind() == kind {
			switch kind {
			case "all":
				flat = append(flat, r.(*AllRule).rules...)
			case "any":
				flat = append(flat, r.(*AnyRule).rules...)
			}
			continue
		}
		flat = append(flat, r)
	}
	var deduped []Rule
	for _, r := range flat {
		dup := false
		for _, existing := range deduped {
			if existing.Equal(r) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, r)
		}
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Priority() != deduped[j].Priority() {
			return deduped[i].Priority() < deduped[j].Priority()
		}
		return deduped[i].String() < deduped[j].String()
	})
	return deduped
}

// ---- All --------------------------------------------------------------------

// AllRule is the intersection combinator: match is the conjunction of its
// children; filter restricts the working set child by child in priority
// order, preserving uncertain members.
type AllRule struct{ rules []Rule }

// NewAll builds an All combinator, flattening nested Alls and deduplicating
// structurally-equal children.
func NewAll(rules ...Rule) *AllRule {
	return &AllRule{rules: normalizeChildren("all", rules)}
}

func (r *AllRule) Kind() string    { return "all" }
func (r *AllRule) Priority() int   { return PriorityAll }
func (r *AllRule) Rules() []Rule   { return r.rules }

func (r *AllRule) String() string {
	s := ""
	for i, child := range r.rules {
		if i > 0 {
			s += " and "
		}
		s += child.String()
	}
	return s
}

func (r *AllRule) Equal(other Rule) bool {
	o, ok := other.(*AllRule)
	if !ok || len(o.rules) != len(r.rules) {
		return false
	}
	for i, child := range r.rules {
		if !child.Equal(o.rules[i]) {
			return false
		}
	}
	return true
}

func (r *AllRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	for _, child := range r.rules {
		if !child.Match(ctx, opts, s) {
			return false
		}
	}
	return true
}

func (r *AllRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	certain := subjects
	var uncertain []Verdict
	for _, child := range r.rules {
		if len(certain) == 0 {
			break
		}
		res, err := child.Filter(ctx, opts, certain)
		if err != nil {
			return nil, err
		}
		next := make([]*Subject, 0, len(res))
		for _, v := range res {
			if v.Doubt {
				uncertain = append(uncertain, v)
			} else {
				next = append(next, v.Subject)
			}
		}
		certain = next
	}
	out := make([]Verdict, 0, len(certain)+len(uncertain))
	for _, s := range certain {
		out = append(out, Certain(s))
	}
	out = append(out, uncertain...)
	return out, nil
}

// ---- Any --------------------------------------------------------------------

// AnyRule is the union combinator: match is the disjunction of its
// children; filter emits every child's result against the shrinking
// remainder, in priority order.
type AnyRule struct{ rules []Rule }

// NewAny builds an Any combinator, flattening nested Anys and deduplicating
// structurally-equal children.
func NewAny(rules ...Rule) *AnyRule {
	return &AnyRule{rules: normalizeChildren("any", rules)}
}

func (r *AnyRule) Kind() string  { return "any" }
func (r *AnyRule) Priority() int { return PriorityAny }
func (r *AnyRule) Rules() []Rule { return r.rules }

func (r *AnyRule) String() string {
	s := ""
	for i, child := range r.rules {
		if i > 0 {
			s += " or "
		}
		s += child.String()
	}
	return s
}

func (r *AnyRule) Equal(other Rule) bool {
	o, ok := other.(*AnyRule)
	if !ok || len(o.rules) != len(r.rules) {
		return false
	}
	for i, child := range r.rules {
		if !child.Equal(o.rules[i]) {
			return false
		}
	}
	return true
}

func (r *AnyRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	for _, child := range r.rules {
		if child.Match(ctx, opts, s) {
			return true
		}
	}
	return false
}

func (r *AnyRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	remaining := subjects
	var out []Verdict
	for _, child := range r.rules {
		if len(remaining) == 0 {
			break
		}
		res, err := child.Filter(ctx, opts, remaining)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
		if len(res) == 0 {
			continue
		}
		touched := make(map[*Subject]struct{}, len(res))
		for _, v := range res {
			touched[v.Subject] = struct{}{}
		}
		next := make([]*Subject, 0, len(remaining))
		for _, s := range remaining {
			if _, ok := touched[s]; !ok {
				next = append(next, s)
			}
		}
		remaining = next
	}
	return out, nil
}

// ---- Not --------------------------------------------------------------------

// NotRule is the negation combinator. It cannot positively rule out a
// subject that its child could only classify as Uncertain, so those
// subjects are kept in Not's filter output, surfaced as Certain (the
// negation's own result carries no further doubt).
type NotRule struct{ rule Rule }

// NewNot builds a Not combinator, collapsing double negation per
// Not(Not(r)) = r.
func NewNot(r Rule) Rule {
	if inner, ok := r.(*NotRule); ok {
		return inner.rule
	}
	return &NotRule{rule: r}
}

func (r *NotRule) Kind() string  { return "not" }
func (r *NotRule) Priority() int { return r.rule.Priority() }
func (r *NotRule) Inner() Rule   { return r.rule }

func (r *NotRule) String() string { return "not " + r.rule.String() }

func (r *NotRule) Equal(other Rule) bool {
	o, ok := other.(*NotRule)
	return ok && r.rule.Equal(o.rule)
}

func (r *NotRule) Match(ctx context.Context, opts *Options, s *Subject) bool {
	return !r.rule.Match(ctx, opts, s)
}

func (r *NotRule) Filter(ctx context.Context, opts *Options, subjects []*Subject) ([]Verdict, error) {
	res, err := r.rule.Filter(ctx, opts, subjects)
	if err != nil {
		return nil, err
	}
	removable := make(map[*Subject]struct{}, len(res))
	for _, v := range res {
		if !v.Doubt {
			removable[v.Subject] = struct{}{}
		}
	}
	out := make([]Verdict, 0, len(subjects))
	for _, s := range subjects {
		if _, ok := removable[s]; !ok {
			out = append(out, Certain(s))
		}
	}
	return out, nil
}

// And constructs or extends an All combinator from r and s, per the `&`
// operator semantics in component B.
func And(r, s Rule) Rule { return NewAll(r, s) }

// Or constructs or extends an Any combinator from r and s, per the `|`
// operator semantics in component B.
func Or(r, s Rule) Rule { return NewAny(r, s) }

// Not constructs a Not combinator from r, collapsing double negation, per
// the unary `-` operator semantics in component B.
func Not(r Rule) Rule { return NewNot(r) }
