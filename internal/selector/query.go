package selector

import "strings"

// RuleFactory builds a leaf Rule from an atom's raw value (the text after
// prefix@) and the effective options for this parse call. It replaces the
// reference implementation's reflection-based constructor introspection
// (inspect.getargspec) with an explicit, statically-typed binding per rule
// kind.
type RuleFactory func(expr string, opts *Options) (Rule, error)

// Evaluator turns an atom's raw value into a Rule. RuleEvaluator (via
// Register) is the common case; ListEvaluator and NodeGroupEvaluator are
// compound evaluators that recurse back into the registry.
type Evaluator interface {
	Evaluate(rawValue string, q *Query, opts *Options) (Rule, error)
}

type ruleEvaluator struct{ factory RuleFactory }

func (e ruleEvaluator) Evaluate(rawValue string, q *Query, opts *Options) (Rule, error) {
	return e.factory(rawValue, opts)
}

// listEvaluator splits raw_value on commas and builds one rule per part
// using the registry's default rule kind, combined with Any.
type listEvaluator struct{}

func (listEvaluator) Evaluate(rawValue string, q *Query, opts *Options) (Rule, error) {
	ev, err := q.defaultEvaluator(opts)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(rawValue, ",")
	var rules []Rule
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r, err := ev.Evaluate(p, q, opts)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, malformedExpressionf("list expression %q has no items", rawValue)
	}
	return NewAny(rules...), nil
}

// nodeGroupEvaluator looks raw_value up in opts.Macros and recursively
// parses the resolved query text.
type nodeGroupEvaluator struct{}

func (nodeGroupEvaluator) Evaluate(rawValue string, q *Query, opts *Options) (Rule, error) {
	text, ok := opts.Macros[rawValue]
	if !ok {
		return nil, unknownMacrof("macro %q", rawValue)
	}
	return q.parseWithOptions(text, opts)
}

// Query is the evaluator registry (component E): it binds prefixes and
// shortcut names to evaluators and holds the default options applied to
// every Parse/ParseShortcut call unless overridden.
type Query struct {
	prefixEvaluators map[string]Evaluator
	shortcuts        map[string]Evaluator
	kindToEvaluator  map[string]Evaluator
	kindToPrefix     map[string]string
	base             *Options
}

// NewQuery returns an empty registry with the given base options. Most
// callers want NewDefaultQuery, which pre-registers the standard prefixes.
func NewQuery(base *Options) *Query {
	if base == nil {
		base = DefaultOptions()
	}
	return &Query{
		prefixEvaluators: map[string]Evaluator{},
		shortcuts:        map[string]Evaluator{},
		kindToEvaluator:  map[string]Evaluator{},
		kindToPrefix:     map[string]string{},
		base:             base,
	}
}

// NewDefaultQuery returns a registry pre-loaded with the standard prefix
// table from spec §6: Glob (default), Grain (G), Pillar (I), PCRE (E),
// GrainPCRE (P), SubnetIP (S), Exsel (X), LocalStore (D), YahooRange (R),
// ListEval (L), NodeGroup (N).
func NewDefaultQuery() *Query {
	q := NewQuery(DefaultOptions())
	must := func(err error) {
		if err != nil {
			panic(err) // only reachable if the built-in table itself has a duplicate, a programmer error
		}
	}
	must(q.register("", "glob", ruleEvaluator{factory: func(expr string, _ *Options) (Rule, error) {
		return NewGlobRule(expr), nil
	}}, "glob"))
	must(q.register("G", "grain", ruleEvaluator{factory: func(expr string, opts *Options) (Rule, error) {
		return NewGrainRule(expr, opts.delim()), nil
	}}, "grain"))
	must(q.register("I", "pillar", ruleEvaluator{factory: func(expr string, opts *Options) (Rule, error) {
		return NewPillarRule(expr, opts.delim()), nil
	}}, "pillar"))
	must(q.register("E", "pcre", ruleEvaluator{factory: func(expr string, opts *Options) (Rule, error) {
		return NewPCRERule(opts, expr)
	}}, "pcre"))
	must(q.register("P", "grain_pcre", ruleEvaluator{factory: func(expr string, opts *Options) (Rule, error) {
		return NewGrainPCRERule(opts, expr, opts.delim())
	}}, "grain_pcre"))
	must(q.register("S", "", ruleEvaluator{factory: func(expr string, _ *Options) (Rule, error) {
		return NewSubnetIPRule(expr)
	}}, "subnet_ip"))
	must(q.register("X", "exsel", ruleEvaluator{factory: func(expr string, _ *Options) (Rule, error) {
		return NewExselRule(expr), nil
	}}, "exsel"))
	must(q.register("D", "", ruleEvaluator{factory: func(expr string, opts *Options) (Rule, error) {
		return NewLocalStoreRule(expr, opts.delim()), nil
	}}, "local_store"))
	must(q.register("R", "", ruleEvaluator{factory: func(expr string, _ *Options) (Rule, error) {
		return NewYahooRangeRule(expr), nil
	}}, "yahoo_range"))
	must(q.register("L", "list", listEvaluator{}, ""))
	must(q.register("N", "", nodeGroupEvaluator{}, ""))
	return q
}

// register binds prefix/shortcut/kind to ev. An empty prefix means "no
// letter" (used only by the default Glob kind, resolved via DefaultKind
// rather than prefix dispatch). Duplicate prefixes, shortcuts, or kinds are
// a registry misuse (UsageError).
func (q *Query) register(prefix, shortcut string, ev Evaluator, kind string) error {
	if prefix != "" {
		if _, exists := q.prefixEvaluators[prefix]; exists {
			return usageErrorf("prefix %q already registered", prefix)
		}
	}
	if shortcut != "" {
		if _, exists := q.shortcuts[shortcut]; exists {
			return usageErrorf("shortcut %q already registered", shortcut)
		}
	}
	if kind != "" {
		if _, exists := q.kindToEvaluator[kind]; exists {
			return usageErrorf("rule kind %q already registered", kind)
		}
	}
	if prefix != "" {
		q.prefixEvaluators[prefix] = ev
	}
	if shortcut != "" {
		q.shortcuts[shortcut] = ev
	}
	if kind != "" {
		q.kindToEvaluator[kind] = ev
		q.kindToPrefix[kind] = prefix
	}
	return nil
}

// Register binds a custom RuleFactory to prefix/shortcut/kind, extending
// the registry at runtime. This is the public entry point for user-defined
// rule kinds the registry mechanism is meant to decouple from their prefix
// syntax (spec §1).
func (q *Query) Register(prefix, shortcut string, factory RuleFactory, kind string) error {
	return q.register(prefix, shortcut, ruleEvaluator{factory: factory}, kind)
}

func (q *Query) defaultEvaluator(opts *Options) (Evaluator, error) {
	ev, ok := q.kindToEvaluator[opts.DefaultKind]
	if !ok {
		return nil, usageErrorf("unknown default rule kind %q", opts.DefaultKind)
	}
	return ev, nil
}

// splitFirstAt splits text on the first '@', reporting prefix, the
// remainder, and whether an '@' was found at all.
func splitFirstAt(text string) (prefix, rest string, hasAt bool) {
	idx := strings.IndexByte(text, '@')
	if idx < 0 {
		return "", text, false
	}
	return text[:idx], text[idx+1:], true
}

// resolve is the atom resolver handed to the parser: split on the first
// '@'; if a non-empty, registered prefix precedes it, invoke that
// evaluator on the remainder, otherwise invoke the default evaluator on the
// whole atom.
func (q *Query) resolve(text string, opts *Options) (Rule, error) {
	prefix, rawValue, hasAt := splitFirstAt(text)
	if hasAt && prefix != "" {
		if ev, ok := q.prefixEvaluators[prefix]; ok {
			return ev.Evaluate(rawValue, q, opts)
		}
	}
	ev, err := q.defaultEvaluator(opts)
	if err != nil {
		return nil, err
	}
	return ev.Evaluate(text, q, opts)
}

func (q *Query) parseWithOptions(query string, opts *Options) (Rule, error) {
	return parseCompound(query, func(text string) (Rule, error) { return q.resolve(text, opts) })
}

// Parse parses a full compound query against the registry, applying any
// Option overrides to the registry's base options for this call only.
func (q *Query) Parse(query string, opts ...Option) (Rule, error) {
	return q.parseWithOptions(query, q.base.apply(opts...))
}

// ParseShortcut applies the evaluator registered under name directly to
// the (normalized) whole query text, bypassing and/or/not parsing
// entirely — the same behavior as the reference implementation's
// parse_<shortcut> curried helpers.
func (q *Query) ParseShortcut(name, query string, opts ...Option) (Rule, error) {
	ev, ok := q.shortcuts[name]
	if !ok {
		return nil, usageErrorf("unknown shortcut %q", name)
	}
	return ev.Evaluate(normalize(query), q, q.base.apply(opts...))
}

// Querify serializes a rule tree back to selector text: `not X`, `X and Y`,
// `X or Y` with parentheses around combinator children, the registry's
// default kind as a bare expr, and other leaves as PREFIX@expr. Round-trip
// identity with Parse holds only up to priority reordering and flattening.
func (q *Query) Querify(r Rule, opts ...Option) (string, error) {
	return q.querify(r, q.base.apply(opts...))
}

func (q *Query) querify(r Rule, opts *Options) (string, error) {
	switch r.Kind() {
	case "not":
		inner, err := q.parenthesize(r.(*NotRule).Inner(), opts)
		if err != nil {
			return "", err
		}
		return "not " + inner, nil
	case "any":
		return q.joinChildren(r.(*AnyRule).Rules(), " or ", opts)
	case "all":
		return q.joinChildren(r.(*AllRule).Rules(), " and ", opts)
	default:
		er, ok := r.(exprRule)
		if !ok {
			return "", usageErrorf("rule kind %q cannot be serialized", r.Kind())
		}
		if r.Kind() == opts.DefaultKind {
			return er.Expr(), nil
		}
		prefix, ok := q.kindToPrefix[r.Kind()]
		if !ok {
			return "", usageErrorf("rule kind %q is not registered", r.Kind())
		}
		return prefix + "@" + er.Expr(), nil
	}
}

func (q *Query) joinChildren(children []Rule, sep string, opts *Options) (string, error) {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		s, err := q.parenthesize(c, opts)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

func (q *Query) parenthesize(r Rule, opts *Options) (string, error) {
	s, err := q.querify(r, opts)
	if err != nil {
		return "", err
	}
	if r.Kind() == "any" || r.Kind() == "all" {
		return "(" + s + ")", nil
	}
	return s, nil
}
