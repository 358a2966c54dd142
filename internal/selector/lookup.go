package selector

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/gaissmai/bart"

	"github.com/vitaliisemenov/selector-engine/internal/selectorcache"
)

// digResult is one successful prefix walk through a nested mapping: value
// is the scalar/sequence/mapping found at the end of the walk, residual is
// whatever remained of the dotted/colon-delimited expr after consuming the
// matched key prefix.
type digResult struct {
	value    any
	residual string
}

// dig walks data (a nested map[string]any, possibly containing []any and
// nested map[string]any) trying every suffix split of expr on delim, from
// the longest key prefix to the shortest, and returns one digResult per
// successful walk. Lists are traversed element-wise: a list element becomes
// its own root for the remaining walk.
func dig(data any, expr string, delim byte) []digResult {
	if data == nil {
		return nil
	}
	parts := strings.Split(expr, string(delim))
	var out []digResult
	dig1(data, parts, delim, &out)
	return out
}

// dig1 tries consuming parts[0:n] (n from len(parts) down to 0) as a key
// path into data, appending a digResult for every value that successfully
// resolves at that depth, with residual built from the parts beyond it.
func dig1(data any, parts []string, delim byte, out *[]digResult) {
	// Try the longest remaining prefix first, then shorter ones, mirroring
	// matching.py's "from longest key to shortest" suffix-split order.
	for n := len(parts); n >= 0; n-- {
		residual := strings.Join(parts[n:], string(delim))
		for _, v := range walk(data, parts[:n]) {
			*out = append(*out, digResult{value: v, residual: residual})
		}
	}
}

// walk descends data through map[string]any keys named by path, fanning out
// across every element whenever a []any is encountered — whether mid-path
// (searching each element for the next key) or as the final value (so a
// trailing list of scalars yields one result per element) — rather than
// stopping at the first matching element. It returns every value that a
// full, depth-first traversal of path resolves to.
func walk(data any, path []string) []any {
	candidates := []any{data}
	if lst, ok := data.([]any); ok {
		candidates = lst
	}
	if len(path) == 0 {
		return candidates
	}
	var out []any
	for _, c := range candidates {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		next, ok := m[path[0]]
		if !ok {
			continue
		}
		out = append(out, walk(next, path[1:])...)
	}
	return out
}

// truthy mirrors Python truthiness for the scalar/sequence/mapping values
// found in grains/pillar/data: "", 0, false, nil, and empty
// slices/maps are falsy.
func truthy(v any) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case int:
		return vv != 0
	case int64:
		return vv != 0
	case float64:
		return vv != 0
	case []any:
		return len(vv) > 0
	case map[string]any:
		return len(vv) > 0
	default:
		return true
	}
}

// scalarString renders a dig result's value as a string for glob/pcre
// comparison, when it's a string or bool; ok is false for every other type
// (numbers, nil, maps, slices), which can only ever satisfy a match via the
// residual-empty/truthy rule.
func scalarString(v any) (string, bool) {
	switch vv := v.(type) {
	case string:
		return vv, true
	case bool:
		if vv {
			return "true", true
		}
		return "false", true
	case nil:
		return "", false
	default:
		return "", false
	}
}

// globMatch is a case-sensitive shell-glob match (*, ?, [...]) of pattern
// against value, with no delimiter/nesting involved (used by Glob and PCRE
// against a flat attribute such as id).
func globMatch(cache *selectorcache.Cache, pattern, value string) (bool, error) {
	re, err := compiledGlob(cache, pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

// globMatchNested implements the delimiter-aware nested form: pattern has
// shape k1<delim>k2<delim>...<delim>glob; every suffix split of the key
// path is tried via dig, and the rule matches if any resulting scalar
// matches the trailing glob, or if the residual is empty and the located
// value is truthy.
func globMatchNested(cache *selectorcache.Cache, pattern string, data any, delim byte) (bool, error) {
	parts := strings.Split(pattern, string(delim))
	if len(parts) < 2 {
		return false, malformedExpressionf("nested glob pattern %q has no delimiter %q", pattern, string(delim))
	}
	keyPath, globPart := parts[:len(parts)-1], parts[len(parts)-1]
	results := dig(data, strings.Join(keyPath, string(delim)), delim)
	re, err := compiledGlob(cache, globPart)
	if err != nil {
		return false, err
	}
	for _, r := range results {
		if r.residual != "" {
			continue
		}
		if s, ok := scalarString(r.value); ok {
			if re.MatchString(s) {
				return true, nil
			}
			continue
		}
		if truthy(r.value) {
			return true, nil
		}
	}
	return false, nil
}

// pcreMatch anchors pattern on both ends (^(...)$) and matches it against
// value directly, with no nesting.
func pcreMatch(cache *selectorcache.Cache, pattern, value string) (bool, error) {
	re, err := compiledPCRE(cache, pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

// pcreMatchNested is the nested-traversal analog of globMatchNested: every
// dig result is tested against the anchored trailing regex.
func pcreMatchNested(cache *selectorcache.Cache, pattern string, data any, delim byte) (bool, error) {
	parts := strings.Split(pattern, string(delim))
	if len(parts) < 2 {
		return false, malformedExpressionf("nested pcre pattern %q has no delimiter %q", pattern, string(delim))
	}
	keyPath, rePart := parts[:len(parts)-1], parts[len(parts)-1]
	results := dig(data, strings.Join(keyPath, string(delim)), delim)
	re, err := compiledPCRE(cache, rePart)
	if err != nil {
		return false, err
	}
	for _, r := range results {
		if r.residual != "" {
			continue
		}
		if s, ok := scalarString(r.value); ok {
			if re.MatchString(s) {
				return true, nil
			}
			continue
		}
		if truthy(r.value) {
			return true, nil
		}
	}
	return false, nil
}

func compiledGlob(cache *selectorcache.Cache, pattern string) (*regexp.Regexp, error) {
	return cache.Glob(pattern, func() (*regexp.Regexp, error) {
		src, err := globToRegexpSource(pattern)
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, malformedExpressionf("invalid glob %q: %v", pattern, err)
		}
		return re, nil
	})
}

func compiledPCRE(cache *selectorcache.Cache, pattern string) (*regexp.Regexp, error) {
	return cache.PCRE(pattern, func() (*regexp.Regexp, error) {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, malformedExpressionf("invalid pcre %q: %v", pattern, err)
		}
		return re, nil
	})
}

// globToRegexpSource translates a shell glob (*, ?, [seq], [!seq]) into an
// anchored RE2 source string. There is no third-party fnmatch-over-strings
// library in the example corpus, so this is a small hand-rolled translator
// (justified stdlib use, see DESIGN.md).
func globToRegexpSource(pattern string) (string, error) {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			j := i + 1
			negate := false
			if j < len(runes) && (runes[j] == '!' || runes[j] == '^') {
				negate = true
				j++
			}
			start := j
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				// unterminated class: treat '[' literally, as fnmatch does
				b.WriteString(regexp.QuoteMeta("["))
				continue
			}
			class := string(runes[start:j])
			b.WriteString("[")
			if negate {
				b.WriteString("^")
			}
			b.WriteString(regexp.QuoteMeta(class))
			b.WriteString("]")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String(), nil
}

// ipCIDRMatch matches expr (a literal address or a.b.c.d/N CIDR) against
// one address or any element of ipv4.
func ipCIDRMatch(expr string, ipv4 []string) (bool, error) {
	if addr, err := netip.ParseAddr(expr); err == nil {
		for _, candidate := range ipv4 {
			a, err := netip.ParseAddr(candidate)
			if err != nil {
				continue
			}
			if a == addr {
				return true, nil
			}
		}
		return false, nil
	}
	prefix, err := netip.ParsePrefix(expr)
	if err != nil {
		return false, malformedExpressionf("invalid CIDR or address %q: %v", expr, err)
	}
	for _, candidate := range ipv4 {
		a, err := netip.ParseAddr(candidate)
		if err != nil {
			continue
		}
		if prefix.Contains(a) {
			return true, nil
		}
	}
	return false, nil
}

// ipCIDRTable parses a single CIDR or address expr once into either a
// prefix or a literal address, so SubnetIP.filter can test many subjects'
// ipv4 lists against the same network (via newSingleRouteTable) without
// reparsing it per subject.
func ipCIDRTable(expr string) (prefix netip.Prefix, literal netip.Addr, isLiteral bool, err error) {
	if addr, aerr := netip.ParseAddr(expr); aerr == nil {
		return netip.Prefix{}, addr, true, nil
	}
	prefix, err = netip.ParsePrefix(expr)
	if err != nil {
		return netip.Prefix{}, netip.Addr{}, false, malformedExpressionf("invalid CIDR or address %q: %v", expr, err)
	}
	return prefix, netip.Addr{}, false, nil
}

// newSingleRouteTable builds a bart.Table containing a single prefix, for
// batched Contains lookups across many subject addresses.
func newSingleRouteTable(prefix netip.Prefix) *bart.Table[struct{}] {
	t := &bart.Table[struct{}]{}
	t.Insert(prefix, struct{}{})
	return t
}
