package compiler

import (
	"sort"
	"strings"

	"github.com/roach88/swapcheck/internal/engine"
	"github.com/roach88/swapcheck/internal/ir"
)

// enumRenderers map an enum-typed attribute to a parser that returns the
// canonical rendered token.
var enumRenderers = map[string]func(string) (string, bool){
	"phase":        render(ir.ParsePhase),
	"throttle":     render(ir.ParseThrottle),
	"airmetering":  render(ir.ParseAirMetering),
	"valvecontrol": render(ir.ParseValveControl),
	"ecubus":       render(ir.ParseEcuBus),
}

func render[T interface{ String() string }](parse func(string) (T, error)) func(string) (string, bool) {
	return func(s string) (string, bool) {
		v, err := parse(s)
		if err != nil {
			return "", false
		}
		return v.String(), true
	}
}

var separators = strings.NewReplacer("_", "", "-", "")

// canonicalKey maps the spellings rule files use for an attribute
// ("ecu_bus", "valve-control", "EcuBus") onto its canonical name. Names
// that do not resolve are returned unchanged.
func canonicalKey(name string) (string, bool) {
	folded := separators.Replace(strings.ToLower(strings.TrimSpace(name)))
	if key, ok := engine.CanonicalAttribute(folded); ok {
		return key, true
	}
	return name, false
}

// NormalizeCriteria rewrites attribute names to their canonical key and
// enum-valued criteria to their rendered token. Unknown names, values that
// do not parse, and non-enum attributes are left as written so Lint can
// report them. When two spellings name the same attribute the first in
// sorted order wins. A nil Criteria stays nil.
func NormalizeCriteria(c ir.Criteria) ir.Criteria {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(ir.Criteria, len(c))
	for _, name := range names {
		value := c[name]
		key, ok := canonicalKey(name)
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = value
		if !ok {
			continue
		}
		if r, isEnum := enumRenderers[key]; isEnum {
			if token, ok := r(value); ok {
				out[key] = token
			}
		}
	}
	return out
}

// normalizeRule applies NormalizeCriteria to both clauses of rule.
func normalizeRule(rule *ir.CompatibilityRule) {
	if rule.When == nil {
		return
	}
	rule.When.Donor = NormalizeCriteria(rule.When.Donor)
	rule.When.Target = NormalizeCriteria(rule.When.Target)
}

// enumMatchable reports whether value can ever equal the rendered form of
// the named attribute. For enum attributes it also returns the canonical
// token value parses to, if any. Non-enum and unknown attributes always
// report true.
func enumMatchable(name, value string) (canonical string, ok bool) {
	key, known := engine.CanonicalAttribute(name)
	if !known {
		return "", true
	}
	r, isEnum := enumRenderers[key]
	if !isEnum {
		return "", true
	}
	token, parsed := r(value)
	if !parsed {
		return "", false
	}
	return token, strings.EqualFold(token, value)
}
