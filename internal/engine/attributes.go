package engine

import (
	"sort"
	"strings"

	"github.com/roach88/swapcheck/internal/ir"
)

// attribute renders one EngineProfile field as the string rule criteria
// are compared against.
type attribute func(p *ir.EngineProfile) string

// attributes is the closed set of names a rule criterion may reference.
// Keys are normalized with normalizeAttribute.
var attributes = map[string]attribute{
	"code":         func(p *ir.EngineProfile) string { return p.Code },
	"phase":        func(p *ir.EngineProfile) string { return p.Phase.String() },
	"yearrange":    func(p *ir.EngineProfile) string { return p.YearRange },
	"throttle":     func(p *ir.EngineProfile) string { return p.Throttle.String() },
	"airmetering":  func(p *ir.EngineProfile) string { return p.AirMetering.String() },
	"valvecontrol": func(p *ir.EngineProfile) string { return p.ValveControl.String() },
	"ecubus":       func(p *ir.EngineProfile) string { return p.EcuBus.String() },
	"notes":        func(p *ir.EngineProfile) string { return p.Notes },
}

// normalizeAttribute folds case only, so "ecuBus" and "EcuBus" name the
// same attribute while "ecu_bus" names none and is ignored by Matches.
func normalizeAttribute(name string) string {
	return strings.ToLower(name)
}

func lookupAttribute(name string) (attribute, bool) {
	a, ok := attributes[normalizeAttribute(name)]
	return a, ok
}

// KnownAttribute reports whether name resolves to an EngineProfile
// attribute. Criteria on unknown names are silently ignored by Matches, so
// loaders use this to flag them.
func KnownAttribute(name string) bool {
	_, ok := lookupAttribute(name)
	return ok
}

// CanonicalAttribute returns the normalized form of a known attribute name.
func CanonicalAttribute(name string) (string, bool) {
	key := normalizeAttribute(name)
	_, ok := attributes[key]
	return key, ok
}

// AttributeNames returns the normalized attribute names in sorted order.
func AttributeNames() []string {
	names := make([]string, 0, len(attributes))
	for k := range attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// RenderAttribute returns the rendered value of the named attribute.
func RenderAttribute(p *ir.EngineProfile, name string) (string, bool) {
	a, ok := lookupAttribute(name)
	if !ok || p == nil {
		return "", false
	}
	return a(p), true
}
