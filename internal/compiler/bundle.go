package compiler

import (
	"strings"

	"github.com/roach88/swapcheck/internal/ir"
)

// Bundle is everything loaded from one or more rule/catalog sources.
type Bundle struct {
	Rules    []ir.CompatibilityRule
	Engines  []ir.EngineProfile
	Vehicles []ir.VehicleProfile

	// Files lists the source files in load order.
	Files []string
}

// Engine returns the engine profile whose code equals code, ignoring case.
func (b *Bundle) Engine(code string) (ir.EngineProfile, bool) {
	for _, p := range b.Engines {
		if strings.EqualFold(p.Code, code) {
			return p, true
		}
	}
	return ir.EngineProfile{}, false
}

// Vehicle returns the vehicle whose key equals key, ignoring case.
func (b *Bundle) Vehicle(key string) (ir.VehicleProfile, bool) {
	for _, v := range b.Vehicles {
		if strings.EqualFold(v.Key(), key) {
			return v, true
		}
	}
	return ir.VehicleProfile{}, false
}

// Merge appends other's contents after b's. Rule order is preserved: b's
// rules first, then other's.
func (b *Bundle) Merge(other *Bundle) {
	if other == nil {
		return
	}
	b.Rules = append(b.Rules, other.Rules...)
	b.Engines = append(b.Engines, other.Engines...)
	b.Vehicles = append(b.Vehicles, other.Vehicles...)
	b.Files = append(b.Files, other.Files...)
}
