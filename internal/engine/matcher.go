package engine

import (
	"strings"

	"github.com/roach88/swapcheck/internal/ir"
)

// Matches reports whether cond holds for the donor/target pair.
//
// The match is determined by:
//  1. A nil condition never matches (fails closed)
//  2. A condition with both clauses absent never matches
//  3. A present donor clause must hold against donor
//  4. A present target clause must hold against target
//
// A present but empty clause places no constraint on its side.
func Matches(cond *ir.RuleCondition, donor, target *ir.EngineProfile) bool {
	if cond == nil {
		return false
	}
	if cond.Donor == nil && cond.Target == nil {
		return false
	}
	if cond.Donor != nil && !matchCriteria(cond.Donor, donor) {
		return false
	}
	if cond.Target != nil && !matchCriteria(cond.Target, target) {
		return false
	}
	return true
}

// matchCriteria checks every criterion against the profile's rendered
// attribute value. Unknown attribute names are skipped; the first mismatch
// fails the whole clause.
func matchCriteria(criteria ir.Criteria, profile *ir.EngineProfile) bool {
	if profile == nil {
		return false
	}
	for name, expected := range criteria {
		render, ok := lookupAttribute(name)
		if !ok {
			continue
		}
		if !strings.EqualFold(render(profile), expected) {
			return false
		}
	}
	return true
}
