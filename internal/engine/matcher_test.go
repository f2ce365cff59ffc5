package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/swapcheck/internal/ir"
)

// Test helper to create a profile with the attributes rules usually key on.
func makeTestProfile(code string, phase ir.Phase) *ir.EngineProfile {
	return &ir.EngineProfile{
		Code:         code,
		Phase:        phase,
		YearRange:    "1999-2004",
		Throttle:     ir.ThrottleCable,
		AirMetering:  ir.AirMeteringMAF,
		ValveControl: ir.ValveControlNone,
		EcuBus:       ir.EcuBusNonCan,
	}
}

func TestMatches_BothClausesHold(t *testing.T) {
	cond := &ir.RuleCondition{
		Donor:  ir.Criteria{"phase": "Phase2"},
		Target: ir.Criteria{"phase": "Phase1"},
	}

	donor := makeTestProfile("EJ251", ir.Phase2)
	target := makeTestProfile("EJ22E", ir.Phase1)

	assert.True(t, Matches(cond, donor, target), "should match when both clauses hold")
}

func TestMatches_SingleMismatchFailsCondition(t *testing.T) {
	cond := &ir.RuleCondition{
		Donor:  ir.Criteria{"phase": "Phase2", "throttle": "DBW"},
		Target: ir.Criteria{"phase": "Phase1"},
	}

	donor := makeTestProfile("EJ251", ir.Phase2) // cable throttle
	target := makeTestProfile("EJ22E", ir.Phase1)

	assert.False(t, Matches(cond, donor, target), "one mismatching attribute should fail the condition")
}

func TestMatches_TargetClauseMismatch(t *testing.T) {
	cond := &ir.RuleCondition{
		Donor:  ir.Criteria{"phase": "Phase2"},
		Target: ir.Criteria{"phase": "Phase1"},
	}

	donor := makeTestProfile("EJ251", ir.Phase2)
	target := makeTestProfile("EJ253", ir.Phase2)

	assert.False(t, Matches(cond, donor, target))
}

func TestMatches_NilCondition(t *testing.T) {
	donor := makeTestProfile("EJ251", ir.Phase2)
	assert.False(t, Matches(nil, donor, donor), "nil condition fails closed")
}

func TestMatches_EmptyConditionNeverMatches(t *testing.T) {
	cond := &ir.RuleCondition{}

	profiles := []*ir.EngineProfile{
		makeTestProfile("EJ251", ir.Phase2),
		makeTestProfile("EJ22E", ir.Phase1),
		{},
	}

	for _, donor := range profiles {
		for _, target := range profiles {
			assert.False(t, Matches(cond, donor, target),
				"condition without clauses must not match %q/%q", donor.Code, target.Code)
		}
	}
}

func TestMatches_SingleClause(t *testing.T) {
	donorOnly := &ir.RuleCondition{Donor: ir.Criteria{"ecuBus": "CanBus"}}
	targetOnly := &ir.RuleCondition{Target: ir.Criteria{"ecuBus": "CanBus"}}

	can := makeTestProfile("FB25", ir.PhaseFB)
	can.EcuBus = ir.EcuBusCanBus
	nonCan := makeTestProfile("EJ22E", ir.Phase1)

	assert.True(t, Matches(donorOnly, can, nonCan), "absent target clause places no constraint")
	assert.False(t, Matches(donorOnly, nonCan, can))
	assert.True(t, Matches(targetOnly, nonCan, can), "absent donor clause places no constraint")
	assert.False(t, Matches(targetOnly, can, nonCan))
}

func TestMatches_PresentEmptyClauseIsUnconstrained(t *testing.T) {
	cond := &ir.RuleCondition{Donor: ir.Criteria{}}
	donor := makeTestProfile("EJ251", ir.Phase2)

	assert.True(t, Matches(cond, donor, donor), "a present but empty clause holds trivially")
}

func TestMatches_CaseInsensitive(t *testing.T) {
	testCases := []struct {
		name     string
		criteria ir.Criteria
	}{
		{"lower value", ir.Criteria{"phase": "phase2"}},
		{"upper value", ir.Criteria{"phase": "PHASE2"}},
		{"pascal key", ir.Criteria{"Phase": "Phase2"}},
		{"camel key", ir.Criteria{"yearRange": "1999-2004"}},
		{"enum token", ir.Criteria{"airMetering": "maf"}},
	}

	donor := makeTestProfile("EJ251", ir.Phase2)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cond := &ir.RuleCondition{Donor: tc.criteria}
			assert.True(t, Matches(cond, donor, donor))
		})
	}
}

func TestMatches_UnknownAttributeIgnored(t *testing.T) {
	cond := &ir.RuleCondition{
		Donor: ir.Criteria{"phsae": "Phase9", "phase": "Phase2"},
	}
	donor := makeTestProfile("EJ251", ir.Phase2)

	assert.True(t, Matches(cond, donor, donor), "typo'd attribute names are ignored, not failed")

	onlyUnknown := &ir.RuleCondition{Donor: ir.Criteria{"displacement": "2.5"}}
	assert.True(t, Matches(onlyUnknown, donor, donor), "a clause of only unknown names degrades to no constraint")
}

func TestMatches_SeparatedNamesAreUnknown(t *testing.T) {
	donor := makeTestProfile("EJ22E", ir.Phase1)
	donor.EcuBus = ir.EcuBusNonCan

	testCases := []struct {
		name     string
		criteria ir.Criteria
	}{
		{"snake ecu bus", ir.Criteria{"ecu_bus": "CanBus"}},
		{"kebab valve control", ir.Criteria{"valve-control": "DualAVCS"}},
		{"padded code", ir.Criteria{" code ": "FB25"}},
		{"snake year range", ir.Criteria{"year_range": "2011-2018"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cond := &ir.RuleCondition{Donor: tc.criteria}
			assert.True(t, Matches(cond, donor, donor), "only case variants of an attribute name are recognised")
		})
	}

	canonical := &ir.RuleCondition{Donor: ir.Criteria{"ecuBus": "CanBus"}}
	assert.False(t, Matches(canonical, donor, donor))
}

func TestMatches_UnknownEnumValueMatchesExplicitly(t *testing.T) {
	cond := &ir.RuleCondition{Target: ir.Criteria{"throttle": "Unknown"}}
	target := &ir.EngineProfile{Code: "Chassis Impreza 2002"}
	donor := makeTestProfile("EJ251", ir.Phase2)

	assert.True(t, Matches(cond, donor, target))
}

func TestMatches_NilProfileWithClauseFails(t *testing.T) {
	cond := &ir.RuleCondition{Donor: ir.Criteria{"phase": "Phase2"}}
	assert.False(t, Matches(cond, nil, makeTestProfile("EJ22E", ir.Phase1)))
}
