package engine

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/swapcheck/internal/ir"
)

func phaseMismatchRule() ir.CompatibilityRule {
	return ir.CompatibilityRule{
		ID: "phase-2-into-phase-1",
		When: &ir.RuleCondition{
			Donor:  ir.Criteria{"phase": "Phase2"},
			Target: ir.Criteria{"phase": "Phase1"},
		},
		Effect: &ir.RuleEffect{
			Level:      ir.LevelPtr(ir.LevelMajorMods),
			ScoreDelta: -50,
			AddWarning: "Phase mismatch",
		},
	}
}

func levelRule(id string, level ir.Level) ir.CompatibilityRule {
	return ir.CompatibilityRule{
		ID:     id,
		When:   &ir.RuleCondition{Donor: ir.Criteria{}},
		Effect: &ir.RuleEffect{Level: ir.LevelPtr(level)},
	}
}

func TestEvaluate_PhaseMismatch(t *testing.T) {
	eng := New([]ir.CompatibilityRule{phaseMismatchRule()})

	donor := makeTestProfile("EJ251", ir.Phase2)
	target := makeTestProfile("EJ22E", ir.Phase1)

	result, err := eng.Evaluate(donor, target)
	require.NoError(t, err)

	assert.Equal(t, 50, result.Score)
	assert.Equal(t, ir.LevelMajorMods, result.Level)
	assert.Equal(t, []string{"Phase mismatch"}, result.Warnings)
	assert.Empty(t, result.RequiredChanges)
	assert.Contains(t, result.Explanation, "Phase mismatch")
	assert.Contains(t, result.Explanation, "Score: 50/100")
}

func TestEvaluate_NoMatchLeavesInitialResult(t *testing.T) {
	eng := New([]ir.CompatibilityRule{phaseMismatchRule()})

	donor := makeTestProfile("EJ251", ir.Phase2)
	target := makeTestProfile("EJ253", ir.Phase2)

	result, err := eng.Evaluate(donor, target)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, ir.LevelPlugAndPlay, result.Level)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.RequiredChanges)
	assert.NotNil(t, result.Warnings, "lists are empty, never nil")
	assert.NotNil(t, result.RequiredChanges)
	assert.Contains(t, result.Explanation, "Compatibility Level: PlugAndPlay")
}

func TestEvaluate_EmptyRuleList(t *testing.T) {
	eng := New(nil)

	result, err := eng.Evaluate(makeTestProfile("EJ251", ir.Phase2), makeTestProfile("EJ22E", ir.Phase1))
	require.NoError(t, err)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, ir.LevelPlugAndPlay, result.Level)
}

func TestEvaluate_EscalationIgnoresRuleOrder(t *testing.T) {
	orders := [][]ir.CompatibilityRule{
		{levelRule("major", ir.LevelMajorMods), levelRule("minor", ir.LevelMinorMods)},
		{levelRule("minor", ir.LevelMinorMods), levelRule("major", ir.LevelMajorMods)},
	}

	donor := makeTestProfile("EJ251", ir.Phase2)
	for _, rules := range orders {
		result, err := New(rules).Evaluate(donor, donor)
		require.NoError(t, err)
		assert.Equal(t, ir.LevelMajorMods, result.Level, "order %s,%s", rules[0].ID, rules[1].ID)
	}
}

func TestEvaluate_PreservesRuleOrder(t *testing.T) {
	var rules []ir.CompatibilityRule
	for i := 0; i < 5; i++ {
		rules = append(rules, ir.CompatibilityRule{
			ID:   fmt.Sprintf("r%d", i),
			When: &ir.RuleCondition{Target: ir.Criteria{}},
			Effect: &ir.RuleEffect{
				AddWarning: fmt.Sprintf("w%d", i),
				AddChange:  &ir.ChangeItem{Title: fmt.Sprintf("c%d", i), Severity: ir.SeverityLow},
			},
		})
	}

	donor := makeTestProfile("EJ251", ir.Phase2)
	result, err := New(rules).Evaluate(donor, donor)
	require.NoError(t, err)

	assert.Equal(t, []string{"w0", "w1", "w2", "w3", "w4"}, result.Warnings)
	require.Len(t, result.RequiredChanges, 5)
	for i, change := range result.RequiredChanges {
		assert.Equal(t, fmt.Sprintf("c%d", i), change.Title)
	}
}

func TestEvaluate_DuplicateWarningsKept(t *testing.T) {
	rule := ir.CompatibilityRule{
		When:   &ir.RuleCondition{Donor: ir.Criteria{}},
		Effect: &ir.RuleEffect{AddWarning: "Check wiring"},
	}
	donor := makeTestProfile("EJ251", ir.Phase2)

	result, err := New([]ir.CompatibilityRule{rule, rule}).Evaluate(donor, donor)
	require.NoError(t, err)
	assert.Equal(t, []string{"Check wiring", "Check wiring"}, result.Warnings)
}

func TestEvaluate_ClampsOnceAtEnd(t *testing.T) {
	tests := []struct {
		name   string
		deltas []int
		want   int
	}{
		{"below zero", []int{-80, -80}, 0},
		{"recovers before clamp", []int{-150, 60}, 10},
		{"above hundred", []int{30}, 100},
		{"dips and returns", []int{120, -130}, 90},
	}

	donor := makeTestProfile("EJ251", ir.Phase2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rules []ir.CompatibilityRule
			for _, d := range tt.deltas {
				rules = append(rules, ir.CompatibilityRule{
					When:   &ir.RuleCondition{Donor: ir.Criteria{}},
					Effect: &ir.RuleEffect{ScoreDelta: d},
				})
			}
			result, err := New(rules).Evaluate(donor, donor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Score)
		})
	}
}

func TestEvaluate_EmptyConditionRulesNeverFire(t *testing.T) {
	rules := []ir.CompatibilityRule{
		{ID: "no-when", Effect: &ir.RuleEffect{ScoreDelta: -100, Level: ir.LevelPtr(ir.LevelNotRecommended)}},
		{ID: "empty-when", When: &ir.RuleCondition{}, Effect: &ir.RuleEffect{ScoreDelta: -100}},
	}
	donor := makeTestProfile("EJ251", ir.Phase2)

	result, err := New(rules).Evaluate(donor, donor)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, ir.LevelPlugAndPlay, result.Level)
}

func TestEvaluate_MatchedRuleWithoutEffect(t *testing.T) {
	rules := []ir.CompatibilityRule{{ID: "noop", When: &ir.RuleCondition{Donor: ir.Criteria{}}}}
	donor := makeTestProfile("EJ251", ir.Phase2)

	result, err := New(rules).Evaluate(donor, donor)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
}

func TestEvaluate_NilArguments(t *testing.T) {
	eng := New([]ir.CompatibilityRule{phaseMismatchRule()})
	profile := makeTestProfile("EJ251", ir.Phase2)

	tests := []struct {
		name     string
		donor    *ir.EngineProfile
		target   *ir.EngineProfile
		argument string
	}{
		{"nil donor", nil, profile, "donor"},
		{"nil target", profile, nil, "target"},
		{"both nil", nil, nil, "donor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Evaluate(tt.donor, tt.target)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
			assert.True(t, IsArgumentError(err))

			var ae *ArgumentError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, ErrCodeNilProfile, ae.Code)
			assert.Equal(t, tt.argument, ae.Argument)
		})
	}
}

func TestEvaluateVehicle_MatchesSyntheticTarget(t *testing.T) {
	rules := []ir.CompatibilityRule{
		phaseMismatchRule(),
		{
			ID:     "dbw-into-unknown-throttle",
			When:   &ir.RuleCondition{Donor: ir.Criteria{"throttle": "DBW"}, Target: ir.Criteria{"throttle": "Unknown"}},
			Effect: &ir.RuleEffect{ScoreDelta: -10, AddWarning: "Throttle type of chassis unknown"},
		},
		{
			ID:     "can-mismatch",
			When:   &ir.RuleCondition{Donor: ir.Criteria{"ecuBus": "CanBus"}, Target: ir.Criteria{"ecuBus": "NonCan"}},
			Effect: &ir.RuleEffect{ScoreDelta: -20, Level: ir.LevelPtr(ir.LevelMajorMods)},
		},
	}
	eng := New(rules)

	donor := makeTestProfile("EJ255", ir.Phase2)
	donor.Throttle = ir.ThrottleDBW
	donor.EcuBus = ir.EcuBusCanBus

	vehicle := &ir.VehicleProfile{
		Model:        "Impreza",
		Year:         1998,
		Region:       "US",
		ChassisPhase: ir.Phase1,
		ExpectedBus:  ir.EcuBusNonCan,
	}

	viaVehicle, err := eng.EvaluateVehicle(donor, vehicle)
	require.NoError(t, err)

	synthetic := &ir.EngineProfile{
		Code:   "Chassis Impreza 1998",
		Phase:  ir.Phase1,
		EcuBus: ir.EcuBusNonCan,
	}
	manual, err := eng.Evaluate(donor, synthetic)
	require.NoError(t, err)

	assert.Equal(t, manual, viaVehicle)
	assert.Equal(t, 20, viaVehicle.Score)
	assert.Contains(t, viaVehicle.Explanation, "Target mimicking Chassis Impreza 1998 (Phase1)")
}

func TestEvaluateVehicle_NilVehicle(t *testing.T) {
	_, err := New(nil).EvaluateVehicle(makeTestProfile("EJ251", ir.Phase2), nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "vehicle", ae.Argument)
}

func TestSyntheticTarget(t *testing.T) {
	target := SyntheticTarget(ir.VehicleProfile{
		Model:        "Forester",
		Year:         2003,
		ChassisPhase: ir.Phase2,
		ExpectedBus:  ir.EcuBusCanBus,
	})

	assert.Equal(t, "Chassis Forester 2003", target.Code)
	assert.Equal(t, ir.Phase2, target.Phase)
	assert.Equal(t, ir.EcuBusCanBus, target.EcuBus)
	assert.Equal(t, ir.ThrottleUnknown, target.Throttle)
	assert.Equal(t, ir.AirMeteringUnknown, target.AirMetering)
	assert.Equal(t, ir.ValveControlUnknown, target.ValveControl)
	assert.Empty(t, target.YearRange)
}

func TestNew_CopiesRules(t *testing.T) {
	rules := []ir.CompatibilityRule{phaseMismatchRule()}
	eng := New(rules)

	rules[0] = levelRule("replaced", ir.LevelNotRecommended)

	got := eng.Rules()
	require.Len(t, got, 1)
	assert.Equal(t, "phase-2-into-phase-1", got[0].ID)
	assert.NotEmpty(t, eng.RuleSetHash())
}

// randomRules builds a rule list whose conditions match everything and whose
// effects are drawn from a fixed seed.
func randomRules(rng *rand.Rand, n int) []ir.CompatibilityRule {
	levels := ir.AllLevels()
	rules := make([]ir.CompatibilityRule, n)
	for i := range rules {
		effect := &ir.RuleEffect{ScoreDelta: rng.Intn(121) - 80}
		if rng.Intn(2) == 0 {
			effect.Level = ir.LevelPtr(levels[rng.Intn(len(levels))])
		}
		if rng.Intn(3) == 0 {
			effect.AddWarning = fmt.Sprintf("warning %d", i)
		}
		rules[i] = ir.CompatibilityRule{
			ID:     fmt.Sprintf("rule-%d", i),
			When:   &ir.RuleCondition{Donor: ir.Criteria{"phase": "Phase2"}},
			Effect: effect,
		}
	}
	return rules
}

func TestEvaluate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	donor := makeTestProfile("EJ251", ir.Phase2)

	for i := 0; i < 200; i++ {
		rules := randomRules(rng, rng.Intn(12))

		result, err := New(rules).Evaluate(donor, donor)
		require.NoError(t, err)

		// Score is always within bounds.
		assert.GreaterOrEqual(t, result.Score, ir.MinScore, "iteration %d", i)
		assert.LessOrEqual(t, result.Score, ir.MaxScore, "iteration %d", i)

		// Final level is the maximum of initial and every matched override.
		want := ir.LevelPlugAndPlay
		for _, r := range rules {
			if r.Effect.Level != nil && r.Effect.Level.MoreSevereThan(want) {
				want = *r.Effect.Level
			}
		}
		assert.Equal(t, want, result.Level, "iteration %d", i)

		// Same inputs, same output.
		again, err := New(rules).Evaluate(donor, donor)
		require.NoError(t, err)
		assert.Equal(t, ir.MustResultHash(result), ir.MustResultHash(again))
	}
}

func TestEvaluate_ConcurrentUse(t *testing.T) {
	eng := New([]ir.CompatibilityRule{phaseMismatchRule()})
	donor := makeTestProfile("EJ251", ir.Phase2)
	target := makeTestProfile("EJ22E", ir.Phase1)

	want, err := eng.Evaluate(donor, target)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]ir.CompatibilityResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = eng.Evaluate(donor, target)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	evaluated []string
	matched   []bool
	completed []ir.CompatibilityResult
}

func (o *recordingObserver) RuleEvaluated(ruleID string, matched bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evaluated = append(o.evaluated, ruleID)
	o.matched = append(o.matched, matched)
}

func (o *recordingObserver) EvaluationCompleted(result ir.CompatibilityResult, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, result)
}

func TestEvaluate_NotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	rules := []ir.CompatibilityRule{
		phaseMismatchRule(),
		levelRule("always-minor", ir.LevelMinorMods),
	}
	eng := New(rules, WithObserver(obs))

	result, err := eng.Evaluate(makeTestProfile("EJ251", ir.Phase2), makeTestProfile("EJ253", ir.Phase2))
	require.NoError(t, err)

	assert.Equal(t, []string{"phase-2-into-phase-1", "always-minor"}, obs.evaluated)
	assert.Equal(t, []bool{false, true}, obs.matched)
	require.Len(t, obs.completed, 1)
	assert.Equal(t, result, obs.completed[0])
}

func TestEvaluate_DebugLogsMatchedRules(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	eng := New([]ir.CompatibilityRule{phaseMismatchRule()}, WithLogger(logger))
	_, err := eng.Evaluate(makeTestProfile("EJ251", ir.Phase2), makeTestProfile("EJ22E", ir.Phase1))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "rule matched")
	assert.Contains(t, buf.String(), "rule_id=phase-2-into-phase-1")
}
