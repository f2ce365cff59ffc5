package engine

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/swapcheck/internal/ir"
)

// Observer receives per-rule and per-evaluation notifications.
// Implementations must be safe for concurrent use.
type Observer interface {
	// RuleEvaluated is called once per rule per evaluation, in rule order.
	RuleEvaluated(ruleID string, matched bool)

	// EvaluationCompleted is called with the final result.
	EvaluationCompleted(result ir.CompatibilityResult, elapsed time.Duration)
}

// Engine evaluates donor/target pairs against a fixed, ordered rule list.
//
// INVARIANTS:
//   - rules slice order NEVER changes after construction
//   - no field is mutated after New returns, so Evaluate is safe for
//     concurrent use
type Engine struct {
	rules    []ir.CompatibilityRule
	ruleHash string
	logger   *slog.Logger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-rule debug output.
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers an observer for rule and evaluation events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New creates an Engine over rules.
//
// The rules slice is copied so later changes by the caller cannot reorder
// or replace rules under a running engine. A nil or empty list is valid and
// yields the initial PlugAndPlay/100 result for every pair.
func New(rules []ir.CompatibilityRule, opts ...Option) *Engine {
	var rulesCopy []ir.CompatibilityRule
	if len(rules) > 0 {
		rulesCopy = make([]ir.CompatibilityRule, len(rules))
		copy(rulesCopy, rules)
	}

	e := &Engine{
		rules:  rulesCopy,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	if h, err := ir.RuleSetHash(e.rules); err == nil {
		e.ruleHash = h
	} else {
		e.logger.Warn("rule set hash unavailable", "error", err)
	}

	return e
}

// Rules returns a copy of the configured rules in evaluation order.
func (e *Engine) Rules() []ir.CompatibilityRule {
	out := make([]ir.CompatibilityRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// RuleSetHash returns the content hash of the configured rule list.
func (e *Engine) RuleSetHash() string {
	return e.ruleHash
}

// Evaluate folds every rule over the donor/target pair and returns the
// finalized result. The only error is an ArgumentError for a nil profile.
func (e *Engine) Evaluate(donor, target *ir.EngineProfile) (ir.CompatibilityResult, error) {
	if donor == nil {
		return ir.CompatibilityResult{}, nilProfileError("donor")
	}
	if target == nil {
		return ir.CompatibilityResult{}, nilProfileError("target")
	}

	var start time.Time
	if e.observer != nil {
		start = time.Now()
	}

	result := ir.NewResult()

	for i := range e.rules {
		rule := &e.rules[i]
		matched := Matches(rule.When, donor, target)
		if e.observer != nil {
			e.observer.RuleEvaluated(rule.ID, matched)
		}
		if !matched {
			continue
		}
		ApplyEffect(rule.Effect, &result)
		e.logger.Debug("rule matched",
			"rule_id", rule.ID,
			"score", result.Score,
			"level", result.Level.String(),
		)
	}

	result.Score = clampScore(result.Score)
	result.Explanation = Explain(donor, target, result)

	if e.observer != nil {
		e.observer.EvaluationCompleted(result, time.Since(start))
	}

	return result, nil
}

// EvaluateVehicle evaluates donor against a synthetic target derived from
// vehicle. See SyntheticTarget for the approximation it makes.
func (e *Engine) EvaluateVehicle(donor *ir.EngineProfile, vehicle *ir.VehicleProfile) (ir.CompatibilityResult, error) {
	if vehicle == nil {
		return ir.CompatibilityResult{}, nilProfileError("vehicle")
	}
	target := SyntheticTarget(*vehicle)
	return e.Evaluate(donor, &target)
}

// SyntheticTarget derives a target EngineProfile from a vehicle.
//
// Only phase and bus are derivable from a chassis. Throttle, air metering
// and valve control are always Unknown, so target-side rules on those
// attributes only match when they test for "Unknown" explicitly.
func SyntheticTarget(vehicle ir.VehicleProfile) ir.EngineProfile {
	return ir.EngineProfile{
		Code:         fmt.Sprintf("Chassis %s %d", vehicle.Model, vehicle.Year),
		Phase:        vehicle.ChassisPhase,
		EcuBus:       vehicle.ExpectedBus,
		Throttle:     ir.ThrottleUnknown,
		AirMetering:  ir.AirMeteringUnknown,
		ValveControl: ir.ValveControlUnknown,
	}
}
