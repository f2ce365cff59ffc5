package engine

import "github.com/roach88/swapcheck/internal/ir"

// ApplyEffect folds effect into result in place. A nil effect is a no-op.
//
// The score is not clamped here; Evaluate clamps once after all rules.
// A level override applies only when strictly more severe than the current
// level, so within one evaluation the level never decreases.
func ApplyEffect(effect *ir.RuleEffect, result *ir.CompatibilityResult) {
	if effect == nil || result == nil {
		return
	}

	result.Score += effect.ScoreDelta

	if effect.AddWarning != "" {
		result.Warnings = append(result.Warnings, effect.AddWarning)
	}

	if effect.AddChange != nil {
		// Copy so the result never aliases rule data.
		result.RequiredChanges = append(result.RequiredChanges, *effect.AddChange)
	}

	if effect.Level != nil && effect.Level.MoreSevereThan(result.Level) {
		result.Level = *effect.Level
	}
}

// clampScore bounds score to [ir.MinScore, ir.MaxScore].
func clampScore(score int) int {
	if score < ir.MinScore {
		return ir.MinScore
	}
	if score > ir.MaxScore {
		return ir.MaxScore
	}
	return score
}
