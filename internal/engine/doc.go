// Package engine implements the swapcheck compatibility evaluator.
//
// The engine folds an ordered list of declarative rules over a donor and a
// target engine profile and produces a score, a compatibility level, the
// required changes, warnings and a rendered explanation.
//
// EVALUATION FLOW:
//
//  1. Start from the initial result: score 100, PlugAndPlay, empty lists
//  2. For each rule in list order, Matches() tests the condition
//  3. ApplyEffect() folds a matched rule's effect into the result
//  4. The score is clamped to [0,100] once, after the last rule
//  5. Explain() renders the final result
//
// ORDERING:
//
// Rules are applied in declaration order. Score deltas, warnings and
// required changes accumulate in that order. Level escalation is monotone:
// an override only applies when strictly more severe than the current
// level, so the final level is the maximum over all matched overrides and
// does not depend on rule order.
//
// MATCHING:
//
// Attribute names resolve through a closed table of accessors (see
// attributes.go). Values compare as case-insensitive strings against the
// rendered attribute. Unknown attribute names are ignored. A condition with
// neither a donor nor a target clause never matches.
//
// CONCURRENCY:
//
// An Engine is immutable after New. Evaluate may be called from any number
// of goroutines; each call owns its own result accumulator.
package engine
