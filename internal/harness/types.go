package harness

import "github.com/roach88/swapcheck/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`

	// Outcome is the engine's result for the scenario.
	Outcome ir.CompatibilityResult `json:"outcome"`

	// RuleSetHash identifies the rule list the scenario ran against.
	RuleSetHash string `json:"rule_set_hash"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
