package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/swapcheck/internal/engine"
	"github.com/roach88/swapcheck/internal/ir"
)

// Lint codes (E200-E299). Lint findings never stop evaluation; they flag
// rules that evaluate silently in a way the author probably did not intend.
const (
	ErrUnknownAttribute = "E201" // criterion names no profile attribute; ignored by the matcher
	ErrEmptyCondition   = "E202" // no donor and no target clause; rule never fires
	ErrMissingEffect    = "E203" // rule has no effect; matching changes nothing
	ErrDuplicateRuleID  = "E204" // rule ID used more than once
	ErrUnmatchableValue = "E205" // enum criterion value no profile can render
	ErrEmptyCriteria    = "E206" // present but empty clause; always holds
	ErrNoOpEffect       = "E207" // effect present but changes nothing
	ErrMissingRuleID    = "E208" // rule has no ID; traces and metrics cannot name it
)

// ValidationError represents one lint finding.
type ValidationError struct {
	RuleID  string `json:"rule_id,omitempty"`
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	id := e.RuleID
	if id == "" {
		id = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("[%s] rule %s: %s: %s", e.Code, id, e.Field, e.Message)
}

// Lint checks rules and returns every finding, in rule order.
func Lint(rules []ir.CompatibilityRule) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)

	for i, rule := range rules {
		add := func(field, code, format string, args ...any) {
			errs = append(errs, ValidationError{
				RuleID:  rule.ID,
				Index:   i,
				Field:   field,
				Message: fmt.Sprintf(format, args...),
				Code:    code,
			})
		}

		if strings.TrimSpace(rule.ID) == "" {
			add("id", ErrMissingRuleID, "rule has no id")
		} else if first, dup := seen[rule.ID]; dup {
			add("id", ErrDuplicateRuleID, "duplicate rule id %q (first used by rule #%d)", rule.ID, first)
		} else {
			seen[rule.ID] = i
		}

		if rule.When == nil || (rule.When.Donor == nil && rule.When.Target == nil) {
			add("when", ErrEmptyCondition, "condition has neither donor nor target clause and will never match")
		} else {
			errs = append(errs, lintClause(rule, i, "when.donor", rule.When.Donor)...)
			errs = append(errs, lintClause(rule, i, "when.target", rule.When.Target)...)
		}

		switch {
		case rule.Effect == nil:
			add("effect", ErrMissingEffect, "rule has no effect")
		case isNoOp(rule.Effect):
			add("effect", ErrNoOpEffect, "effect changes neither score, level, warnings nor changes")
		}
	}

	return errs
}

func lintClause(rule ir.CompatibilityRule, index int, field string, c ir.Criteria) []ValidationError {
	if c == nil {
		return nil
	}

	var errs []ValidationError
	if len(c) == 0 {
		errs = append(errs, ValidationError{
			RuleID:  rule.ID,
			Index:   index,
			Field:   field,
			Message: "clause is present but empty, so it always holds",
			Code:    ErrEmptyCriteria,
		})
		return errs
	}

	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := c[name]
		if !engine.KnownAttribute(name) {
			errs = append(errs, ValidationError{
				RuleID:  rule.ID,
				Index:   index,
				Field:   field + "." + name,
				Message: fmt.Sprintf("unknown attribute %q is ignored (known: %s)", name, strings.Join(engine.AttributeNames(), ", ")),
				Code:    ErrUnknownAttribute,
			})
			continue
		}
		canonical, ok := enumMatchable(name, value)
		if ok {
			continue
		}
		msg := fmt.Sprintf("value %q can never match", value)
		if canonical != "" {
			msg = fmt.Sprintf("value %q can never match; write %q", value, canonical)
		}
		errs = append(errs, ValidationError{
			RuleID:  rule.ID,
			Index:   index,
			Field:   field + "." + name,
			Message: msg,
			Code:    ErrUnmatchableValue,
		})
	}

	return errs
}

func isNoOp(e *ir.RuleEffect) bool {
	return e.Level == nil && e.ScoreDelta == 0 && e.AddWarning == "" && e.AddChange == nil
}
