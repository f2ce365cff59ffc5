package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/swapcheck/internal/ir"
)

// ExpectationError describes one failed expectation.
type ExpectationError struct {
	Field    string // score, level, warnings, changes, explanation
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expectation failed: %s\n  Expected: %s\n  Actual: %s", e.Field, e.Expected, e.Actual)
}

// CheckExpectations compares result against expect and returns one message
// per failed check, in field order. An empty slice means every check held.
func CheckExpectations(result ir.CompatibilityResult, expect Expectation) []string {
	var failures []string
	fail := func(err error) {
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	fail(checkScore(result, expect.Score))
	fail(checkLevel(result, expect.Level))
	fail(checkList("warnings", result.Warnings, expect.Warnings))
	fail(checkList("changes", changeTitles(result.RequiredChanges), expect.Changes))
	for _, substr := range expect.ExplanationContains {
		fail(checkExplanation(result, substr))
	}

	return failures
}

func checkScore(result ir.CompatibilityResult, want *int) error {
	if want == nil || result.Score == *want {
		return nil
	}
	return &ExpectationError{
		Field:    "score",
		Expected: fmt.Sprintf("%d", *want),
		Actual:   fmt.Sprintf("%d", result.Score),
	}
}

func checkLevel(result ir.CompatibilityResult, want string) error {
	if want == "" {
		return nil
	}
	level, err := ir.ParseLevel(want)
	if err != nil {
		return &ExpectationError{Field: "level", Expected: want, Actual: err.Error()}
	}
	if level == result.Level {
		return nil
	}
	return &ExpectationError{Field: "level", Expected: level.String(), Actual: result.Level.String()}
}

// checkList requires an exact, ordered match.
func checkList(field string, got []string, want *[]string) error {
	if want == nil {
		return nil
	}
	if equalStrings(got, *want) {
		return nil
	}
	return &ExpectationError{
		Field:    field,
		Expected: quoteList(*want),
		Actual:   quoteList(got),
	}
}

func checkExplanation(result ir.CompatibilityResult, substr string) error {
	if strings.Contains(result.Explanation, substr) {
		return nil
	}
	return &ExpectationError{
		Field:    "explanation",
		Expected: fmt.Sprintf("text containing %q", substr),
		Actual:   fmt.Sprintf("%q", result.Explanation),
	}
}

func changeTitles(changes []ir.ChangeItem) []string {
	titles := make([]string, len(changes))
	for i, c := range changes {
		titles[i] = c.Title
	}
	return titles
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
