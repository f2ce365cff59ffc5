package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"string slice", []string{"b", "a"}, `["b","a"]`},
		{"empty object", map[string]any{}, "{}"},
		{"string map", map[string]string{"b": "2", "a": "1"}, `{"a":"1","b":"2"}`},
		{"no html escaping", "<a & b>", `"<a & b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	for _, v := range []any{nil, 1.5, float32(2), struct{}{}, map[string]any{"a": nil}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%T should be rejected", v)
	}
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	out, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(out))

	// A literal backslash followed by u2028 text stays escaped.
	out, err = MarshalCanonical(`x\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(out))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	composed := "Caf\u00e9"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as surrogates (0xD83D...) which sort before U+FF5E in UTF-16.
	obj := map[string]int{"\uff5e": 1, "\U0001F600": 2, "a": 3}
	assert.Equal(t, []string{"a", "\U0001F600", "\uff5e"}, SortedKeys(obj))
}

func TestRuleCanonicalRoundTrip(t *testing.T) {
	rule := CompatibilityRule{
		ID: "phase2-into-phase1",
		When: &RuleCondition{
			Donor:  Criteria{"phase": "Phase2"},
			Target: Criteria{"phase": "Phase1"},
		},
		Effect: &RuleEffect{
			Level:      LevelPtr(LevelMajorMods),
			ScoreDelta: -50,
			AddWarning: "Phase mismatch",
			AddChange:  &ChangeItem{Title: "Harness", Details: "Repin", Severity: SeverityHigh},
		},
	}

	data, err := MarshalCanonical(rule.Canonical())
	require.NoError(t, err)

	var back CompatibilityRule
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rule, back)
}

func TestRuleCanonicalOmitsAbsentParts(t *testing.T) {
	data, err := MarshalCanonical(CompatibilityRule{ID: "bare"}.Canonical())
	require.NoError(t, err)
	assert.Equal(t, `{"id":"bare"}`, string(data))

	data, err = MarshalCanonical(CompatibilityRule{ID: "x", When: &RuleCondition{Donor: Criteria{}}}.Canonical())
	require.NoError(t, err)
	assert.Equal(t, `{"id":"x","when":{"donor":{}}}`, string(data))
}
