package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/swapcheck/internal/ir"
)

func TestExplain_Minimal(t *testing.T) {
	donor := makeTestProfile("EJ251", ir.Phase2)
	target := makeTestProfile("EJ253", ir.Phase2)

	got := Explain(donor, target, ir.NewResult())

	want := "Evaluating swap: EJ251 (Phase2) -> Target mimicking EJ253 (Phase2).\n" +
		"\n" +
		"Compatibility Level: PlugAndPlay\n" +
		"Score: 100/100\n"
	assert.Equal(t, want, got)
}

func TestExplain_AllSections(t *testing.T) {
	donor := makeTestProfile("EJ251", ir.Phase2)
	target := makeTestProfile("EJ22E", ir.Phase1)

	result := ir.CompatibilityResult{
		Score: 35,
		Level: ir.LevelMajorMods,
		RequiredChanges: []ir.ChangeItem{
			{Title: "ECU", Details: "Use donor ECU and harness", Severity: ir.SeverityHigh},
			{Title: "Crank sensor", Details: "Match trigger wheel", Severity: ir.SeverityMedium},
		},
		Warnings:            []string{"Phase mismatch", "Check immobilizer"},
		RecommendedApproach: "Run the donor ECU standalone.",
	}

	got := Explain(donor, target, result)

	want := "Evaluating swap: EJ251 (Phase2) -> Target mimicking EJ22E (Phase1).\n" +
		"\n" +
		"Compatibility Level: MajorMods\n" +
		"Score: 35/100\n" +
		"\n" +
		"Required Changes:\n" +
		"- [High] ECU: Use donor ECU and harness\n" +
		"- [Medium] Crank sensor: Match trigger wheel\n" +
		"\n" +
		"Warnings:\n" +
		"- Phase mismatch\n" +
		"- Check immobilizer\n" +
		"\n" +
		"Recommended Approach: Run the donor ECU standalone.\n"
	assert.Equal(t, want, got)
}

func TestExplain_OmitsEmptySections(t *testing.T) {
	donor := makeTestProfile("EJ251", ir.Phase2)
	result := ir.NewResult()
	result.Warnings = []string{"only a warning"}

	got := Explain(donor, donor, result)

	assert.NotContains(t, got, "Required Changes:")
	assert.NotContains(t, got, "Recommended Approach:")
	assert.Contains(t, got, "Warnings:\n- only a warning\n")
}

func TestExplain_NilProfilesRenderBlank(t *testing.T) {
	got := Explain(nil, nil, ir.NewResult())
	assert.Contains(t, got, "Evaluating swap:  (Unknown) -> Target mimicking  (Unknown).")
}
