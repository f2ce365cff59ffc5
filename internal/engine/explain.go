package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/swapcheck/internal/ir"
)

// Explain renders result as human-readable text.
//
// Sections, in fixed order: header naming donor and target, level, score,
// required changes, warnings, recommended approach. Sections whose backing
// list or text is empty are omitted entirely.
func Explain(donor, target *ir.EngineProfile, result ir.CompatibilityResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Evaluating swap: %s (%s) -> Target mimicking %s (%s).\n",
		profileCode(donor), profilePhase(donor), profileCode(target), profilePhase(target))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Compatibility Level: %s\n", result.Level)
	fmt.Fprintf(&sb, "Score: %d/100\n", result.Score)

	if len(result.RequiredChanges) > 0 {
		sb.WriteString("\nRequired Changes:\n")
		for _, change := range result.RequiredChanges {
			fmt.Fprintf(&sb, "- [%s] %s: %s\n", change.Severity, change.Title, change.Details)
		}
	}

	if len(result.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warning := range result.Warnings {
			fmt.Fprintf(&sb, "- %s\n", warning)
		}
	}

	if result.RecommendedApproach != "" {
		fmt.Fprintf(&sb, "\nRecommended Approach: %s\n", result.RecommendedApproach)
	}

	return sb.String()
}

func profileCode(p *ir.EngineProfile) string {
	if p == nil {
		return ""
	}
	return p.Code
}

func profilePhase(p *ir.EngineProfile) ir.Phase {
	if p == nil {
		return ir.PhaseUnknown
	}
	return p.Phase
}
