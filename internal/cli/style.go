package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/swapcheck/internal/ir"
)

// Level colours, mildest to most severe.
var levelColors = map[ir.Level]lipgloss.Color{
	ir.LevelPlugAndPlay:    lipgloss.Color("#2CD7C7"),
	ir.LevelMinorMods:      lipgloss.Color("#F4D03F"),
	ir.LevelMajorMods:      lipgloss.Color("#E67E22"),
	ir.LevelNotRecommended: lipgloss.Color("#E74C3C"),
}

// styles renders terminal decoration for one writer. Colour is only
// emitted when w is a terminal, so redirected output and test buffers stay
// plain.
type styles struct {
	renderer *lipgloss.Renderer
}

func newStyles(w io.Writer) styles {
	return styles{renderer: lipgloss.NewRenderer(w)}
}

// level renders a level name in its colour, bold.
func (s styles) level(l ir.Level) string {
	return s.renderer.NewStyle().
		Bold(true).
		Foreground(levelColors[l]).
		Render(l.String())
}

// summary is the one-line verdict printed under an explanation.
func (s styles) summary(result ir.CompatibilityResult) string {
	return fmt.Sprintf("%s %s (%d/100)", s.mark(result.Level), s.level(result.Level), result.Score)
}

func (s styles) mark(l ir.Level) string {
	icon := "✓"
	switch l {
	case ir.LevelMinorMods, ir.LevelMajorMods:
		icon = "⚠"
	case ir.LevelNotRecommended:
		icon = "✗"
	}
	return s.renderer.NewStyle().Foreground(levelColors[l]).Render(icon)
}

// pass renders a ✓ or ✗ status mark.
func (s styles) pass(ok bool) string {
	if ok {
		return s.renderer.NewStyle().Foreground(levelColors[ir.LevelPlugAndPlay]).Render("✓")
	}
	return s.renderer.NewStyle().Foreground(levelColors[ir.LevelNotRecommended]).Render("✗")
}
