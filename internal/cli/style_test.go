package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/swapcheck/internal/ir"
)

func TestStyles_PlainForNonTerminal(t *testing.T) {
	s := newStyles(&bytes.Buffer{})

	tests := []struct {
		level ir.Level
		score int
		want  string
	}{
		{ir.LevelPlugAndPlay, 100, "✓ PlugAndPlay (100/100)"},
		{ir.LevelMinorMods, 85, "⚠ MinorMods (85/100)"},
		{ir.LevelMajorMods, 50, "⚠ MajorMods (50/100)"},
		{ir.LevelNotRecommended, 0, "✗ NotRecommended (0/100)"},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			result := ir.NewResult()
			result.Level = tt.level
			result.Score = tt.score
			assert.Equal(t, tt.want, s.summary(result))
		})
	}

	assert.Equal(t, "✓", s.pass(true))
	assert.Equal(t, "✗", s.pass(false))
}
