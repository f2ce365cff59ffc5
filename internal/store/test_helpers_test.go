package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/swapcheck/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock() string { return "2026-01-02T03:04:05Z" }

func testProfile(code string, phase ir.Phase) ir.EngineProfile {
	return ir.EngineProfile{
		Code:         code,
		Phase:        phase,
		YearRange:    "1999-2004",
		Throttle:     ir.ThrottleCable,
		AirMetering:  ir.AirMeteringMAF,
		ValveControl: ir.ValveControlNone,
		EcuBus:       ir.EcuBusNonCan,
	}
}

func testResult(score int, level ir.Level) ir.CompatibilityResult {
	r := ir.NewResult()
	r.Score = score
	r.Level = level
	r.Explanation = "explanation"
	return r
}
