package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/swapcheck/internal/engine"
)

// ErrNoEngine is returned when a LoadFunc reports success without an engine.
var ErrNoEngine = errors.New("rule load returned no engine")

// LoadFunc builds a fresh engine from the current rule sources.
type LoadFunc func(ctx context.Context) (*engine.Engine, error)

// ReloadRecorder receives the outcome of every reload attempt.
type ReloadRecorder interface {
	RecordReload(ruleCount int, err error)
}

// Reloader holds the active engine and swaps it atomically on reload.
// Evaluations in flight keep using the engine they started with.
type Reloader struct {
	load     LoadFunc
	current  atomic.Pointer[engine.Engine]
	recorder ReloadRecorder
	logger   *slog.Logger
}

// NewReloader loads the initial engine. An initial load failure is
// returned; later failures keep the previous engine active.
func NewReloader(ctx context.Context, load LoadFunc, recorder ReloadRecorder, logger *slog.Logger) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reloader{load: load, recorder: recorder, logger: logger}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Engine returns the active engine.
func (r *Reloader) Engine() *engine.Engine {
	return r.current.Load()
}

// Reload rebuilds the engine. On failure the active engine is unchanged.
func (r *Reloader) Reload(ctx context.Context) error {
	eng, err := r.load(ctx)
	if err == nil && eng == nil {
		err = ErrNoEngine
	}
	if err != nil {
		if r.recorder != nil {
			r.recorder.RecordReload(0, err)
		}
		return err
	}

	prev := r.current.Swap(eng)
	if r.recorder != nil {
		r.recorder.RecordReload(len(eng.Rules()), nil)
	}

	attrs := []any{"rules", len(eng.Rules()), "rule_set_hash", eng.RuleSetHash()}
	if prev != nil {
		attrs = append(attrs, "previous_rule_set_hash", prev.RuleSetHash())
	}
	r.logger.Info("rules loaded", attrs...)
	return nil
}
