// Package watch reloads rules when their source files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Path is the rule file or directory to watch.
	Path string

	// Debounce is the quiet period after the last event before onChange
	// runs. Editors often write a file in several steps.
	Debounce time.Duration

	// Extensions limits which files trigger a reload (e.g. ".cue").
	Extensions []string
}

// Watcher watches rule sources and calls a reload callback after changes
// settle.
//
// A single file is watched through its parent directory, so editors that
// save by rename-and-replace keep triggering events.
type Watcher struct {
	cfg     Config
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	// file is the base name filter when Path is a single file.
	file string
}

// New creates a watcher for cfg.Path. The path must exist.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", cfg.Path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{cfg: cfg, logger: logger, watcher: fsw}

	dir := cfg.Path
	if !info.IsDir() {
		dir = filepath.Dir(cfg.Path)
		w.file = filepath.Base(cfg.Path)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	return w, nil
}

// Run processes events until ctx is cancelled, calling onChange once per
// burst of relevant events. A failing onChange is logged and watching
// continues. Run closes the underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	defer w.watcher.Close()

	w.logger.Info("file watcher started",
		"path", w.cfg.Path,
		"debounce_ms", w.cfg.Debounce.Milliseconds(),
	)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("file watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("file event detected",
				"path", event.Name,
				"op", event.Op.String(),
			)

			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Info("reloading rules", "path", w.cfg.Path)
			if err := onChange(ctx); err != nil {
				w.logger.Error("rule reload failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// relevant reports whether event should schedule a reload.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	base := filepath.Base(event.Name)
	if w.file != "" {
		return base == w.file
	}
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(w.cfg.Extensions) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range w.cfg.Extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
