package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/swapcheck/internal/compiler"
	"github.com/roach88/swapcheck/internal/ir"
	"github.com/roach88/swapcheck/internal/store"
)

// SourceOptions are the flags shared by commands that read rules and
// catalog data. Empty flags fall back to the configuration.
type SourceOptions struct {
	Rules    string
	Catalog  string
	Database string
}

// resolve fills empty fields from cfg. Catalog falls back to the rules
// path, since one source commonly holds both.
func (s SourceOptions) resolve(opts *RootOptions) SourceOptions {
	cfg := opts.cfg()
	if s.Rules == "" {
		s.Rules = cfg.Rules
	}
	if s.Catalog == "" {
		s.Catalog = cfg.Catalog
	}
	if s.Catalog == "" {
		s.Catalog = s.Rules
	}
	if s.Database == "" {
		s.Database = cfg.Database
	}
	return s
}

// loadSource compiles path and maps failures to exit codes: a missing
// path is a command error, a compile failure is a load error.
func loadSource(f *OutputFormatter, what, path string) (*compiler.Bundle, error) {
	bundle, err := compiler.Load(path)
	if err == nil {
		f.VerboseLog("Loaded %s from %s (%d file(s))", what, path, len(bundle.Files))
		return bundle, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, f.Error(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("%s not found: %s", what, path), err)
	}
	return nil, f.Error(ExitCommandError, ErrCodeLoadFailed, fmt.Sprintf("failed to load %s from %s", what, path), err)
}

// databaseExists reports whether path names an existing database file.
// ":memory:" never exists.
func databaseExists(path string) bool {
	if path == "" || path == ":memory:" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// openStore opens the SQLite database, reporting failures as command errors.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Error(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database %s", path), err)
	}
	return st, nil
}

// catalog resolves engine codes and vehicle keys.
type catalog interface {
	engine(ctx context.Context, code string) (ir.EngineProfile, bool, error)
	vehicle(ctx context.Context, key string) (ir.VehicleProfile, bool, error)
}

type bundleCatalog struct {
	bundle *compiler.Bundle
}

func (c bundleCatalog) engine(_ context.Context, code string) (ir.EngineProfile, bool, error) {
	p, ok := c.bundle.Engine(code)
	return p, ok, nil
}

func (c bundleCatalog) vehicle(_ context.Context, key string) (ir.VehicleProfile, bool, error) {
	v, ok := c.bundle.Vehicle(key)
	return v, ok, nil
}

type storeCatalog struct {
	store *store.Store
}

func (c storeCatalog) engine(ctx context.Context, code string) (ir.EngineProfile, bool, error) {
	p, err := c.store.GetEngineProfile(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return ir.EngineProfile{}, false, nil
	}
	return p, err == nil, err
}

func (c storeCatalog) vehicle(ctx context.Context, key string) (ir.VehicleProfile, bool, error) {
	v, err := c.store.GetVehicleProfile(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return ir.VehicleProfile{}, false, nil
	}
	return v, err == nil, err
}

// chainCatalog consults each catalog in order; the first hit wins.
type chainCatalog []catalog

func (c chainCatalog) engine(ctx context.Context, code string) (ir.EngineProfile, bool, error) {
	for _, cat := range c {
		p, ok, err := cat.engine(ctx, code)
		if err != nil || ok {
			return p, ok, err
		}
	}
	return ir.EngineProfile{}, false, nil
}

func (c chainCatalog) vehicle(ctx context.Context, key string) (ir.VehicleProfile, bool, error) {
	for _, cat := range c {
		v, ok, err := cat.vehicle(ctx, key)
		if err != nil || ok {
			return v, ok, err
		}
	}
	return ir.VehicleProfile{}, false, nil
}
