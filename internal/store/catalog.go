package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/swapcheck/internal/ir"
)

// PutEngineProfile inserts or replaces the profile with p.Code.
func (s *Store) PutEngineProfile(ctx context.Context, p ir.EngineProfile) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("put engine profile: code is required")
	}

	profileJSON, err := marshalCanonical("engine profile", p)
	if err != nil {
		return fmt.Errorf("put engine profile: %w", err)
	}
	hash, err := ir.ProfileHash(p)
	if err != nil {
		return fmt.Errorf("put engine profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO engine_profiles (code, profile, profile_hash)
		VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			code = excluded.code,
			profile = excluded.profile,
			profile_hash = excluded.profile_hash
	`, p.Code, profileJSON, hash)
	if err != nil {
		return fmt.Errorf("put engine profile %s: %w", p.Code, err)
	}
	return nil
}

// GetEngineProfile returns the profile with the given code, ignoring case.
// Returns ErrNotFound if there is none.
func (s *Store) GetEngineProfile(ctx context.Context, code string) (ir.EngineProfile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT profile FROM engine_profiles WHERE code = ?
	`, code).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.EngineProfile{}, fmt.Errorf("engine profile %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return ir.EngineProfile{}, fmt.Errorf("get engine profile: %w", err)
	}

	var p ir.EngineProfile
	if err := unmarshalJSON("engine profile", data, &p); err != nil {
		return ir.EngineProfile{}, err
	}
	return p, nil
}

// ListEngineProfiles returns every engine profile ordered by code.
// Returns an empty slice (not nil) when the catalog is empty.
func (s *Store) ListEngineProfiles(ctx context.Context) ([]ir.EngineProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile FROM engine_profiles
		ORDER BY code COLLATE NOCASE ASC, code COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query engine profiles: %w", err)
	}
	defer rows.Close()

	profiles := []ir.EngineProfile{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan engine profile: %w", err)
		}
		var p ir.EngineProfile
		if err := unmarshalJSON("engine profile", data, &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engine profiles: %w", err)
	}
	return profiles, nil
}

// PutVehicleProfile inserts or replaces the vehicle under v.Key(). The
// stored profile always carries its key as ID.
func (s *Store) PutVehicleProfile(ctx context.Context, v ir.VehicleProfile) error {
	if strings.TrimSpace(v.ID) == "" && strings.TrimSpace(v.Model) == "" {
		return fmt.Errorf("put vehicle profile: id or model is required")
	}
	v.ID = v.Key()

	profileJSON, err := marshalCanonical("vehicle profile", v)
	if err != nil {
		return fmt.Errorf("put vehicle profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vehicle_profiles (id, profile)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET
			id = excluded.id,
			profile = excluded.profile
	`, v.ID, profileJSON)
	if err != nil {
		return fmt.Errorf("put vehicle profile %s: %w", v.ID, err)
	}
	return nil
}

// GetVehicleProfile returns the vehicle with the given key, ignoring case.
// Returns ErrNotFound if there is none.
func (s *Store) GetVehicleProfile(ctx context.Context, key string) (ir.VehicleProfile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT profile FROM vehicle_profiles WHERE id = ?
	`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.VehicleProfile{}, fmt.Errorf("vehicle profile %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return ir.VehicleProfile{}, fmt.Errorf("get vehicle profile: %w", err)
	}

	var v ir.VehicleProfile
	if err := unmarshalJSON("vehicle profile", data, &v); err != nil {
		return ir.VehicleProfile{}, err
	}
	return v, nil
}

// ListVehicleProfiles returns every vehicle ordered by key.
func (s *Store) ListVehicleProfiles(ctx context.Context) ([]ir.VehicleProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile FROM vehicle_profiles
		ORDER BY id COLLATE NOCASE ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query vehicle profiles: %w", err)
	}
	defer rows.Close()

	vehicles := []ir.VehicleProfile{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan vehicle profile: %w", err)
		}
		var v ir.VehicleProfile
		if err := unmarshalJSON("vehicle profile", data, &v); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicle profiles: %w", err)
	}
	return vehicles, nil
}

// ReplaceRules atomically replaces the stored rule list. Positions are the
// slice indexes, so ListRules returns rules in the same order.
func (s *Store) ReplaceRules(ctx context.Context, rules []ir.CompatibilityRule) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace rules: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
		return fmt.Errorf("replace rules: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rules (position, id, rule) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("replace rules: prepare: %w", err)
	}
	defer stmt.Close()

	for i, rule := range rules {
		ruleJSON, mErr := marshalCanonical("rule", rule)
		if mErr != nil {
			err = fmt.Errorf("replace rules: rule %d: %w", i, mErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, i, rule.ID, ruleJSON); err != nil {
			return fmt.Errorf("replace rules: insert %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("replace rules: commit: %w", err)
	}
	return nil
}

// ListRules returns the stored rule list in evaluation order.
func (s *Store) ListRules(ctx context.Context) ([]ir.CompatibilityRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule FROM rules ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := []ir.CompatibilityRule{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		var rule ir.CompatibilityRule
		if err := unmarshalJSON("rule", data, &rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}
