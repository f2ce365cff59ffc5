package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/swapcheck/internal/ir"
)

// EvaluationRecord is one recorded evaluation.
type EvaluationRecord struct {
	ID            string                 `json:"id"`
	Seq           int64                  `json:"seq"`
	DonorCode     string                 `json:"donor_code"`
	TargetCode    string                 `json:"target_code"`
	VehicleID     string                 `json:"vehicle_id,omitempty"` // set for vehicle evaluations
	RuleSetHash   string                 `json:"rule_set_hash"`
	ResultHash    string                 `json:"result_hash"`
	EngineVersion string                 `json:"engine_version"`
	CreatedAt     string                 `json:"created_at"`
	Result        ir.CompatibilityResult `json:"result"`
}

// EvaluationFilter narrows ListEvaluations. Zero fields match everything.
type EvaluationFilter struct {
	DonorCode   string
	TargetCode  string
	RuleSetHash string
	Level       *ir.Level
	Limit       int
}

// RecordEvaluation appends an evaluation to the history and returns the
// stored record. ID, Seq, ResultHash and CreatedAt are assigned here; an
// ID already set on rec is kept.
func (s *Store) RecordEvaluation(ctx context.Context, rec EvaluationRecord) (EvaluationRecord, error) {
	if rec.ID == "" {
		rec.ID = s.ids.Generate()
	}
	if rec.EngineVersion == "" {
		rec.EngineVersion = ir.EngineVersion
	}
	rec.CreatedAt = s.clock()

	resultJSON, err := marshalCanonical("result", rec.Result)
	if err != nil {
		return EvaluationRecord{}, fmt.Errorf("record evaluation: %w", err)
	}
	rec.ResultHash, err = ir.ResultHash(rec.Result)
	if err != nil {
		return EvaluationRecord{}, fmt.Errorf("record evaluation: %w", err)
	}

	var vehicleID sql.NullString
	if rec.VehicleID != "" {
		vehicleID = sql.NullString{String: rec.VehicleID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations
		(id, donor_code, target_code, vehicle_id, rule_set_hash, result, result_hash,
		 score, level, engine_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.DonorCode,
		rec.TargetCode,
		vehicleID,
		rec.RuleSetHash,
		resultJSON,
		rec.ResultHash,
		rec.Result.Score,
		rec.Result.Level.String(),
		rec.EngineVersion,
		rec.CreatedAt,
	)
	if err != nil {
		return EvaluationRecord{}, fmt.Errorf("record evaluation: %w", err)
	}

	rec.Seq, err = res.LastInsertId()
	if err != nil {
		return EvaluationRecord{}, fmt.Errorf("record evaluation: seq: %w", err)
	}
	return rec, nil
}

const evaluationColumns = `seq, id, donor_code, target_code, vehicle_id, rule_set_hash,
	result, result_hash, engine_version, created_at`

// GetEvaluation returns the record with the given ID, or ErrNotFound.
func (s *Store) GetEvaluation(ctx context.Context, id string) (EvaluationRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = ?`, id)
	rec, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return EvaluationRecord{}, fmt.Errorf("evaluation %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return EvaluationRecord{}, fmt.Errorf("get evaluation: %w", err)
	}
	return rec, nil
}

// ListEvaluations returns matching records, oldest first.
// Ordered by seq ASC, id ASC COLLATE BINARY.
func (s *Store) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]EvaluationRecord, error) {
	var where []string
	var args []any
	if filter.DonorCode != "" {
		where = append(where, "donor_code = ? COLLATE NOCASE")
		args = append(args, filter.DonorCode)
	}
	if filter.TargetCode != "" {
		where = append(where, "target_code = ? COLLATE NOCASE")
		args = append(args, filter.TargetCode)
	}
	if filter.RuleSetHash != "" {
		where = append(where, "rule_set_hash = ?")
		args = append(args, filter.RuleSetHash)
	}
	if filter.Level != nil {
		where = append(where, "level = ?")
		args = append(args, filter.Level.String())
	}

	query := `SELECT ` + evaluationColumns + ` FROM evaluations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	records := []EvaluationRecord{}
	for rows.Next() {
		rec, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return records, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scanner) (EvaluationRecord, error) {
	var rec EvaluationRecord
	var vehicleID sql.NullString
	var resultJSON string
	err := row.Scan(
		&rec.Seq,
		&rec.ID,
		&rec.DonorCode,
		&rec.TargetCode,
		&vehicleID,
		&rec.RuleSetHash,
		&resultJSON,
		&rec.ResultHash,
		&rec.EngineVersion,
		&rec.CreatedAt,
	)
	if err != nil {
		return EvaluationRecord{}, err
	}
	rec.VehicleID = vehicleID.String

	rec.Result, err = unmarshalResult(resultJSON)
	if err != nil {
		return EvaluationRecord{}, err
	}
	return rec, nil
}
