package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ListRuns returns runs newest first, without stages or diagnostics. A
// non-empty input keeps only runs of that path; limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, input string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, input_path, input_fingerprint, output_fingerprint, status
		FROM runs
		WHERE ? = '' OR input_path = ?
		ORDER BY seq DESC
		LIMIT ?
	`, input, input, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run with its stages and diagnostics in order.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, input_path, input_fingerprint, output_fingerprint, status
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if r.Stages, err = s.readStages(ctx, id); err != nil {
		return nil, err
	}
	if r.Diagnostics, err = s.readDiagnostics(ctx, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) readStages(ctx context.Context, id string) ([]Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, fingerprint, op_count, rewrites
		FROM stages WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	var out []Stage
	for rows.Next() {
		var st Stage
		if err := rows.Scan(&st.Name, &st.Fingerprint, &st.OpCount, &st.Rewrites); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return out, nil
}

func (s *Store) readDiagnostics(ctx context.Context, id string) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, rule, message
		FROM diagnostics WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.Code, &d.Rule, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var status string
	if err := row.Scan(&r.ID, &r.Seq, &r.InputPath, &r.InputFingerprint, &r.OutputFingerprint, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan run: %w", err)
	}
	st, err := ParseStatus(status)
	if err != nil {
		return r, err
	}
	r.Status = st
	return r, nil
}
