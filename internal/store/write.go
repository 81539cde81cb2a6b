package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RecordRun writes run with its stages and diagnostics in one
// transaction. An empty ID is generated and a zero Seq is assigned the
// next counter value; both are written back into run.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if _, err := ParseStatus(string(run.Status)); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	id, seq := run.ID, run.Seq
	if id == "" {
		id = s.ids.Generate()
	}
	if seq == 0 {
		if seq, err = nextSeq(ctx, tx); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, input_path, input_fingerprint, output_fingerprint, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, seq, run.InputPath, run.InputFingerprint, run.OutputFingerprint, string(run.Status))
	if err != nil {
		return fmt.Errorf("record run: insert run: %w", err)
	}

	for i, st := range run.Stages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stages (run_id, position, stage, fingerprint, op_count, rewrites)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, st.Name, st.Fingerprint, st.OpCount, st.Rewrites)
		if err != nil {
			return fmt.Errorf("record run: insert stage %s: %w", st.Name, err)
		}
	}

	for i, d := range run.Diagnostics {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, position, code, rule, message)
			VALUES (?, ?, ?, ?, ?)
		`, id, i, d.Code, d.Rule, d.Message)
		if err != nil {
			return fmt.Errorf("record run: insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	run.ID, run.Seq = id, seq
	return nil
}

func nextSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM runs").Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// Prune deletes all but the newest keep runs and returns how many went.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE seq NOT IN (SELECT seq FROM runs ORDER BY seq DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return res.RowsAffected()
}
