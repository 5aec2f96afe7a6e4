package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ormminus/internal/pipeline"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var _ pipeline.Recorder = (*Store)(nil)

// BeginRun inserts a run record with status running.
func (s *Store) BeginRun(ctx context.Context, run pipeline.RunInfo) error {
	passes, err := marshalNames(run.Passes)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, source, passes, iterate, max_iterations, initial_fingerprint, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Source,
		passes,
		run.Iterate,
		run.MaxIterations,
		run.Fingerprint,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordPass inserts a pass result and its change entries atomically.
//
// Note: The run referenced by runID must exist (foreign key constraint).
func (s *Store) RecordPass(ctx context.Context, runID string, pass pipeline.PassResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record pass: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pass_results
		(run_id, seq, pass, iteration, changed)
		VALUES (?, ?, ?, ?, ?)
	`,
		runID,
		pass.Seq,
		pass.Pass,
		pass.Iteration,
		pass.Changed,
	)
	if err != nil {
		return fmt.Errorf("record pass: insert: %w", err)
	}

	for i, c := range pass.Changes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO changes
			(run_id, seq, idx, op, kind, name)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, pass.Seq, i, c.Op, c.Kind, c.Name)
		if err != nil {
			return fmt.Errorf("record pass: change %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record pass: commit: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run. A nil runErr marks the run
// completed; otherwise it is marked failed with the error's message and,
// for pipeline errors, its code. res may be nil when the run failed early.
func (s *Store) FinishRun(ctx context.Context, runID string, res *pipeline.Result, runErr error) error {
	status := StatusCompleted
	var code, message string
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
		var pe *pipeline.PipelineError
		if errors.As(runErr, &pe) {
			code = string(pe.Code)
		}
	}

	var iterations int
	var fingerprint string
	var dropped []string
	if res != nil {
		iterations, fingerprint, dropped = res.Iterations, res.Fingerprint, res.Dropped
	}
	droppedJSON, err := marshalNames(dropped)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, iterations = ?, fingerprint = ?, dropped = ?, error_code = ?, error = ?
		WHERE id = ? AND status = ?
	`, status, iterations, fingerprint, droppedJSON, code, message, runID, StatusRunning)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: no running run %q", runID)
	}
	return nil
}
