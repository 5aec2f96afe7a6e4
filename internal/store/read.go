package store

import (
	"context"
	"fmt"

	"github.com/roach88/ormminus/internal/pipeline"
)

// Run is a journaled pipeline run.
type Run struct {
	Seq                int64    `json:"seq"`
	ID                 string   `json:"id"`
	Source             string   `json:"source"`
	Passes             []string `json:"passes"`
	Iterate            bool     `json:"iterate"`
	MaxIterations      int      `json:"max_iterations"`
	InitialFingerprint string   `json:"initial_fingerprint"`
	Status             string   `json:"status"`
	Iterations         int      `json:"iterations"`
	Fingerprint        string   `json:"fingerprint,omitempty"`
	Dropped            []string `json:"dropped"`
	ErrorCode          string   `json:"error_code,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// ElementChange is one change entry touching a named element.
type ElementChange struct {
	RunID     string          `json:"run_id"`
	Seq       int64           `json:"seq"`
	Pass      string          `json:"pass"`
	Iteration int             `json:"iteration"`
	Change    pipeline.Change `json:"change"`
}

const runColumns = `seq, id, source, passes, iterate, max_iterations, initial_fingerprint,
	status, iterations, fingerprint, dropped, error_code, error`

// ListRuns returns every journaled run in the order the runs began.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a run and its pass results, ordered by seq, each with
// its change entries in change-log order.
// Returns sql.ErrNoRows (wrapped) if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, []pipeline.PassResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, nil, err
	}

	passes, err := s.readPasses(ctx, id)
	if err != nil {
		return Run{}, nil, err
	}
	return run, passes, nil
}

func (s *Store) readPasses(ctx context.Context, runID string) ([]pipeline.PassResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, pass, iteration, changed
		FROM pass_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query pass results: %w", err)
	}
	defer rows.Close()

	passes := []pipeline.PassResult{}
	index := make(map[int64]int)
	for rows.Next() {
		var pr pipeline.PassResult
		if err := rows.Scan(&pr.Seq, &pr.Pass, &pr.Iteration, &pr.Changed); err != nil {
			return nil, fmt.Errorf("scan pass result: %w", err)
		}
		index[pr.Seq] = len(passes)
		passes = append(passes, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pass results: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, `
		SELECT seq, op, kind, name
		FROM changes
		WHERE run_id = ?
		ORDER BY seq ASC, idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var seq int64
		var c pipeline.Change
		if err := crows.Scan(&seq, &c.Op, &c.Kind, &c.Name); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		i, ok := index[seq]
		if !ok {
			return nil, fmt.Errorf("change at seq %d has no pass result", seq)
		}
		passes[i].Changes = append(passes[i].Changes, c)
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return passes, nil
}

// ElementHistory returns every change entry naming the element, across all
// runs, ordered by run and then by seq.
func (s *Store) ElementHistory(ctx context.Context, name string) ([]ElementChange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.run_id, c.seq, p.pass, p.iteration, c.op, c.kind, c.name
		FROM changes c
		JOIN pass_results p ON p.run_id = c.run_id AND p.seq = c.seq
		JOIN runs r ON r.id = c.run_id
		WHERE c.name = ?
		ORDER BY r.seq ASC, c.seq ASC, c.idx ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query element history: %w", err)
	}
	defer rows.Close()

	out := []ElementChange{}
	for rows.Next() {
		var ec ElementChange
		if err := rows.Scan(&ec.RunID, &ec.Seq, &ec.Pass, &ec.Iteration, &ec.Change.Op, &ec.Change.Kind, &ec.Change.Name); err != nil {
			return nil, fmt.Errorf("scan element change: %w", err)
		}
		out = append(out, ec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate element history: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var passes, dropped string
	err := row.Scan(
		&run.Seq,
		&run.ID,
		&run.Source,
		&passes,
		&run.Iterate,
		&run.MaxIterations,
		&run.InitialFingerprint,
		&run.Status,
		&run.Iterations,
		&run.Fingerprint,
		&dropped,
		&run.ErrorCode,
		&run.Error,
	)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.Passes, err = unmarshalNames(passes); err != nil {
		return Run{}, err
	}
	if run.Dropped, err = unmarshalNames(dropped); err != nil {
		return Run{}, err
	}
	return run, nil
}
