package pipeline

import "fmt"

// IterationQuota bounds the number of sweeps a run may take.
type IterationQuota struct {
	limit   int
	current int
}

// NewIterationQuota creates a quota allowing limit sweeps.
func NewIterationQuota(limit int) *IterationQuota {
	return &IterationQuota{limit: limit}
}

// Check counts one sweep and fails once the limit is exceeded.
func (q *IterationQuota) Check() error {
	q.current++
	if q.current > q.limit {
		return &IterationLimitError{Iterations: q.current, Limit: q.limit}
	}
	return nil
}

// Current returns the number of sweeps counted so far.
func (q *IterationQuota) Current() int {
	return q.current
}

// Limit returns the configured maximum.
func (q *IterationQuota) Limit() int {
	return q.limit
}

// IterationLimitError is returned when a run is still changing the graph
// after the allowed number of sweeps.
type IterationLimitError struct {
	Iterations int
	Limit      int
}

// Error implements the error interface.
func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("no fixpoint after %d sweeps (limit %d)", e.Iterations-1, e.Limit)
}
