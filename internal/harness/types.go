package harness

import "github.com/roach88/ormminus/internal/pipeline"

// TraceEvent is one pass invocation of a scenario run.
type TraceEvent struct {
	Seq       int64             `json:"seq"`
	Pass      string            `json:"pass"`
	Iteration int               `json:"iteration"`
	Changed   bool              `json:"changed"`
	Changes   []pipeline.Change `json:"changes,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists every pass invocation in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Iterations  int      `json:"iterations"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Dropped     []string `json:"dropped"`

	// ErrorCode is the pipeline error code of a failed run.
	ErrorCode string `json:"error_code,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Dropped: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddPass appends a pass invocation to the trace.
func (r *Result) AddPass(pr pipeline.PassResult) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:       pr.Seq,
		Pass:      pr.Pass,
		Iteration: pr.Iteration,
		Changed:   pr.Changed,
		Changes:   pr.Changes,
	})
}
