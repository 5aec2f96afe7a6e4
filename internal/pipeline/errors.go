package pipeline

import (
	"errors"
	"fmt"
)

// PipelineError represents a failure of a pipeline run as a whole, as
// opposed to a contract violation inside a pass (which panics).
type PipelineError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Pass names the pass that was running, if any.
	Pass string

	// Iteration is the sweep in which the error occurred (1-based, 0 if
	// the run had not started).
	Iteration int

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes pipeline errors.
type ErrorCode string

const (
	// ErrCodeIterationLimit indicates the pipeline did not reach a fixpoint
	// within the configured number of sweeps.
	ErrCodeIterationLimit ErrorCode = "ITERATION_LIMIT"

	// ErrCodeLineageInvalid indicates the subtype graph has a cycle or a
	// type with more than one root.
	ErrCodeLineageInvalid ErrorCode = "LINEAGE_INVALID"

	// ErrCodeJournalFailed indicates the run journal could not be written.
	ErrCodeJournalFailed ErrorCode = "JOURNAL_FAILED"

	// ErrCodeInvariantViolated indicates the rewritten graph failed its
	// structural invariant check.
	ErrCodeInvariantViolated ErrorCode = "INVARIANT_VIOLATED"

	// ErrCodeUnknownPass indicates a configured pass name is not known.
	ErrCodeUnknownPass ErrorCode = "UNKNOWN_PASS"
)

// Error implements the error interface.
func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Pass != "" {
		msg = fmt.Sprintf("%s (pass=%s, iteration=%d)", msg, e.Pass, e.Iteration)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is, or wraps, a PipelineError with code.
func HasCode(err error, code ErrorCode) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsIterationLimit reports whether err is an iteration limit failure.
// Matches both a PipelineError with ErrCodeIterationLimit and a bare
// IterationLimitError.
func IsIterationLimit(err error) bool {
	if HasCode(err, ErrCodeIterationLimit) {
		return true
	}
	var le *IterationLimitError
	return errors.As(err, &le)
}

// IsLineageError reports whether err is a lineage failure.
func IsLineageError(err error) bool {
	return HasCode(err, ErrCodeLineageInvalid)
}

// IsJournalError reports whether err is a journal failure.
func IsJournalError(err error) bool {
	return HasCode(err, ErrCodeJournalFailed)
}

// NewLineageError wraps a lineage build failure.
func NewLineageError(pass string, iteration int, err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeLineageInvalid,
		Message:   "subtype lineage is invalid",
		Pass:      pass,
		Iteration: iteration,
		Err:       err,
	}
}

// NewJournalError wraps a recorder failure.
func NewJournalError(op string, err error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeJournalFailed,
		Message: "journal " + op + " failed",
		Details: map[string]string{"op": op},
		Err:     err,
	}
}
