package harness

import (
	"testing"

	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/testutil"
)

// TraceSnapshot captures the deterministic part of a scenario run.
type TraceSnapshot struct {
	Scenario   string       `json:"scenario"`
	Iterations int          `json:"iterations"`
	Dropped    []string     `json:"dropped"`
	ErrorCode  string       `json:"error_code,omitempty"`
	Trace      []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to the value types
// model.MarshalCanonical accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		entry := map[string]any{
			"seq":       event.Seq,
			"pass":      event.Pass,
			"iteration": event.Iteration,
			"changed":   event.Changed,
		}
		if len(event.Changes) > 0 {
			changes := make([]any, len(event.Changes))
			for j, c := range event.Changes {
				changes[j] = map[string]any{"op": c.Op, "kind": c.Kind, "name": c.Name}
			}
			entry["changes"] = changes
		}
		trace[i] = entry
	}

	out := map[string]any{
		"scenario":   s.Scenario,
		"iterations": s.Iterations,
		"dropped":    s.Dropped,
		"trace":      trace,
	}
	if s.ErrorCode != "" {
		out["error_code"] = s.ErrorCode
	}
	return out
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		Scenario:   scenarioName,
		Iterations: result.Iterations,
		Dropped:    result.Dropped,
		ErrorCode:  result.ErrorCode,
		Trace:      result.Trace,
	}
	data, err := model.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}
	testutil.AssertGolden(t, scenarioName, data)
	return nil
}
