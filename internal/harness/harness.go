package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ormminus/internal/loader"
	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/pipeline"
	"github.com/roach88/ormminus/internal/store"
	"github.com/roach88/ormminus/internal/testutil"
)

// Harness is the scenario execution engine. It owns the journal and the
// deterministic ID generators of one scenario run.
type Harness struct {
	store      *store.Store
	elementIDs model.IDGenerator
	runIDs     model.IDGenerator
	logger     *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal.
// Execution flow:
// 1. Create fresh in-memory journal
// 2. Load the schema with sequential element IDs
// 3. Reduce it with the scenario's pipeline configuration
// 4. Evaluate assertions against the reduced schema, trace and journal
//
// A failed reduction is not an error: it is recorded in the result and
// checked by error assertions. Errors are returned only when the scenario
// cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:      st,
		elementIDs: testutil.NewSequentialIDs("el"),
		runIDs:     testutil.NewSequentialIDs("run"),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, errs := loader.LoadFile(scenario.Schema, loader.WithIDGenerator(h.elementIDs))
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load schema: %w", errors.Join(errs...))
	}

	p, err := pipeline.New(h.options(scenario, loaded.Dropped)...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure pipeline: %w", err)
	}

	result := NewResult()
	res, runErr := p.Run(ctx, loaded.Model)
	if res == nil {
		return nil, fmt.Errorf("failed to start run: %w", runErr)
	}
	for _, pr := range res.Passes {
		result.AddPass(pr)
	}
	result.Iterations = res.Iterations
	result.Fingerprint = res.Fingerprint
	if res.Dropped != nil {
		result.Dropped = res.Dropped
	}

	if runErr != nil {
		var pe *pipeline.PipelineError
		if !errors.As(runErr, &pe) {
			return nil, fmt.Errorf("run failed: %w", runErr)
		}
		result.ErrorCode = string(pe.Code)
		h.logger.Info("run failed", "scenario", scenario.Name, "code", pe.Code)
	}

	actx := &AssertionContext{
		Model: loaded.Model,
		Store: h.store,
		RunID: res.RunID,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	if runErr != nil && !expectsError(scenario.Assertions) {
		result.AddError(fmt.Sprintf("run failed unexpectedly: %v", runErr))
	}

	return result, nil
}

// options builds the pipeline configuration of a scenario.
func (h *Harness) options(scenario *Scenario, dropped []string) []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithLogger(h.logger),
		pipeline.WithRecorder(h.store),
		pipeline.WithRunIDs(h.runIDs),
		pipeline.WithSource(scenario.Name),
		pipeline.WithDropped(dropped),
	}
	if len(scenario.Passes) > 0 {
		opts = append(opts, pipeline.WithPasses(scenario.Passes...))
	}
	if scenario.Iterate != nil {
		opts = append(opts, pipeline.WithIterate(*scenario.Iterate))
	}
	if scenario.MaxIterations > 0 {
		opts = append(opts, pipeline.WithMaxIterations(scenario.MaxIterations))
	}
	return opts
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}
