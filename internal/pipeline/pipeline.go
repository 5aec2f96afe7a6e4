package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/ormminus/internal/lineage"
	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/transform"
)

// DefaultMaxIterations is the default sweep limit of an iterating run.
const DefaultMaxIterations = 10

// Change is one journaled element of a pass's change log.
type Change struct {
	Op   string `json:"op"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Change operations.
const (
	OpAdded    = "added"
	OpRemoved  = "removed"
	OpModified = "modified"
)

// PassResult records one pass invocation.
type PassResult struct {
	Seq       int64    `json:"seq"`
	Pass      string   `json:"pass"`
	Iteration int      `json:"iteration"`
	Changed   bool     `json:"changed"`
	Changes   []Change `json:"changes,omitempty"`
}

// RunInfo describes a run as it starts.
type RunInfo struct {
	ID            string
	Source        string
	Passes        []string
	Iterate       bool
	MaxIterations int
	Fingerprint   string
}

// Result is the outcome of a run.
type Result struct {
	RunID              string       `json:"run_id"`
	Iterations         int          `json:"iterations"`
	Passes             []PassResult `json:"passes"`
	InitialFingerprint string       `json:"initial_fingerprint"`
	Fingerprint        string       `json:"fingerprint"`
	Dropped            []string     `json:"dropped"`
}

// Changed reports whether any pass changed the graph.
func (r *Result) Changed() bool {
	for _, p := range r.Passes {
		if p.Changed {
			return true
		}
	}
	return false
}

// Recorder journals runs. FinishRun is called exactly once for every run
// whose BeginRun succeeded, with the run's error (nil on success).
type Recorder interface {
	BeginRun(ctx context.Context, run RunInfo) error
	RecordPass(ctx context.Context, runID string, pass PassResult) error
	FinishRun(ctx context.Context, runID string, res *Result, runErr error) error
}

// Pipeline runs rewrite passes over schema graphs. A Pipeline holds no
// per-run state and may be reused.
type Pipeline struct {
	passes        []string
	iterate       bool
	maxIterations int
	logger        *slog.Logger
	recorder      Recorder
	runIDs        model.IDGenerator
	source        string
	dropped       []string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for the pipeline and its passes.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithIterate controls whether the pass sequence repeats until a sweep
// reports no change. Default: true.
func WithIterate(iterate bool) Option {
	return func(p *Pipeline) { p.iterate = iterate }
}

// WithMaxIterations sets the sweep limit. Default: DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(p *Pipeline) { p.maxIterations = n }
}

// WithPasses replaces the pass sequence. Names must come from
// DefaultPasses; order is kept as given.
func WithPasses(names ...string) Option {
	return func(p *Pipeline) { p.passes = slices.Clone(names) }
}

// WithRecorder journals every run.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithRunIDs sets the generator for run IDs. Default: UUIDv7.
func WithRunIDs(g model.IDGenerator) Option {
	return func(p *Pipeline) { p.runIDs = g }
}

// WithSource names the schema being rewritten, for the journal.
func WithSource(name string) Option {
	return func(p *Pipeline) { p.source = name }
}

// WithDropped seeds the dropped report with elements the loader could not
// represent.
func WithDropped(descriptions []string) Option {
	return func(p *Pipeline) { p.dropped = slices.Clone(descriptions) }
}

// New creates a Pipeline. It fails on unknown or repeated pass names and
// on a sweep limit below one.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		passes:        DefaultPasses(),
		iterate:       true,
		maxIterations: DefaultMaxIterations,
		runIDs:        model.UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if err := validatePasses(p.passes); err != nil {
		return nil, err
	}
	if p.maxIterations < 1 {
		return nil, fmt.Errorf("pipeline: max iterations must be at least 1, got %d", p.maxIterations)
	}
	return p, nil
}

// Run is shorthand for New(opts...) followed by Run(ctx, m).
func Run(ctx context.Context, m *model.Model, opts ...Option) (*Result, error) {
	p, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, m)
}

// Passes returns the configured pass sequence.
func (p *Pipeline) Passes() []string {
	return slices.Clone(p.passes)
}

// Run rewrites m in place. On failure the partial result is returned with
// the error; m then reflects every pass that completed.
func (p *Pipeline) Run(ctx context.Context, m *model.Model) (res *Result, err error) {
	before, err := model.Fingerprint(m)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	res = &Result{RunID: p.runIDs.Generate(), InitialFingerprint: before}
	logger := p.logger.With("run", res.RunID)

	if p.recorder != nil {
		info := RunInfo{
			ID:            res.RunID,
			Source:        p.source,
			Passes:        p.Passes(),
			Iterate:       p.iterate,
			MaxIterations: p.maxIterations,
			Fingerprint:   before,
		}
		if err := p.recorder.BeginRun(ctx, info); err != nil {
			return nil, NewJournalError("begin", err)
		}
		defer func() {
			ferr := p.recorder.FinishRun(context.WithoutCancel(ctx), res.RunID, res, err)
			if ferr != nil && err == nil {
				err = NewJournalError("finish", ferr)
			}
		}()
	}

	idx, err := lineage.Build(m)
	if err != nil {
		return res, NewLineageError("", 0, err)
	}

	var removed []model.Constraint
	quota := NewIterationQuota(p.maxIterations)
	clock := NewClock()
	for {
		if err := quota.Check(); err != nil {
			return res, &PipelineError{
				Code:      ErrCodeIterationLimit,
				Message:   "pipeline did not reach a fixpoint",
				Iteration: quota.Current(),
				Details:   map[string]string{"limit": fmt.Sprint(quota.Limit())},
				Err:       err,
			}
		}
		iteration := quota.Current()
		res.Iterations = iteration
		swept := false

		for _, name := range p.passes {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			tr := registry[name](transform.Env{Model: m, Lineage: idx, Logger: p.logger})
			changed := tr.Execute()
			log := tr.Changes()
			pr := PassResult{
				Seq:       clock.Next(),
				Pass:      name,
				Iteration: iteration,
				Changed:   changed,
				Changes:   changesOf(log),
			}
			res.Passes = append(res.Passes, pr)
			removed = append(removed, log.RemovedConstraints()...)
			logger.Info("pass complete",
				"pass", name,
				"iteration", iteration,
				"changed", changed,
				"added", len(log.Added),
				"removed", len(log.Removed),
				"modified", len(log.Modified),
			)

			if p.recorder != nil {
				if err := p.recorder.RecordPass(ctx, res.RunID, pr); err != nil {
					return res, NewJournalError("record", err)
				}
			}
			if log.Touches(model.KindSubtype) {
				if idx, err = lineage.Build(m); err != nil {
					return res, NewLineageError(name, iteration, err)
				}
			}
			swept = swept || changed
		}
		if !p.iterate || !swept {
			break
		}
	}

	if err := p.check(m, idx); err != nil {
		return res, err
	}
	if res.Fingerprint, err = model.Fingerprint(m); err != nil {
		return res, fmt.Errorf("run: %w", err)
	}
	res.Dropped = p.droppedReport(m, removed)
	if len(res.Dropped) > 0 {
		logger.Warn("elements dropped", "count", len(res.Dropped))
	}
	logger.Info("run complete", "iterations", res.Iterations, "fingerprint", res.Fingerprint)
	return res, nil
}

// check verifies the structural invariants of the rewritten graph, and the
// guarantees of the subset and value passes when they ran.
func (p *Pipeline) check(m *model.Model, idx *lineage.Index) error {
	violations := model.CheckInvariants(m)
	if slices.Contains(p.passes, transform.SubsetPruningPass) {
		violations = append(violations, model.SubsetCycles(m)...)
	}
	if slices.Contains(p.passes, transform.ValueConstraintsPass) {
		violations = append(violations, lineage.CheckValueConstraints(idx)...)
	}
	if len(violations) == 0 {
		return nil
	}
	for _, v := range violations {
		p.logger.Error("invariant violated", "code", v.Code, "element", v.Element, "message", v.Message)
	}
	return &PipelineError{
		Code:    ErrCodeInvariantViolated,
		Message: fmt.Sprintf("%d invariant violation(s)", len(violations)),
		Details: map[string]string{"first": violations[0].Error()},
		Err:     violations[0],
	}
}

// droppedReport lists loader drops followed by every removed constraint
// that no constraint of the same name replaced.
func (p *Pipeline) droppedReport(m *model.Model, removed []model.Constraint) []string {
	out := slices.Clone(p.dropped)
	var seen []model.Constraint
	for _, c := range removed {
		if slices.Contains(seen, c) {
			continue
		}
		seen = append(seen, c)
		if _, replaced := m.Constraints.Get(c.Name()); replaced {
			continue
		}
		out = append(out, model.Describe(c))
	}
	return out
}

func changesOf(log transform.ChangeLog) []Change {
	var out []Change
	for _, set := range []struct {
		op    string
		elems []model.Element
	}{
		{OpAdded, log.Added},
		{OpRemoved, log.Removed},
		{OpModified, log.Modified},
	} {
		for _, e := range set.elems {
			out = append(out, Change{Op: set.op, Kind: model.KindName(e), Name: model.QualifiedName(e)})
		}
	}
	return out
}
