package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ormminus/internal/loader"
	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/pipeline"
	"github.com/roach88/ormminus/internal/store"
)

// ReduceOptions holds flags for the reduce command.
type ReduceOptions struct {
	*RootOptions
	Output string

	// RunIDs and ElementIDs override the UUIDv7 generators (for testing).
	RunIDs     model.IDGenerator
	ElementIDs model.IDGenerator
}

// ReduceReport summarizes a reduction.
type ReduceReport struct {
	Schema             string                `json:"schema"`
	RunID              string                `json:"run_id,omitempty"`
	Iterations         int                   `json:"iterations"`
	InitialFingerprint string                `json:"initial_fingerprint"`
	Fingerprint        string                `json:"fingerprint"`
	Passes             []pipeline.PassResult `json:"passes"`
	Dropped            []string              `json:"dropped"`
	ObjectTypes        int                   `json:"object_types"`
	Relationships      int                   `json:"relationships"`
	Constraints        int                   `json:"constraints"`

	verbose bool
}

// NewReduceCommand creates the reduce command.
func NewReduceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReduceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reduce <schema>",
		Short: "Rewrite a schema into ORM-",
		Long: `Load a CUE or YAML schema, run the rewrite passes until no pass changes
the schema, and report what each pass changed and which constraints were
dropped.

Example:
  ormminus reduce people.yaml
  ormminus reduce --journal runs.db --output people.json people.cue
  ormminus reduce --passes subset-pruning,root-roles --iterate=false people.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the reduced schema's canonical snapshot to this file")
	cmd.Flags().Bool("iterate", true, "repeat the passes until none changes the schema")
	cmd.Flags().Int("max-iterations", pipeline.DefaultMaxIterations, "sweep limit when iterating")
	cmd.Flags().StringSlice("passes", nil, "comma-separated pass names to run, in order (default all)")
	cmd.Flags().String("journal", "", "record the run in this SQLite journal")

	return cmd
}

func runReduce(opts *ReduceOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	var lopts []loader.Option
	if opts.ElementIDs != nil {
		lopts = append(lopts, loader.WithIDGenerator(opts.ElementIDs))
	}
	loaded, errs := loader.LoadFile(path, lopts...)
	if len(errs) > 0 {
		return loadFailure(formatter, errs)
	}
	formatter.VerboseLog("loaded %s: %d object type(s), %d relationship(s), %d constraint(s)",
		path, loaded.Model.ObjectTypes.Len(), loaded.Model.Relationships.Len(), loaded.Model.Constraints.Len())

	popts := append(opts.Config.PipelineOptions(),
		pipeline.WithLogger(logger),
		pipeline.WithSource(path),
		pipeline.WithDropped(loaded.Dropped),
	)
	if opts.RunIDs != nil {
		popts = append(popts, pipeline.WithRunIDs(opts.RunIDs))
	}

	if journal := opts.Config.Journal; journal != "" {
		st, err := store.Open(journal)
		if err != nil {
			_ = formatter.Error(string(pipeline.ErrCodeJournalFailed), err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		popts = append(popts, pipeline.WithRecorder(st))
	}

	p, err := pipeline.New(popts...)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid pipeline configuration", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx, loaded.Model)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "reduction failed", err)
	}

	if opts.Output != "" {
		data, err := model.Canonical(loaded.Model)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to encode reduced schema", err)
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("wrote %s", opts.Output)
	}

	report := ReduceReport{
		Schema:             loaded.Name,
		Iterations:         res.Iterations,
		InitialFingerprint: res.InitialFingerprint,
		Fingerprint:        res.Fingerprint,
		Passes:             res.Passes,
		Dropped:            res.Dropped,
		ObjectTypes:        loaded.Model.ObjectTypes.Len(),
		Relationships:      loaded.Model.Relationships.Len(),
		Constraints:        loaded.Model.Constraints.Len(),
		verbose:            opts.Verbose,
	}
	if opts.Config.Journal != "" {
		report.RunID = res.RunID
	}
	if report.Dropped == nil {
		report.Dropped = []string{}
	}
	return formatter.Success(report)
}

// String renders the text report: the passes that changed the schema with
// their change logs, the dropped elements and the final element counts.
func (r ReduceReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reduced %s in %d iteration(s)\n", r.Schema, r.Iterations)
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	}
	if r.verbose {
		fmt.Fprintf(&b, "Fingerprint: %s -> %s\n", r.InitialFingerprint, r.Fingerprint)
	}

	b.WriteString("\nPasses that changed the schema:\n")
	changed := 0
	for _, p := range r.Passes {
		if !p.Changed {
			continue
		}
		changed++
		fmt.Fprintf(&b, "  [%d] %s (iteration %d)\n", p.Seq, p.Pass, p.Iteration)
		for _, c := range p.Changes {
			fmt.Fprintf(&b, "      %s %s %s\n", c.Op, c.Kind, c.Name)
		}
	}
	if changed == 0 {
		b.WriteString("  (none)\n")
	}

	if len(r.Dropped) > 0 {
		fmt.Fprintf(&b, "\nDropped (%d):\n", len(r.Dropped))
		for _, d := range r.Dropped {
			fmt.Fprintf(&b, "  - %s\n", d)
		}
	}

	fmt.Fprintf(&b, "\nResult: %d object type(s), %d relationship(s), %d constraint(s)",
		r.ObjectTypes, r.Relationships, r.Constraints)
	return b.String()
}
