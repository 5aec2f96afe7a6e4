package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ormminus/internal/pipeline"
	"github.com/roach88/ormminus/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	RunID   string
	Element string
}

// RunList is the history of every journaled run.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

// RunDetail is one journaled run with its pass results.
type RunDetail struct {
	Run    store.Run             `json:"run"`
	Passes []pipeline.PassResult `json:"passes"`
}

// ElementHistory lists every journaled change to one element.
type ElementHistory struct {
	Element string                `json:"element"`
	Changes []store.ElementChange `json:"changes"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <journal>",
		Short: "Show journaled reduction runs",
		Long: `List the runs recorded in a journal written by 'ormminus reduce --journal'.

With --run, show every pass of one run and what it changed. With --element,
show every change to one element across all runs.

Example:
  ormminus history runs.db
  ormminus history runs.db --run 0190a7e2-...
  ormminus history runs.db --element UC_PersonHasName_person`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the passes of one run")
	cmd.Flags().StringVar(&opts.Element, "element", "", "show the changes to one element")
	cmd.MarkFlagsMutuallyExclusive("run", "element")

	return cmd
}

func runHistory(opts *HistoryOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Open would create a missing journal.
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error("E005", fmt.Sprintf("journal not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(string(pipeline.ErrCodeJournalFailed), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case opts.RunID != "":
		run, passes, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			_ = formatter.Error("E005", fmt.Sprintf("run %s not found", opts.RunID), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return formatter.Success(RunDetail{Run: run, Passes: passes})
	case opts.Element != "":
		changes, err := st.ElementHistory(ctx, opts.Element)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		return formatter.Success(ElementHistory{Element: opts.Element, Changes: changes})
	default:
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		return formatter.Success(RunList{Runs: runs})
	}
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs recorded"
	}
	var b strings.Builder
	for i, r := range l.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %-9s  %s  %d iteration(s)", r.ID, r.Status, r.Source, r.Iterations)
		if r.ErrorCode != "" {
			fmt.Fprintf(&b, "  [%s]", r.ErrorCode)
		}
	}
	return b.String()
}

func (d RunDetail) String() string {
	var b strings.Builder
	r := d.Run
	fmt.Fprintf(&b, "Run %s (%s)\n", r.ID, r.Status)
	fmt.Fprintf(&b, "Source: %s\n", r.Source)
	fmt.Fprintf(&b, "Passes: %s\n", strings.Join(r.Passes, ", "))
	fmt.Fprintf(&b, "Iterations: %d (iterate=%t, limit %d)\n", r.Iterations, r.Iterate, r.MaxIterations)
	if r.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.Error)
	}
	for _, p := range d.Passes {
		mark := " "
		if p.Changed {
			mark = "*"
		}
		fmt.Fprintf(&b, "\n%s [%d] %s (iteration %d)", mark, p.Seq, p.Pass, p.Iteration)
		for _, c := range p.Changes {
			fmt.Fprintf(&b, "\n      %s %s %s", c.Op, c.Kind, c.Name)
		}
	}
	for _, drop := range r.Dropped {
		fmt.Fprintf(&b, "\nDropped: %s", drop)
	}
	return b.String()
}

func (h ElementHistory) String() string {
	if len(h.Changes) == 0 {
		return fmt.Sprintf("No changes recorded for %s", h.Element)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Changes to %s:", h.Element)
	for _, c := range h.Changes {
		fmt.Fprintf(&b, "\n  %s  [%d] %s (iteration %d): %s %s", c.RunID, c.Seq, c.Pass, c.Iteration, c.Change.Op, c.Change.Kind)
	}
	return b.String()
}
