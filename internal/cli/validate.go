package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ormminus/internal/lineage"
	"github.com/roach88/ormminus/internal/loader"
	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/pipeline"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Schema     string            `json:"schema"`
	Violations []model.Violation `json:"violations,omitempty"`
	Dropped    []string          `json:"dropped,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Check a schema without rewriting it",
		Long: `Load a CUE or YAML schema, build its subtype lineage and check the
structural invariants of the schema graph.

Exits with status 1 when the schema has errors or violations.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // We handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, errs := loader.LoadFile(path)
	if len(errs) > 0 {
		return loadFailure(formatter, errs)
	}
	m := loaded.Model
	formatter.VerboseLog("loaded %s: %d object type(s), %d relationship(s), %d constraint(s)",
		path, m.ObjectTypes.Len(), m.Relationships.Len(), m.Constraints.Len())

	if _, err := lineage.Build(m); err != nil {
		_ = formatter.Error(string(pipeline.ErrCodeLineageInvalid), err.Error(), nil)
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	result := ValidationResult{
		Schema:     loaded.Name,
		Violations: model.CheckInvariants(m),
		Dropped:    loaded.Dropped,
	}
	result.Valid = len(result.Violations) == 0
	if !result.Valid {
		return outputViolations(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema %s valid\n", result.Schema)
	for _, d := range result.Dropped {
		fmt.Fprintf(formatter.Writer, "  dropped: %s\n", d)
	}
	return nil
}

// outputViolations outputs every invariant violation.
func outputViolations(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		first := result.Violations[0]
		_ = formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		})
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, v := range result.Violations {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", v.Code, v.Element, v.Message)
		}
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", len(result.Violations)))
}
