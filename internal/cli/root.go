package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ormminus/internal/config"
)

// RootOptions holds global flags for all commands, and the configuration
// resolved from them before any command runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	Config config.Config
}

// configFlags maps configuration keys to the flags that override them.
var configFlags = map[string]string{
	"format":         "format",
	"verbose":        "verbose",
	"iterate":        "iterate",
	"max_iterations": "max-iterations",
	"passes":         "passes",
	"journal":        "journal",
}

// NewRootCommand creates the root command for the ormminus CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ormminus",
		Short: "ormminus - ORM to ORM- schema reduction",
		Long: `Rewrites an ORM conceptual schema into the ORM- subset: absorbs compound
reference schemes, prunes constraints ORM- cannot express, breaks subset
cycles and unifies subset hierarchies under root roles.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveConfig(opts, cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default .ormminus.yaml)")

	cmd.AddCommand(NewReduceCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolveConfig layers flags over environment, config file and defaults,
// and writes the result back into opts.
func resolveConfig(opts *RootOptions, cmd *cobra.Command) error {
	v, err := config.New(opts.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	for key, name := range configFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	opts.Config = cfg
	opts.Format = cfg.Format
	opts.Verbose = cfg.Verbose
	return nil
}

// newLogger writes text logs to w: Info by default, Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
