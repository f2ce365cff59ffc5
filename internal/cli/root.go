package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/swapcheck/internal/config"
)

// RootOptions holds global flags and the resolved configuration shared by
// all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded in PersistentPreRunE. Tests may set it directly.
	Config *config.Config

	// Logger writes to the command's stderr. Set in PersistentPreRunE.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the swapcheck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "swapcheck",
		Short: "swapcheck - engine swap compatibility checker",
		Long: `Evaluate how compatible a donor engine is with a target engine or chassis.

Compatibility is decided by an ordered table of declarative rules written in
CUE, JSON or YAML. Each matching rule adjusts a score, may escalate the
compatibility level, and may add warnings and required changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Config == nil {
				cfg, err := config.LoadWithEnvOverrides(opts.ConfigPath)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load configuration", err)
				}
				opts.Config = cfg
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Config.Log, opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to configuration file (default ./"+config.DefaultFileName+" if present)")

	cmd.AddCommand(NewEvaluateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewEnginesCommand(opts))
	cmd.AddCommand(NewVehiclesCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// newLogger builds the process logger. --verbose forces debug level;
// otherwise the configured level applies.
func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) *slog.Logger {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// logger returns opts.Logger, or a discarding logger when a subcommand is
// executed without the root (as unit tests do).
func (opts *RootOptions) logger() *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cfg returns opts.Config, or defaults when unset.
func (opts *RootOptions) cfg() *config.Config {
	if opts.Config != nil {
		return opts.Config
	}
	return config.Default()
}

// formatter builds an OutputFormatter bound to cmd's writers.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
