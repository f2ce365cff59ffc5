package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/swapcheck/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid         bool                       `json:"valid"`
	Files         []string                   `json:"files"`
	Rules         int                        `json:"rules"`
	Engines       int                        `json:"engines"`
	Vehicles      int                        `json:"vehicles"`
	CompileErrors []string                   `json:"compile_errors,omitempty"`
	Findings      []compiler.ValidationError `json:"findings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [rules-path]",
		Short: "Compile and lint rule sources",
		Long: `Compile rule, engine and vehicle sources and lint the rules.

Lint catches rules that evaluate without error but probably not as
intended: misspelled attribute names (silently ignored), empty conditions
(never fire), enum values no engine can render, and duplicate IDs.

Exit codes:
  0 - All sources compiled and no lint findings
  1 - Compile errors or lint findings
  2 - Command error (path not found)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.cfg().Rules
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if path == "" {
		return f.Error(ExitCommandError, ErrCodeInvalidInput, "no rules path given and none configured", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return f.Error(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("rules path not found: %s", path), err)
	}

	result := ValidationResult{Files: []string{}}

	bundle, err := compiler.Load(path)
	if err != nil {
		result.CompileErrors = splitErrors(err)
	}
	if bundle != nil {
		result.Files = append(result.Files, bundle.Files...)
		result.Rules = len(bundle.Rules)
		result.Engines = len(bundle.Engines)
		result.Vehicles = len(bundle.Vehicles)
		result.Findings = compiler.Lint(bundle.Rules)
	}

	for _, file := range result.Files {
		f.VerboseLog("Compiled %s", file)
	}

	result.Valid = len(result.CompileErrors) == 0 && len(result.Findings) == 0
	if result.Valid {
		return f.Success(result, func(w io.Writer) {
			fmt.Fprintf(w, "✓ All sources valid (%d rules, %d engines, %d vehicles)\n",
				result.Rules, result.Engines, result.Vehicles)
		})
	}

	code := ErrCodeLintFailed
	if len(result.CompileErrors) > 0 {
		code = ErrCodeLoadFailed
	}
	problems := len(result.CompileErrors) + len(result.Findings)

	return f.Failure(code, fmt.Sprintf("validation failed with %d problem(s)", problems), result, func(w io.Writer) {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, msg := range result.CompileErrors {
			fmt.Fprintf(w, "  %s\n", msg)
		}
		for _, finding := range result.Findings {
			fmt.Fprintf(w, "  %s\n", finding.Error())
		}
	})
}

// splitErrors flattens an errors.Join tree into one message per error.
func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
