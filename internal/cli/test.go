package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/swapcheck/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Score  int      `json:"score"`
	Level  string   `json:"level,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run rule scenarios",
		Long: `Run scenario files against their rules and check the expectations.

Each scenario names its rules, a donor and a target (or vehicle), and the
expected score, level, warnings, changes or explanation text. When
golden/<name>.golden exists next to a scenario file, the rendered
explanation must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  swapcheck test ./scenarios
  swapcheck test ./scenarios --filter "phase-*"
  swapcheck test ./scenarios --update
  swapcheck test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); err != nil {
		return f.Error(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", scenariosDir), nil)
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeInvalidInput, "failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	if len(scenarioFiles) == 0 {
		return f.Success(result, func(w io.Writer) {
			fmt.Fprintln(w, "No scenarios found.")
		})
	}

	h := harness.New(harness.WithLogger(opts.logger()))
	for _, file := range scenarioFiles {
		sr := runScenario(h, file, opts.Update)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	text := func(w io.Writer) { outputTestText(w, result, opts.Update) }
	if result.Failed > 0 {
		return f.Failure(ErrCodeTestFailed,
			fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total), result, text)
	}
	return f.Success(result, text)
}

// findScenarioFiles finds all YAML scenario files under dir, skipping
// golden directories.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario executes one scenario file and checks its golden file.
func runScenario(h *harness.Harness, scenarioFile string, update bool) ScenarioResult {
	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(scenarioFile),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := h.Run(scenario)
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioResult{
		Name:   scenario.Name,
		Pass:   result.Pass,
		Score:  result.Outcome.Score,
		Level:  result.Outcome.Level.String(),
		Errors: result.Errors,
	}

	goldenPath := goldenFilePath(scenarioFile)
	explanation := []byte(result.Outcome.Explanation)

	if update {
		if err := writeGoldenFile(goldenPath, explanation); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return sr
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		return sr
	}
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("failed to read golden file: %v", err))
		return sr
	}
	if !bytes.Equal(golden, explanation) {
		sr.Pass = false
		sr.Errors = append(sr.Errors, "explanation does not match golden file (run with --update to regenerate)")
	}
	return sr
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func outputTestText(w io.Writer, result TestResult, updated bool) {
	s := newStyles(w)
	for _, sr := range result.Scenarios {
		suffix := ""
		if sr.Pass && updated {
			suffix = " (golden updated)"
		}
		fmt.Fprintf(w, "%s %s%s\n", s.pass(sr.Pass), sr.Name, suffix)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}
