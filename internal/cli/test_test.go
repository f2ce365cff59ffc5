package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTest_PassingScenarios(t *testing.T) {
	stdout, _, err := executeCommand(t, "test", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ can_into_impreza")
	assert.Contains(t, stdout, "✓ phase_mismatch")
	assert.Contains(t, stdout, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTest_Filter(t *testing.T) {
	stdout, _, err := executeCommand(t, "test", "testdata/scenarios", "--filter", "phase*", "--format", "json")
	require.NoError(t, err)

	var result TestResult
	decodeResponse(t, stdout, &result)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "phase_mismatch", result.Scenarios[0].Name)
	assert.Equal(t, 50, result.Scenarios[0].Score)
	assert.Equal(t, "MajorMods", result.Scenarios[0].Level)
}

// writeTestScenario writes a scenario against the shared test rules into
// dir and returns its path.
func writeTestScenario(t *testing.T, dir, name string, score int) string {
	t.Helper()

	rules, err := filepath.Abs(testRules)
	require.NoError(t, err)
	catalog, err := filepath.Abs(testCatalog)
	require.NoError(t, err)

	content := "name: " + name + "\n" +
		"description: generated\n" +
		"rules_file: " + rules + "\n" +
		"catalog_file: " + catalog + "\n" +
		"donor: EJ251\n" +
		"target: EJ22E\n" +
		"expect:\n" +
		"  score: " + strconv.Itoa(score) + "\n"

	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTest_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeTestScenario(t, dir, "wrong_score", 99)

	stdout, _, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ wrong_score")
	assert.Contains(t, stdout, "expectation failed: score")
	assert.Contains(t, stdout, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTest_UpdateThenCompareGolden(t *testing.T) {
	dir := t.TempDir()
	writeTestScenario(t, dir, "phase", 50)

	stdout, _, err := executeCommand(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ phase (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "phase.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), "Score: 50/100")

	_, _, err = executeCommand(t, "test", dir)
	require.NoError(t, err, "golden directory is not scanned for scenarios")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "phase.golden"), []byte("stale\n"), 0644))
	stdout, _, err = executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "does not match golden file")
}

func TestTest_InvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0644))

	stdout, _, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTest_NoScenarios(t *testing.T) {
	stdout, _, err := executeCommand(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", stdout)
}

func TestTest_Errors(t *testing.T) {
	_, _, err := executeCommand(t, "test", "testdata/missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = executeCommand(t, "test", "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "phase.golden"), goldenFilePath(filepath.Join("scenarios", "phase.yaml")))
}
