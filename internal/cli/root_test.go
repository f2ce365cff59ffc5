package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRules   = "testdata/rules/rules.yaml"
	testCatalog = "testdata/catalog/catalog.cue"
)

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// decodeResponse parses a JSON CLIResponse, decoding Data into data.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()

	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Data: data, Error: raw.Error}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "swapcheck", cmd.Use)
	assert.Contains(t, cmd.Long, "donor engine")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"evaluate", "validate", "rules", "engines", "vehicles", "import", "history", "test", "watch"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestEvaluateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	evalCmd, _, err := cmd.Find([]string{"evaluate"})
	require.NoError(t, err)

	for _, name := range []string{"rules", "catalog", "db", "vehicle", "record", "fail-on"} {
		assert.NotNil(t, evalCmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := executeCommand(t, "validate", testRules, "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.False(t, IsReported(err), "pre-run errors are left for main to print")
}

func TestMissingConfigFile(t *testing.T) {
	_, _, err := executeCommand(t, "validate", testRules, "--config", "testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLogFormatFromConfig(t *testing.T) {
	var buf bytes.Buffer
	opts := &RootOptions{}
	cfg := opts.cfg()
	cfg.Log.Format = "json"

	logger := newLogger(&buf, cfg.Log, true)
	logger.Debug("hello", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "DEBUG", entry["level"])
}
