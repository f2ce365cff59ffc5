package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/swapcheck/internal/compiler"
)

func TestValidate_Valid(t *testing.T) {
	stdout, _, err := executeCommand(t, "validate", testRules)
	require.NoError(t, err)
	assert.Equal(t, "✓ All sources valid (3 rules, 0 engines, 0 vehicles)\n", stdout)

	stdout, _, err = executeCommand(t, "validate", testCatalog)
	require.NoError(t, err)
	assert.Equal(t, "✓ All sources valid (0 rules, 3 engines, 1 vehicles)\n", stdout)
}

func TestValidate_LintFindings(t *testing.T) {
	stdout, _, err := executeCommand(t, "validate", "testdata/lint/rules.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Validation failed")
	assert.Contains(t, stdout, compiler.ErrUnknownAttribute)
	assert.Contains(t, stdout, compiler.ErrEmptyCondition)
}

func TestValidate_LintFindingsJSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "validate", "testdata/lint/rules.yaml", "--format", "json")
	require.Error(t, err)

	var result ValidationResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLintFailed, resp.Error.Code)
	assert.False(t, result.Valid)
	assert.Equal(t, 2, result.Rules)
	assert.Empty(t, result.CompileErrors)

	var codes []string
	for _, f := range result.Findings {
		codes = append(codes, f.Code)
	}
	assert.Contains(t, codes, compiler.ErrUnknownAttribute)
	assert.Contains(t, codes, compiler.ErrEmptyCondition)
}

func TestValidate_CompileError(t *testing.T) {
	stdout, _, err := executeCommand(t, "validate", "testdata/broken/rules.yaml", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	resp := decodeResponse(t, stdout, &result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLoadFailed, resp.Error.Code)
	require.NotEmpty(t, result.CompileErrors)
	assert.Contains(t, result.CompileErrors[0], "Catastrophic")
}

func TestValidate_MissingPath(t *testing.T) {
	_, stderr, err := executeCommand(t, "validate", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "rules path not found")
}

func TestSplitErrors(t *testing.T) {
	_, err := compiler.Load("testdata/broken/rules.yaml")
	require.Error(t, err)
	msgs := splitErrors(err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "rules[0].effect.level")
}
