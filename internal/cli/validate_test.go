package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, rootOpts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidate_ValidDocument(t *testing.T) {
	rulesPath := writeTestFile(t, "rules.yaml", testRulesDoc)

	out, err := executeValidate(t, &RootOptions{Format: "text"}, rulesPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 rules valid")
}

func TestValidate_ValidDocumentJSON(t *testing.T) {
	rulesPath := writeTestFile(t, "rules.yaml", testRulesDoc)

	out, err := executeValidate(t, &RootOptions{Format: "json"}, rulesPath)
	require.NoError(t, err)

	var result ValidationResult
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.Rules)
}

func TestValidate_MalformedExpression(t *testing.T) {
	rulesPath := writeTestFile(t, "rules.yaml", `
rules:
  - name: broken
    when: 'facts.x >='
`)

	out, err := executeValidate(t, &RootOptions{Format: "text"}, rulesPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "valid: false")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := executeValidate(t, &RootOptions{Format: "text"}, "does-not-exist.yaml")
	assert.Error(t, err)
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "validate", "whatever.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
