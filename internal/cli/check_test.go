package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCheck(t *testing.T, rootOpts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCheck_ReportsConditionOutcomes(t *testing.T) {
	rulesPath := writeTestFile(t, "rules.yaml", testRulesDoc)
	factsPath := writeTestFile(t, "facts.yaml", "orderTotal: 1500\n")

	out, err := executeCheck(t, &RootOptions{Format: "text"}, rulesPath, "--facts", factsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "HighValueOrder: true")
}

func TestCheck_FailingConditionCollapsesToFalse(t *testing.T) {
	rulesPath := writeTestFile(t, "rules.yaml", testRulesDoc)

	// No facts at all: the condition references a missing fact and fails,
	// which check reports as false rather than an error.
	out, err := executeCheck(t, &RootOptions{Format: "text"}, rulesPath)
	require.NoError(t, err)
	assert.Contains(t, out, "HighValueOrder: false")
}

func TestCheck_JSONOutput(t *testing.T) {
	rulesPath := writeTestFile(t, "rules.yaml", testRulesDoc)
	factsPath := writeTestFile(t, "facts.yaml", "orderTotal: 50\n")

	out, err := executeCheck(t, &RootOptions{Format: "json"}, rulesPath, "--facts", factsPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["HighValueOrder"])
}
