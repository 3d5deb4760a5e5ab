package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommand_MissingArgs(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_Empty(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_PassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lift.yaml", liftScenario)
	writeFile(t, dir, "broken.yaml", strings.Replace(
		strings.Replace(liftScenario, "name: lift", "name: broken", 1),
		"messages: 1", "messages: 5", 1))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ lift")
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "controller 1: 1 messages, want 5")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lift.yaml", liftScenario)
	writeFile(t, dir, "other.yaml", "name: other\ncontrollers: [{id: 1}]\nexpect:\n  - {controller: 1, messages: 9}\n")

	out, err := execute(t, "--format", "json", "test", dir, "--filter", "li*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "lift", resp.Data.Scenarios[0].Name)
}

func TestTestCommand_Golden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lift.yaml", liftScenario)

	_, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)

	golden := filepath.Join(dir, "golden", "lift.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "001 action server #1 action 1")

	_, err = execute(t, "test", dir)
	require.NoError(t, err, "trace matches the regenerated golden file")

	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0o644))
	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}
