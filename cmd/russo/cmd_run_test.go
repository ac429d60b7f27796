package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingSuiteYAML = `
name: mock suite
runs: 2
synthesizer:
  type: mock
agent:
  type: mock
  config:
    tool_calls:
      - name: set_timer
        args:
          minutes: 5
cache:
  enabled: false
scenarios:
  - id: timer
    prompt: set a timer for five minutes
    expect:
      - tool: set_timer
        args:
          minutes: 5
`

const failingSuiteYAML = `
name: mock suite
synthesizer:
  type: mock
agent:
  type: mock
  config:
    tool_calls:
      - name: wrong_tool
cache:
  enabled: false
scenarios:
  - id: timer
    prompt: set a timer
    expect:
      - tool: set_timer
`

func writeSuiteFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand_PassingSuite(t *testing.T) {
	path := writeSuiteFile(t, passingSuiteYAML)
	_, err := runCLI(t, "run", path)
	require.NoError(t, err)
}

func TestRunCommand_FailingSuiteReturnsTestFailure(t *testing.T) {
	path := writeSuiteFile(t, failingSuiteYAML)
	_, err := runCLI(t, "run", path)
	require.Error(t, err)

	var tf *TestFailureError
	require.True(t, errors.As(err, &tf), "expected TestFailureError, got %T", err)
	assert.Contains(t, tf.Message, "failed")
}

func TestRunCommand_WritesJSONOutput(t *testing.T) {
	suitePath := writeSuiteFile(t, passingSuiteYAML)
	outPath := filepath.Join(t.TempDir(), "results.json")

	_, err := runCLI(t, "run", suitePath, "--output", outPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var results jsonResults
	require.NoError(t, json.Unmarshal(raw, &results))
	assert.Equal(t, "mock suite", results.Suite)
	assert.True(t, results.Passed)
	require.Len(t, results.Scenarios, 1)
	assert.Equal(t, "timer", results.Scenarios[0].ID)
	assert.Equal(t, 2, results.Scenarios[0].Verdict.Total())
}

func TestRunCommand_WritesHTMLReport(t *testing.T) {
	suitePath := writeSuiteFile(t, passingSuiteYAML)
	reportPath := filepath.Join(t.TempDir(), "report.html")

	_, err := runCLI(t, "run", suitePath, "--report", reportPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "timer")
}

func TestRunCommand_RunsOverride(t *testing.T) {
	suitePath := writeSuiteFile(t, passingSuiteYAML)
	outPath := filepath.Join(t.TempDir(), "results.json")

	_, err := runCLI(t, "run", suitePath, "--runs", "5", "--output", outPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var results jsonResults
	require.NoError(t, json.Unmarshal(raw, &results))
	assert.Equal(t, 5, results.Scenarios[0].Verdict.Total())
}

func TestRunCommand_ScenarioFilter(t *testing.T) {
	multi := passingSuiteYAML + `
  - id: second
    prompt: another prompt
    expect:
      - tool: set_timer
        args:
          minutes: 5
`
	suitePath := writeSuiteFile(t, multi)
	outPath := filepath.Join(t.TempDir(), "results.json")

	_, err := runCLI(t, "run", suitePath, "--scenario", "second", "--output", outPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var results jsonResults
	require.NoError(t, json.Unmarshal(raw, &results))
	require.Len(t, results.Scenarios, 1)
	assert.Equal(t, "second", results.Scenarios[0].ID)

	_, err = runCLI(t, "run", suitePath, "--scenario", "nope")
	require.Error(t, err)
	assert.NotErrorAs(t, err, new(*TestFailureError), "unknown scenario is a config error")
}

func TestRunCommand_MissingSuiteFile(t *testing.T) {
	_, err := runCLI(t, "run", "/does/not/exist.yaml")
	require.Error(t, err)
	assert.NotErrorAs(t, err, new(*TestFailureError))
}
