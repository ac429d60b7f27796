package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russolabs/russo/internal/adapters"
	"github.com/russolabs/russo/internal/evaluate"
	"github.com/russolabs/russo/internal/pipeline"
	"github.com/russolabs/russo/internal/synthesizers"
)

const validSuite = `
name: timer suite
runs: 3
max_concurrency: 2
synthesizer:
  type: http
  config:
    url: http://localhost:8000/tts
    voice: alloy
agent:
  type: http
  config:
    url: http://localhost:8001/agent
evaluator:
  type: exact
  config:
    ignore_extra_calls: false
cache:
  enabled: true
  dir: .russo-cache
tools:
  - name: set_timer
    description: Set a countdown timer
    schema:
      type: object
      required: [minutes]
      properties:
        minutes:
          type: integer
          minimum: 1
scenarios:
  - id: basic-timer
    prompt: set a timer for five minutes
    expect:
      - tool: set_timer
        args:
          minutes: 5
  - id: multi-prompt
    prompts:
      - start a five minute timer
      - count down five minutes
    runs: 5
    expect:
      - tool: set_timer
        args:
          minutes: 5
`

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSuite_Valid(t *testing.T) {
	suite, err := LoadSuite(writeSuite(t, validSuite))
	require.NoError(t, err)

	assert.Equal(t, "timer suite", suite.Name)
	assert.Equal(t, 3, suite.Runs)
	assert.Equal(t, 2, suite.MaxConcurrency)
	assert.True(t, suite.Cache.On())
	assert.Equal(t, ".russo-cache", suite.Cache.Dir)
	require.Len(t, suite.Scenarios, 2)

	basic, ok := suite.ScenarioByID("basic-timer")
	require.True(t, ok)
	assert.Equal(t, []string{"set a timer for five minutes"}, basic.AllPrompts())

	calls := basic.ExpectedCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "set_timer", calls[0].Name)
	assert.Equal(t, float64(5), calls[0].Arguments["minutes"])

	multi, _ := suite.ScenarioByID("multi-prompt")
	assert.Equal(t, 5, suite.EffectiveRuns(multi))
	assert.Equal(t, 3, suite.EffectiveRuns(basic))
	assert.Equal(t, 2, suite.EffectiveConcurrency(basic))
}

func TestLoadSuite_SchemaRejectsMissingFields(t *testing.T) {
	_, err := LoadSuite(writeSuite(t, "name: incomplete\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoadSuite_RejectsUnknownTopLevelKey(t *testing.T) {
	bad := validSuite + "\nbogus_key: true\n"
	_, err := LoadSuite(writeSuite(t, bad))
	require.Error(t, err)
}

func TestLoadSuite_DuplicateScenarioIDs(t *testing.T) {
	dup := `
name: dup
synthesizer: {type: mock}
agent: {type: mock}
scenarios:
  - id: same
    prompt: a
  - id: same
    prompt: b
`
	_, err := LoadSuite(writeSuite(t, dup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scenario id")
}

func TestLoadSuite_ScenarioWithoutPrompts(t *testing.T) {
	bad := `
name: bad
synthesizer: {type: mock}
agent: {type: mock}
scenarios:
  - id: empty
`
	_, err := LoadSuite(writeSuite(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no prompts")
}

func TestLoadSuite_ExpectedArgsValidatedAgainstToolSchema(t *testing.T) {
	bad := `
name: bad-args
synthesizer: {type: mock}
agent: {type: mock}
tools:
  - name: set_timer
    schema:
      type: object
      required: [minutes]
      properties:
        minutes: {type: integer, minimum: 1}
scenarios:
  - id: wrong-type
    prompt: set a timer
    expect:
      - tool: set_timer
        args:
          minutes: lots
`
	_, err := LoadSuite(writeSuite(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set_timer")
}

func TestLoadSuite_UndeclaredToolInExpectations(t *testing.T) {
	bad := `
name: undeclared
synthesizer: {type: mock}
agent: {type: mock}
tools:
  - name: set_timer
scenarios:
  - id: rogue
    prompt: p
    expect:
      - tool: launch_rocket
`
	_, err := LoadSuite(writeSuite(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared tool")
}

func TestBuildSynthesizer(t *testing.T) {
	s, err := BuildSynthesizer(ComponentRef{Type: "http", Config: map[string]any{
		"url":         "http://tts",
		"voice":       "alloy",
		"sample_rate": 24000,
	}})
	require.NoError(t, err)
	http, ok := s.(*synthesizers.HTTPSynthesizer)
	require.True(t, ok)
	assert.Equal(t, "alloy", http.Voice)
	assert.Equal(t, 24000, http.SampleRate)

	_, err = BuildSynthesizer(ComponentRef{Type: "http"})
	require.Error(t, err, "url is required")

	_, err = BuildSynthesizer(ComponentRef{Type: "nope"})
	require.Error(t, err)

	s, err = BuildSynthesizer(ComponentRef{Type: "mock"})
	require.NoError(t, err)
	_, ok = s.(*pipeline.MockSynthesizer)
	assert.True(t, ok)
}

func TestBuildAgent(t *testing.T) {
	a, err := BuildAgent(ComponentRef{Type: "websocket", Config: map[string]any{
		"url":         "ws://agent",
		"send_bytes":  true,
		"complete_on": "response.done",
		"parser":      map[string]any{"type": "openai"},
	}})
	require.NoError(t, err)
	ws, ok := a.(*adapters.WebSocketAgent)
	require.True(t, ok)
	assert.True(t, ws.SendBytes)
	require.NotNil(t, ws.IsComplete)
	assert.False(t, ws.IsComplete([]any{map[string]any{"type": "other"}}))
	assert.True(t, ws.IsComplete([]any{map[string]any{"type": "response.done"}}))

	_, err = BuildAgent(ComponentRef{Type: "websocket"})
	require.Error(t, err, "url is required")

	mock, err := BuildAgent(ComponentRef{Type: "mock", Config: map[string]any{
		"tool_calls": []map[string]any{{"name": "f", "args": map[string]any{"a": 1}}},
	}})
	require.NoError(t, err)
	m, ok := mock.(*pipeline.MockAgent)
	require.True(t, ok)
	require.Len(t, m.ToolCalls, 1)
	assert.Equal(t, "f", m.ToolCalls[0].Name)
}

func TestBuildEvaluator(t *testing.T) {
	ev, err := BuildEvaluator(nil)
	require.NoError(t, err)
	exact, ok := ev.(*evaluate.ExactEvaluator)
	require.True(t, ok)
	assert.True(t, exact.IgnoreExtraCalls, "default policy tolerates extra calls")

	ev, err = BuildEvaluator(&ComponentRef{Type: "exact", Config: map[string]any{
		"match_order":        true,
		"ignore_extra_calls": false,
	}})
	require.NoError(t, err)
	exact = ev.(*evaluate.ExactEvaluator)
	assert.True(t, exact.MatchOrder)
	assert.False(t, exact.IgnoreExtraCalls)

	ev, err = BuildEvaluator(&ComponentRef{Type: "folding"})
	require.NoError(t, err)
	_, ok = ev.(*evaluate.FoldingEvaluator)
	assert.True(t, ok)

	_, err = BuildEvaluator(&ComponentRef{Type: "nope"})
	require.Error(t, err)
}
