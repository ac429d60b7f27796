package wizard

import (
	"strings"
	"testing"

	"github.com/russolabs/russo/internal/config"
)

func TestGenerateSuiteYAML_HTTPAgent(t *testing.T) {
	spec := &SuiteSpec{
		Name:        "timer-suite",
		AgentType:   "http",
		AgentURL:    "http://localhost:8000/agent",
		SynthType:   "http",
		SynthURL:    "http://localhost:8001/tts",
		ToolName:    "set_timer",
		FirstPrompt: "set a timer for five minutes",
		Runs:        3,
	}

	out, err := GenerateSuiteYAML(spec)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "name: timer-suite") {
		t.Errorf("missing suite name:\n%s", out)
	}
	if !strings.Contains(out, "runs: 3") {
		t.Errorf("missing runs:\n%s", out)
	}
	if !strings.Contains(out, "url: http://localhost:8001/tts") {
		t.Errorf("missing synthesizer url:\n%s", out)
	}

	// The scaffold must be a valid suite file.
	if errs := config.ValidateSuiteBytes([]byte(out)); len(errs) > 0 {
		t.Errorf("scaffold does not validate: %v\n%s", errs, out)
	}
}

func TestGenerateSuiteYAML_StaticSynth(t *testing.T) {
	spec := &SuiteSpec{
		Name:        "offline",
		AgentType:   "websocket",
		AgentURL:    "ws://localhost:8000/ws",
		SynthType:   "static",
		ToolName:    "set_timer",
		FirstPrompt: "set a timer",
		Runs:        1,
	}

	out, err := GenerateSuiteYAML(spec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "type: static") || !strings.Contains(out, "first-prompt.wav") {
		t.Errorf("static synthesizer block missing:\n%s", out)
	}
	if errs := config.ValidateSuiteBytes([]byte(out)); len(errs) > 0 {
		t.Errorf("scaffold does not validate: %v\n%s", errs, out)
	}
}
