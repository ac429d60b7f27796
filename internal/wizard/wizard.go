// Package wizard drives the interactive `russo init` flow that scaffolds a
// starter suite file.
package wizard

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// SuiteSpec holds the answers collected by the wizard.
type SuiteSpec struct {
	Name        string
	AgentType   string
	AgentURL    string
	SynthType   string
	SynthURL    string
	ToolName    string
	FirstPrompt string
	Runs        int
}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _-]*$`)

// RunSuiteWizard runs an interactive huh form to collect suite settings.
func RunSuiteWizard(in io.Reader, out io.Writer) (*SuiteSpec, error) {
	var (
		name        string
		agentType   = "http"
		agentURL    string
		synthType   = "http"
		synthURL    string
		toolName    string
		firstPrompt string
		runsRaw     = "1"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Suite name").
				Placeholder("my-voice-agent").
				Value(&name).
				Validate(func(s string) error {
					if !nameRe.MatchString(strings.TrimSpace(s)) {
						return fmt.Errorf("name must start with a letter or digit")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Agent transport").
				Options(
					huh.NewOption("HTTP endpoint", "http"),
					huh.NewOption("WebSocket endpoint", "websocket"),
				).
				Value(&agentType),
			huh.NewInput().
				Title("Agent URL").
				Placeholder("http://localhost:8000/agent").
				Value(&agentURL).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("agent URL is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Synthesizer").
				Options(
					huh.NewOption("HTTP TTS endpoint", "http"),
					huh.NewOption("Static fixture files", "static"),
				).
				Value(&synthType),
			huh.NewInput().
				Title("Synthesizer URL (leave empty for static)").
				Placeholder("http://localhost:8001/tts").
				Value(&synthURL),
			huh.NewInput().
				Title("First tool to test").
				Placeholder("set_timer").
				Value(&toolName),
			huh.NewInput().
				Title("First prompt").
				Placeholder("set a timer for five minutes").
				Value(&firstPrompt),
			huh.NewInput().
				Title("Runs per prompt").
				Placeholder("1").
				Value(&runsRaw).
				Validate(func(s string) error {
					n := 0
					if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil || n < 1 {
						return fmt.Errorf("must be a positive integer")
					}
					return nil
				}),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	runs := 1
	fmt.Sscanf(strings.TrimSpace(runsRaw), "%d", &runs)

	return &SuiteSpec{
		Name:        strings.TrimSpace(name),
		AgentType:   agentType,
		AgentURL:    strings.TrimSpace(agentURL),
		SynthType:   synthType,
		SynthURL:    strings.TrimSpace(synthURL),
		ToolName:    strings.TrimSpace(toolName),
		FirstPrompt: strings.TrimSpace(firstPrompt),
		Runs:        runs,
	}, nil
}

const suiteTemplate = `name: {{ .Name }}
runs: {{ .Runs }}
max_concurrency: 4

synthesizer:
  type: {{ .SynthType }}
  config:
{{- if eq .SynthType "http" }}
    url: {{ .SynthURL }}
    voice: alloy
{{- else }}
    dir: fixtures
    fixtures:
      "{{ .FirstPrompt }}": first-prompt.wav
{{- end }}

agent:
  type: {{ .AgentType }}
  config:
    url: {{ .AgentURL }}

evaluator:
  type: exact

cache:
  enabled: true

tools:
  - name: {{ .ToolName }}
    description: TODO describe what {{ .ToolName }} does

scenarios:
  - id: first-scenario
    prompt: "{{ .FirstPrompt }}"
    expect:
      - tool: {{ .ToolName }}
`

// GenerateSuiteYAML renders a starter suite file from the given spec.
func GenerateSuiteYAML(spec *SuiteSpec) (string, error) {
	tmpl, err := template.New("suite").Parse(suiteTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, spec); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
