// Package config loads and validates declarative suite files: which
// synthesizer and agent to wire up, which scenarios to run, and how often.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/russolabs/russo/internal/models"
)

// ComponentRef names a pluggable component plus its free-form settings.
// The settings are decoded by the component factory with mapstructure.
type ComponentRef struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// CacheSettings controls the audio cache for a suite run.
type CacheSettings struct {
	// Enabled defaults to true; a nil pointer means unset.
	Enabled *bool  `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// On reports the effective enabled state.
func (c CacheSettings) On() bool {
	return c.Enabled == nil || *c.Enabled
}

// ExpectSpec is one expected tool call within a scenario.
type ExpectSpec struct {
	Tool string         `yaml:"tool"`
	Args map[string]any `yaml:"args"`
}

// Scenario is one test case: prompts to speak and the tool calls the agent
// must make in response.
type Scenario struct {
	ID          string       `yaml:"id"`
	Description string       `yaml:"description"`
	Prompt      string       `yaml:"prompt"`
	Prompts     []string     `yaml:"prompts"`
	Expect      []ExpectSpec `yaml:"expect"`

	// Per-scenario overrides; zero values fall back to the suite.
	Runs           int           `yaml:"runs"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	Evaluator      *ComponentRef `yaml:"evaluator"`
}

// AllPrompts merges the singular and plural prompt forms.
func (s Scenario) AllPrompts() []string {
	if s.Prompt == "" {
		return s.Prompts
	}
	return append([]string{s.Prompt}, s.Prompts...)
}

// ExpectedCalls converts the declared expectations into normalized Calls.
func (s Scenario) ExpectedCalls() []models.Call {
	calls := make([]models.Call, 0, len(s.Expect))
	for _, e := range s.Expect {
		calls = append(calls, models.NewCall(e.Tool, e.Args))
	}
	return calls
}

// Suite is the root of a suite file.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Runs           int `yaml:"runs"`
	MaxConcurrency int `yaml:"max_concurrency"`

	Synthesizer ComponentRef  `yaml:"synthesizer"`
	Agent       ComponentRef  `yaml:"agent"`
	Evaluator   *ComponentRef `yaml:"evaluator"`

	Cache     CacheSettings           `yaml:"cache"`
	Tools     []models.ToolDefinition `yaml:"tools"`
	Scenarios []Scenario              `yaml:"scenarios"`
}

// EffectiveRuns resolves the run count for a scenario.
func (s *Suite) EffectiveRuns(sc Scenario) int {
	if sc.Runs > 0 {
		return sc.Runs
	}
	if s.Runs > 0 {
		return s.Runs
	}
	return 1
}

// EffectiveConcurrency resolves the concurrency bound for a scenario.
// 0 means unbounded.
func (s *Suite) EffectiveConcurrency(sc Scenario) int {
	if sc.MaxConcurrency > 0 {
		return sc.MaxConcurrency
	}
	return s.MaxConcurrency
}

// ScenarioByID returns the scenario with the given id, if any.
func (s *Suite) ScenarioByID(id string) (Scenario, bool) {
	for _, sc := range s.Scenarios {
		if sc.ID == id {
			return sc, true
		}
	}
	return Scenario{}, false
}

// LoadSuite reads, schema-validates and decodes a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	if errs := ValidateSuiteBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("suite file %s is invalid:\n  %s", path, joinErrors(errs))
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing suite file: %w", err)
	}

	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("suite file %s: %w", path, err)
	}
	return &suite, nil
}

// Validate applies the semantic checks the JSON schema cannot express.
func (s *Suite) Validate() error {
	seen := map[string]bool{}
	for _, sc := range s.Scenarios {
		if seen[sc.ID] {
			return fmt.Errorf("duplicate scenario id %q", sc.ID)
		}
		seen[sc.ID] = true

		if len(sc.AllPrompts()) == 0 {
			return fmt.Errorf("scenario %q has no prompts", sc.ID)
		}
	}

	if len(s.Tools) > 0 {
		if errs := ValidateExpectedArgs(s.Tools, s.Scenarios); len(errs) > 0 {
			return fmt.Errorf("expectations do not satisfy the declared tool schemas:\n  %s", joinErrors(errs))
		}
	}
	return nil
}
