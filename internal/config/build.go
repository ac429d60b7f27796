package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/russolabs/russo/internal/adapters"
	"github.com/russolabs/russo/internal/evaluate"
	"github.com/russolabs/russo/internal/models"
	"github.com/russolabs/russo/internal/parsers"
	"github.com/russolabs/russo/internal/pipeline"
	"github.com/russolabs/russo/internal/synthesizers"
)

// KeyExtraProvider is implemented by synthesizers whose settings should be
// folded into audio cache keys.
type KeyExtraProvider interface {
	KeyExtra() map[string]string
}

// BuildSynthesizer constructs a synthesizer from a component ref.
func BuildSynthesizer(ref ComponentRef) (pipeline.Synthesizer, error) {
	switch ref.Type {
	case "http":
		var cfg struct {
			URL            string            `mapstructure:"url"`
			Headers        map[string]string `mapstructure:"headers"`
			TextField      string            `mapstructure:"text_field"`
			AudioField     string            `mapstructure:"audio_field"`
			Format         string            `mapstructure:"format"`
			SampleRate     int               `mapstructure:"sample_rate"`
			Channels       int               `mapstructure:"channels"`
			SampleWidth    int               `mapstructure:"sample_width"`
			Voice          string            `mapstructure:"voice"`
			Speed          string            `mapstructure:"speed"`
			TimeoutSeconds float64           `mapstructure:"timeout_seconds"`
		}
		if err := mapstructure.Decode(ref.Config, &cfg); err != nil {
			return nil, fmt.Errorf("http synthesizer config: %w", err)
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("http synthesizer requires a url")
		}
		return &synthesizers.HTTPSynthesizer{
			URL:         cfg.URL,
			Headers:     cfg.Headers,
			TextField:   cfg.TextField,
			AudioField:  cfg.AudioField,
			Format:      models.AudioFormat(cfg.Format),
			SampleRate:  cfg.SampleRate,
			Channels:    cfg.Channels,
			SampleWidth: cfg.SampleWidth,
			Voice:       cfg.Voice,
			Speed:       cfg.Speed,
			Timeout:     secondsToDuration(cfg.TimeoutSeconds),
		}, nil

	case "static":
		var cfg struct {
			Dir         string            `mapstructure:"dir"`
			Fixtures    map[string]string `mapstructure:"fixtures"`
			Fallback    string            `mapstructure:"fallback"`
			Format      string            `mapstructure:"format"`
			SampleRate  int               `mapstructure:"sample_rate"`
			Channels    int               `mapstructure:"channels"`
			SampleWidth int               `mapstructure:"sample_width"`
		}
		if err := mapstructure.Decode(ref.Config, &cfg); err != nil {
			return nil, fmt.Errorf("static synthesizer config: %w", err)
		}
		return &synthesizers.StaticSynthesizer{
			Dir:         cfg.Dir,
			Fixtures:    cfg.Fixtures,
			Fallback:    cfg.Fallback,
			Format:      models.AudioFormat(cfg.Format),
			SampleRate:  cfg.SampleRate,
			Channels:    cfg.Channels,
			SampleWidth: cfg.SampleWidth,
		}, nil

	case "mock":
		return &pipeline.MockSynthesizer{}, nil

	default:
		return nil, fmt.Errorf("unknown synthesizer type %q", ref.Type)
	}
}

// BuildAgent constructs an agent from a component ref.
func BuildAgent(ref ComponentRef) (pipeline.Agent, error) {
	switch ref.Type {
	case "http":
		var cfg struct {
			URL            string            `mapstructure:"url"`
			Headers        map[string]string `mapstructure:"headers"`
			AudioField     string            `mapstructure:"audio_field"`
			FormatField    string            `mapstructure:"format_field"`
			TimeoutSeconds float64           `mapstructure:"timeout_seconds"`
			Parser         *ComponentRef     `mapstructure:"parser"`
		}
		if err := mapstructure.Decode(ref.Config, &cfg); err != nil {
			return nil, fmt.Errorf("http agent config: %w", err)
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("http agent requires a url")
		}
		parser, err := buildParser(cfg.Parser)
		if err != nil {
			return nil, err
		}
		return &adapters.HTTPAgent{
			URL:         cfg.URL,
			Headers:     cfg.Headers,
			AudioField:  cfg.AudioField,
			FormatField: cfg.FormatField,
			Timeout:     secondsToDuration(cfg.TimeoutSeconds),
			Parser:      parser,
		}, nil

	case "websocket":
		var cfg struct {
			URL                    string            `mapstructure:"url"`
			Headers                map[string]string `mapstructure:"headers"`
			SendBytes              bool              `mapstructure:"send_bytes"`
			AudioField             string            `mapstructure:"audio_field"`
			FormatField            string            `mapstructure:"format_field"`
			MaxMessages            int               `mapstructure:"max_messages"`
			ResponseTimeoutSeconds float64           `mapstructure:"response_timeout_seconds"`
			DialTimeoutSeconds     float64           `mapstructure:"dial_timeout_seconds"`
			CompleteOn             string            `mapstructure:"complete_on"`
			Parser                 *ComponentRef     `mapstructure:"parser"`
		}
		if err := mapstructure.Decode(ref.Config, &cfg); err != nil {
			return nil, fmt.Errorf("websocket agent config: %w", err)
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("websocket agent requires a url")
		}
		parser, err := buildParser(cfg.Parser)
		if err != nil {
			return nil, err
		}
		agent := &adapters.WebSocketAgent{
			URL:             cfg.URL,
			Headers:         cfg.Headers,
			SendBytes:       cfg.SendBytes,
			AudioField:      cfg.AudioField,
			FormatField:     cfg.FormatField,
			MaxMessages:     cfg.MaxMessages,
			ResponseTimeout: secondsToDuration(cfg.ResponseTimeoutSeconds),
			DialTimeout:     secondsToDuration(cfg.DialTimeoutSeconds),
			Parser:          parser,
		}
		if cfg.CompleteOn != "" {
			agent.IsComplete = completeOnType(cfg.CompleteOn)
		}
		return agent, nil

	case "mock":
		var cfg struct {
			ToolCalls []struct {
				Name string         `mapstructure:"name"`
				Args map[string]any `mapstructure:"args"`
			} `mapstructure:"tool_calls"`
		}
		if err := mapstructure.Decode(ref.Config, &cfg); err != nil {
			return nil, fmt.Errorf("mock agent config: %w", err)
		}
		mock := &pipeline.MockAgent{}
		for _, tc := range cfg.ToolCalls {
			mock.ToolCalls = append(mock.ToolCalls, models.NewCall(tc.Name, tc.Args))
		}
		return mock, nil

	default:
		return nil, fmt.Errorf("unknown agent type %q", ref.Type)
	}
}

// BuildEvaluator constructs an evaluator from a component ref. A nil ref
// yields the default exact evaluator.
func BuildEvaluator(ref *ComponentRef) (evaluate.Evaluator, error) {
	if ref == nil {
		return evaluate.NewExactEvaluator(), nil
	}

	switch ref.Type {
	case "exact":
		// Decoding over the constructor's defaults keeps unset knobs at
		// their documented values.
		ev := evaluate.NewExactEvaluator()
		if err := mapstructure.Decode(ref.Config, ev); err != nil {
			return nil, fmt.Errorf("exact evaluator config: %w", err)
		}
		return ev, nil

	case "folding":
		ev := evaluate.NewFoldingEvaluator()
		if err := mapstructure.Decode(ref.Config, &ev.ExactEvaluator); err != nil {
			return nil, fmt.Errorf("folding evaluator config: %w", err)
		}
		return ev, nil

	default:
		return nil, fmt.Errorf("unknown evaluator type %q", ref.Type)
	}
}

func buildParser(ref *ComponentRef) (parsers.ResponseParser, error) {
	if ref == nil {
		return nil, nil
	}
	switch ref.Type {
	case "openai":
		return parsers.OpenAI{}, nil
	case "gemini":
		return parsers.Gemini{}, nil
	case "mapping":
		var p parsers.Mapping
		if err := mapstructure.Decode(ref.Config, &p); err != nil {
			return nil, fmt.Errorf("mapping parser config: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown parser type %q", ref.Type)
	}
}

// completeOnType returns an IsComplete hook that stops collecting once a
// message with the given "type" field arrives.
func completeOnType(eventType string) func([]any) bool {
	return func(messages []any) bool {
		last, ok := messages[len(messages)-1].(map[string]any)
		if !ok {
			return false
		}
		t, _ := last["type"].(string)
		return t == eventType
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
