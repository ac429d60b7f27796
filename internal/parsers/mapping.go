package parsers

import (
	"strings"

	"github.com/russolabs/russo/internal/models"
)

// Mapping parses bespoke backends without a dedicated parser: point it at
// the field names your endpoint uses. Zero value defaults match the common
// {"tool_calls": [{"name": ..., "arguments": {...}}]} shape.
type Mapping struct {
	// ToolCallsKey is a dot-separated path to the tool call list, e.g.
	// "result.toolCalls". Defaults to "tool_calls".
	ToolCallsKey string `mapstructure:"tool_calls_key"`
	// NameKey is the function-name field within each tool call. Defaults
	// to "name".
	NameKey string `mapstructure:"name_key"`
	// ArgumentsKey is the arguments field within each tool call. Defaults
	// to "arguments".
	ArgumentsKey string `mapstructure:"arguments_key"`
	// Single marks endpoints that return one tool-call object instead of
	// a list.
	Single bool `mapstructure:"single"`
}

func (m Mapping) Parse(raw any) (models.AgentResponse, error) {
	// Aggregated transports (WebSocket message streams) hand over a list;
	// the first item that yields tool calls wins.
	if items, ok := raw.([]any); ok {
		for _, item := range items {
			if calls := m.tryParse(item); calls != nil {
				return models.AgentResponse{ToolCalls: calls, Raw: raw}, nil
			}
		}
		return models.AgentResponse{Raw: raw}, nil
	}

	return models.AgentResponse{ToolCalls: m.tryParse(raw), Raw: raw}, nil
}

func (m Mapping) tryParse(obj any) []models.Call {
	rawCalls := extractPath(obj, m.toolCallsKey())
	if rawCalls == nil {
		return nil
	}

	list, ok := rawCalls.([]any)
	if m.Single {
		list = []any{rawCalls}
	} else if !ok {
		return nil
	}

	var calls []models.Call
	for _, tc := range list {
		name := getString(tc, m.nameKey())
		if name == "" {
			continue
		}
		calls = append(calls, models.NewCall(name, decodeArguments(getKey(tc, m.argumentsKey()))))
	}
	return calls
}

func (m Mapping) toolCallsKey() string {
	if m.ToolCallsKey == "" {
		return "tool_calls"
	}
	return m.ToolCallsKey
}

func (m Mapping) nameKey() string {
	if m.NameKey == "" {
		return "name"
	}
	return m.NameKey
}

func (m Mapping) argumentsKey() string {
	if m.ArgumentsKey == "" {
		return "arguments"
	}
	return m.ArgumentsKey
}

// extractPath walks a dot-separated key path through nested objects.
func extractPath(obj any, path string) any {
	current := obj
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}
