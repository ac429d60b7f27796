// Package parsers normalizes provider-specific response payloads into the
// harness's AgentResponse. Parsers work on decoded JSON values
// (map[string]any and friends), so any transport can feed them.
package parsers

import (
	"encoding/json"

	"github.com/russolabs/russo/internal/models"
)

// ResponseParser extracts tool calls from a raw response payload.
type ResponseParser interface {
	Parse(raw any) (models.AgentResponse, error)
}

// decodeArguments accepts tool-call arguments either as an embedded JSON
// string (OpenAI style) or as an already-decoded object. Anything else
// yields an empty map.
func decodeArguments(v any) map[string]any {
	switch tv := v.(type) {
	case map[string]any:
		return tv
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(tv), &out); err != nil {
			return map[string]any{}
		}
		return out
	default:
		return map[string]any{}
	}
}

// getKey reads a key from a decoded JSON object, returning nil when the
// value is not an object or the key is absent.
func getKey(obj any, key string) any {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

// getSlice reads a key expected to hold a JSON array.
func getSlice(obj any, key string) []any {
	s, _ := getKey(obj, key).([]any)
	return s
}

// getString reads a key expected to hold a JSON string.
func getString(obj any, key string) string {
	s, _ := getKey(obj, key).(string)
	return s
}
