package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Call is a normalized tool/function invocation: a name plus a mapping of
// argument names to JSON-like values. The same type represents both expected
// and observed calls. Treat a Call as immutable once constructed.
type Call struct {
	Name      string         `json:"name" yaml:"name"`
	Arguments map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// NewCall builds a Call with normalized argument values.
func NewCall(name string, arguments map[string]any) Call {
	return Call{Name: name, Arguments: NormalizeArgs(arguments)}
}

// NormalizeArgs round-trips argument values through JSON so that values from
// different decoders compare equal (yaml.v3 decodes 1 as int, encoding/json
// as float64). Values that cannot be marshaled are kept as-is.
func NormalizeArgs(arguments map[string]any) map[string]any {
	if arguments == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(arguments)
	if err != nil {
		return arguments
	}
	var normalized map[string]any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return arguments
	}
	return normalized
}

// Equal reports whether two calls have the same name and deeply equal
// argument mappings. Argument order is irrelevant.
func (c Call) Equal(other Call) bool {
	if c.Name != other.Name {
		return false
	}
	if len(c.Arguments) != len(other.Arguments) {
		return false
	}
	for k, v := range c.Arguments {
		ov, ok := other.Arguments[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// Fingerprint returns a canonical string key for the call: the name plus the
// argument items in sorted key order. Two calls are Equal iff their
// fingerprints match, so the fingerprint can be used as a map key.
func (c Call) Fingerprint() string {
	keys := make([]string, 0, len(c.Arguments))
	for k := range c.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('(')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		if data, err := json.Marshal(c.Arguments[k]); err == nil {
			sb.Write(data)
		} else {
			fmt.Fprintf(&sb, "%v", c.Arguments[k])
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// String renders the call as name(args) for diagnostics.
func (c Call) String() string {
	return c.Fingerprint()
}

// AgentResponse is the normalized output of an agent under test: the tool
// calls it emitted, in emission order, plus the raw provider payload for
// debugging.
type AgentResponse struct {
	ToolCalls []Call `json:"tool_calls"`
	Raw       any    `json:"-"`
}

// ToolDefinition declares a tool the agent may call, with an optional JSON
// schema for its arguments. Used by the config layer to validate expected
// calls before a suite runs.
type ToolDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}
