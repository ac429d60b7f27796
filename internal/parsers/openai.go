package parsers

import "github.com/russolabs/russo/internal/models"

// OpenAI parses OpenAI responses. Two shapes are recognized:
//
//   - chat completions: choices[*].message.tool_calls[*].function with
//     {name, arguments} where arguments is an embedded JSON string
//   - realtime response.done events: response.output[*] items of type
//     "function_call" with {name, arguments}
type OpenAI struct{}

func (OpenAI) Parse(raw any) (models.AgentResponse, error) {
	var calls []models.Call

	for _, choice := range getSlice(raw, "choices") {
		message := getKey(choice, "message")
		for _, tc := range getSlice(message, "tool_calls") {
			fn := getKey(tc, "function")
			name := getString(fn, "name")
			if name == "" {
				continue
			}
			calls = append(calls, models.NewCall(name, decodeArguments(getKey(fn, "arguments"))))
		}
	}

	// Realtime events nest the completed response under "response".
	output := getSlice(getKey(raw, "response"), "output")
	if output == nil {
		output = getSlice(raw, "output")
	}
	for _, item := range output {
		if getString(item, "type") != "function_call" {
			continue
		}
		name := getString(item, "name")
		if name == "" {
			continue
		}
		calls = append(calls, models.NewCall(name, decodeArguments(getKey(item, "arguments"))))
	}

	return models.AgentResponse{ToolCalls: calls, Raw: raw}, nil
}
