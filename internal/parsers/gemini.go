package parsers

import "github.com/russolabs/russo/internal/models"

// Gemini parses GenerateContentResponse payloads, where tool calls appear
// as functionCall parts under candidates[*].content.parts[*]. Both the
// camelCase REST form and the snake_case form are accepted.
type Gemini struct{}

func (Gemini) Parse(raw any) (models.AgentResponse, error) {
	var calls []models.Call

	for _, candidate := range getSlice(raw, "candidates") {
		content := getKey(candidate, "content")
		for _, part := range getSlice(content, "parts") {
			fc := getKey(part, "functionCall")
			if fc == nil {
				fc = getKey(part, "function_call")
			}
			if fc == nil {
				continue
			}
			name := getString(fc, "name")
			if name == "" {
				continue
			}
			calls = append(calls, models.NewCall(name, decodeArguments(getKey(fc, "args"))))
		}
	}

	return models.AgentResponse{ToolCalls: calls, Raw: raw}, nil
}
