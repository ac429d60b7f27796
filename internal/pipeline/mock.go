package pipeline

import (
	"context"
	"sync"

	"github.com/russolabs/russo/internal/models"
)

// MockSynthesizer returns canned audio and records the prompts it saw.
// Used by tests and by offline dry runs.
type MockSynthesizer struct {
	// Audio is returned for every prompt. Zero value yields empty PCM.
	Audio models.Audio
	// Err, when set, is returned instead of audio.
	Err error

	mu      sync.Mutex
	prompts []string
}

func (m *MockSynthesizer) Synthesize(_ context.Context, text string) (models.Audio, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, text)
	m.mu.Unlock()

	if m.Err != nil {
		return models.Audio{}, m.Err
	}
	if m.Audio.Data == nil {
		return models.NewPCMAudio([]byte(text)), nil
	}
	return m.Audio, nil
}

// Prompts returns a copy of every prompt synthesized so far.
func (m *MockSynthesizer) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// MockAgent replies with a fixed set of tool calls.
type MockAgent struct {
	ToolCalls []models.Call
	Err       error

	mu    sync.Mutex
	calls int
}

func (m *MockAgent) Run(_ context.Context, _ models.Audio) (models.AgentResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return models.AgentResponse{}, m.Err
	}
	return models.AgentResponse{ToolCalls: m.ToolCalls}, nil
}

// CallCount reports how many times the agent was invoked.
func (m *MockAgent) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
