// Package pipeline runs a single prompt end to end: synthesize the prompt
// into audio, hand the audio to the agent under test, and evaluate the tool
// calls it produced.
package pipeline

import (
	"context"

	"github.com/russolabs/russo/internal/evaluate"
	"github.com/russolabs/russo/internal/models"
)

// Synthesizer converts prompt text into audio. Implementations are expected
// to be safe for concurrent use; the batch runner shares one instance across
// all workers.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (models.Audio, error)
}

// Agent delivers audio to the system under test and reports the tool calls
// it emitted.
type Agent interface {
	Run(ctx context.Context, audio models.Audio) (models.AgentResponse, error)
}

// AgentFunc adapts a plain function to the Agent interface.
type AgentFunc func(ctx context.Context, audio models.Audio) (models.AgentResponse, error)

func (f AgentFunc) Run(ctx context.Context, audio models.Audio) (models.AgentResponse, error) {
	return f(ctx, audio)
}

// Run executes one prompt through the synthesize-deliver-evaluate pipeline.
// Collaborator errors are returned as-is so callers can inspect them;
// evaluation itself cannot fail.
func Run(ctx context.Context, prompt string, synth Synthesizer, agent Agent, ev evaluate.Evaluator, expected []models.Call) (models.Verdict, error) {
	audio, err := synth.Synthesize(ctx, prompt)
	if err != nil {
		return models.Verdict{}, err
	}

	resp, err := agent.Run(ctx, audio)
	if err != nil {
		return models.Verdict{}, err
	}

	return ev.Evaluate(expected, resp.ToolCalls), nil
}
