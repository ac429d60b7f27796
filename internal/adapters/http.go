// Package adapters connects the harness to real agent backends over HTTP
// and WebSocket. Adapters own transport concerns (encoding, timeouts);
// response interpretation is delegated to a parsers.ResponseParser.
package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/russolabs/russo/internal/models"
	"github.com/russolabs/russo/internal/parsers"
)

// HTTPAgent delivers audio to an HTTP endpoint as base64-encoded JSON and
// parses the JSON reply.
type HTTPAgent struct {
	URL     string
	Parser  parsers.ResponseParser
	Headers map[string]string
	// AudioField and FormatField name the JSON payload fields. Defaults:
	// "audio" and "format".
	AudioField  string
	FormatField string
	// Timeout bounds the whole request. Zero means 60s.
	Timeout time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

const defaultHTTPTimeout = 60 * time.Second

func (a *HTTPAgent) Run(ctx context.Context, audio models.Audio) (models.AgentResponse, error) {
	payload := map[string]any{
		a.audioField():  base64.StdEncoding.EncodeToString(audio.Data),
		a.formatField(): string(audio.Format),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("encoding request: %w", err)
	}

	timeout := a.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(body))
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("sending audio to %s: %w", a.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.AgentResponse{}, fmt.Errorf("agent endpoint returned %s: %s", resp.Status, snippet)
	}

	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.AgentResponse{}, fmt.Errorf("decoding agent response: %w", err)
	}

	return a.parser().Parse(raw)
}

func (a *HTTPAgent) parser() parsers.ResponseParser {
	if a.Parser != nil {
		return a.Parser
	}
	return parsers.Mapping{}
}

func (a *HTTPAgent) audioField() string {
	if a.AudioField == "" {
		return "audio"
	}
	return a.AudioField
}

func (a *HTTPAgent) formatField() string {
	if a.FormatField == "" {
		return "format"
	}
	return a.FormatField
}
