// Package synthesizers provides Synthesizer implementations: an HTTP TTS
// client for real backends and a fixture-backed synthesizer for offline
// runs.
package synthesizers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/russolabs/russo/internal/models"
)

// HTTPSynthesizer posts prompt text to a TTS endpoint and returns the audio
// it replies with. Two reply shapes are accepted: raw audio bytes, or a
// JSON object carrying base64 audio under AudioField.
type HTTPSynthesizer struct {
	URL     string
	Headers map[string]string
	// TextField names the request field holding the prompt. Defaults to
	// "text".
	TextField string
	// AudioField names the base64 audio field in JSON replies. Defaults
	// to "audio".
	AudioField string

	// Format etc. describe the audio the endpoint produces; the reply
	// itself is treated as opaque bytes.
	Format      models.AudioFormat
	SampleRate  int
	Channels    int
	SampleWidth int

	// Voice and Speed are forwarded verbatim when set and also belong in
	// the cache key of any wrapping CachedSynthesizer.
	Voice string
	Speed string

	// Timeout bounds the whole request. Zero means 120s; synthesis is
	// slower than inference endpoints.
	Timeout time.Duration

	Client *http.Client
}

const defaultTTSTimeout = 120 * time.Second

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) (models.Audio, error) {
	payload := map[string]any{s.textField(): text}
	if s.Voice != "" {
		payload["voice"] = s.Voice
	}
	if s.Speed != "" {
		payload["speed"] = s.Speed
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return models.Audio{}, fmt.Errorf("encoding synthesis request: %w", err)
	}

	timeout := s.Timeout
	if timeout == 0 {
		timeout = defaultTTSTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return models.Audio{}, fmt.Errorf("building synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Audio{}, fmt.Errorf("synthesizing %q: %w", text, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Audio{}, fmt.Errorf("tts endpoint returned %s: %s", resp.Status, snippet)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Audio{}, fmt.Errorf("reading synthesis response: %w", err)
	}

	data := raw
	if isJSONResponse(resp.Header.Get("Content-Type")) {
		var reply map[string]any
		if err := json.Unmarshal(raw, &reply); err != nil {
			return models.Audio{}, fmt.Errorf("decoding synthesis response: %w", err)
		}
		encoded, _ := reply[s.audioField()].(string)
		if encoded == "" {
			return models.Audio{}, fmt.Errorf("synthesis response missing %q field", s.audioField())
		}
		data, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return models.Audio{}, fmt.Errorf("decoding synthesis audio: %w", err)
		}
	}

	return models.Audio{
		Data:        data,
		Format:      s.format(),
		SampleRate:  s.SampleRate,
		Channels:    s.Channels,
		SampleWidth: s.SampleWidth,
	}, nil
}

func isJSONResponse(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

func (s *HTTPSynthesizer) textField() string {
	if s.TextField == "" {
		return "text"
	}
	return s.TextField
}

func (s *HTTPSynthesizer) audioField() string {
	if s.AudioField == "" {
		return "audio"
	}
	return s.AudioField
}

func (s *HTTPSynthesizer) format() models.AudioFormat {
	if s.Format == "" {
		return models.FormatWAV
	}
	return s.Format
}

// KeyExtra returns the settings that affect the synthesized audio, suitable
// for an audio cache key.
func (s *HTTPSynthesizer) KeyExtra() map[string]string {
	extra := map[string]string{"url": s.URL, "format": string(s.format())}
	if s.Voice != "" {
		extra["voice"] = s.Voice
	}
	if s.Speed != "" {
		extra["speed"] = s.Speed
	}
	return extra
}
