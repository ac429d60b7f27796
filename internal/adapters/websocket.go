package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/russolabs/russo/internal/models"
	"github.com/russolabs/russo/internal/parsers"
)

// WebSocketAgent delivers audio over a WebSocket connection and collects
// reply messages until a completion condition fires, the message cap is
// reached, or the response window elapses.
type WebSocketAgent struct {
	URL     string
	Parser  parsers.ResponseParser
	Headers map[string]string

	// SendBytes puts raw audio bytes on the wire instead of the base64
	// JSON envelope.
	SendBytes   bool
	AudioField  string
	FormatField string

	// IsComplete decides, after each message, whether the response is
	// finished. Nil means the first message completes the response.
	IsComplete func(messages []any) bool
	// MaxMessages caps collection. Zero means 100.
	MaxMessages int
	// ResponseTimeout bounds collection after the send. Zero means 30s.
	ResponseTimeout time.Duration
	// DialTimeout bounds the handshake. Zero means 10s.
	DialTimeout time.Duration
}

const (
	defaultWSMaxMessages     = 100
	defaultWSResponseTimeout = 30 * time.Second
	defaultWSDialTimeout     = 10 * time.Second
)

func (a *WebSocketAgent) Run(ctx context.Context, audio models.Audio) (models.AgentResponse, error) {
	dialCtx, cancel := context.WithTimeout(ctx, a.dialTimeout())
	defer cancel()

	opts := &websocket.DialOptions{}
	if len(a.Headers) > 0 {
		opts.HTTPHeader = http.Header{}
		for k, v := range a.Headers {
			opts.HTTPHeader.Set(k, v)
		}
	}

	conn, _, err := websocket.Dial(dialCtx, a.URL, opts)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("dialing %s: %w", a.URL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if err := a.send(ctx, conn, audio); err != nil {
		return models.AgentResponse{}, err
	}

	messages, err := a.collect(ctx, conn)
	if err != nil {
		return models.AgentResponse{}, err
	}

	var raw any
	if len(messages) == 1 {
		raw = messages[0]
	} else {
		raw = messages
	}
	return a.parser().Parse(raw)
}

func (a *WebSocketAgent) send(ctx context.Context, conn *websocket.Conn, audio models.Audio) error {
	if a.SendBytes {
		if err := conn.Write(ctx, websocket.MessageBinary, audio.Data); err != nil {
			return fmt.Errorf("sending audio frame: %w", err)
		}
		return nil
	}

	payload := map[string]any{
		a.audioField():  base64.StdEncoding.EncodeToString(audio.Data),
		a.formatField(): string(audio.Format),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding audio message: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("sending audio message: %w", err)
	}
	return nil
}

// collect reads messages until completion. A timeout after at least one
// message is not an error; the collected messages are the response.
func (a *WebSocketAgent) collect(ctx context.Context, conn *websocket.Conn) ([]any, error) {
	readCtx, cancel := context.WithTimeout(ctx, a.responseTimeout())
	defer cancel()

	var messages []any
	for {
		_, data, err := conn.Read(readCtx)
		if err != nil {
			if len(messages) > 0 {
				return messages, nil
			}
			return nil, fmt.Errorf("reading agent response: %w", err)
		}

		messages = append(messages, decodeMessage(data))

		if a.IsComplete == nil {
			return messages, nil
		}
		if a.IsComplete(messages) || len(messages) >= a.maxMessages() {
			return messages, nil
		}
	}
}

// decodeMessage JSON-decodes an incoming frame, falling back to the raw
// text for non-JSON payloads.
func decodeMessage(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}

func (a *WebSocketAgent) parser() parsers.ResponseParser {
	if a.Parser != nil {
		return a.Parser
	}
	return parsers.Mapping{}
}

func (a *WebSocketAgent) audioField() string {
	if a.AudioField == "" {
		return "audio"
	}
	return a.AudioField
}

func (a *WebSocketAgent) formatField() string {
	if a.FormatField == "" {
		return "format"
	}
	return a.FormatField
}

func (a *WebSocketAgent) maxMessages() int {
	if a.MaxMessages <= 0 {
		return defaultWSMaxMessages
	}
	return a.MaxMessages
}

func (a *WebSocketAgent) responseTimeout() time.Duration {
	if a.ResponseTimeout <= 0 {
		return defaultWSResponseTimeout
	}
	return a.ResponseTimeout
}

func (a *WebSocketAgent) dialTimeout() time.Duration {
	if a.DialTimeout <= 0 {
		return defaultWSDialTimeout
	}
	return a.DialTimeout
}
