package relay

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a websocket connection the relay uses. Both legs
// satisfy it via *websocket.Conn.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	Close() error
}

// ModelConfig carries what is needed to dial and prime the realtime model
// socket.
type ModelConfig struct {
	URL    string // wss endpoint including the model query parameter
	APIKey string
	Voice  string
}

// ModelClient wraps the realtime model socket. Writes are serialized; the
// underlying connection does not allow concurrent writers.
type ModelClient struct {
	conn Conn
	mu   sync.Mutex
}

// ModelDialer opens a realtime model connection. Swapped out in tests.
type ModelDialer func(ctx context.Context, cfg ModelConfig) (*ModelClient, error)

// DialModel connects to the realtime endpoint with bearer auth and the
// realtime beta header.
func DialModel(ctx context.Context, cfg ModelConfig) (*ModelClient, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial realtime endpoint: %w", err)
	}
	return NewModelClient(conn), nil
}

func NewModelClient(conn Conn) *ModelClient {
	return &ModelClient{conn: conn}
}

func (c *ModelClient) Read() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *ModelClient) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *ModelClient) Close() error {
	return c.conn.Close()
}

// SendSessionUpdate configures audio formats, server-side voice activity
// detection, instructions, and the tool schemas for the call.
func (c *ModelClient) SendSessionUpdate(voice, instructions string) error {
	return c.send(map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"turn_detection": map[string]any{
				"type":                "server_vad",
				"threshold":           0.6,
				"prefix_padding_ms":   300,
				"silence_duration_ms": 500,
			},
			"input_audio_format":  "g711_ulaw",
			"output_audio_format": "g711_ulaw",
			"voice":               voice,
			"instructions":        instructions,
			"modalities":          []string{"text", "audio"},
			"temperature":         0.8,
			"tools": []map[string]any{
				{
					"type":        "function",
					"name":        "lookup_knowledge",
					"description": "Elaborate on the user's original query, providing additional context, specificity, and clarity to create a more detailed, expert-level question suitable for the knowledge base to answer.",
					"parameters": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"query": map[string]any{
								"type":        "string",
								"description": "The elaborated user query. Fully describe the user's original question, adding depth, context, and clarity, as if the user were asking an expert in the relevant field.",
							},
						},
						"required": []string{"query"},
					},
				},
				{
					"type":        "function",
					"name":        "transfer_to_agent",
					"description": "Transfers the caller to a live agent when the assistant is unable to answer repeatedly or the caller explicitly asks for an operator or live support.",
				},
			},
		},
	})
}

// SendIntroduction seeds the conversation with a synthetic user turn and
// asks the model to respond with the configured introduction.
func (c *ModelClient) SendIntroduction(introduction string) error {
	err := c.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": "Introduce yourself"},
			},
		},
	})
	if err != nil {
		return err
	}
	return c.send(map[string]any{
		"type": "response.create",
		"response": map[string]any{
			"instructions": fmt.Sprintf("Introduce yourself as %s", introduction),
		},
	})
}

// AppendAudio forwards one base64 caller audio payload into the model's
// input buffer.
func (c *ModelClient) AppendAudio(payload string) error {
	return c.send(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": payload,
	})
}

// CancelResponse interrupts the in-flight model response.
func (c *ModelClient) CancelResponse() error {
	return c.send(map[string]any{"type": "response.cancel"})
}

// SendFunctionOutput returns a tool result to the model and requests the
// next response.
func (c *ModelClient) SendFunctionOutput(callID, output string) error {
	err := c.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  output,
		},
	})
	if err != nil {
		return err
	}
	return c.send(map[string]any{"type": "response.create"})
}
