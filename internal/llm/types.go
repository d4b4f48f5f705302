// Package llm provides the local model client.
package llm

import (
	"log/slog"
	"time"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Message represents a chat message exchanged with the model.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
}

// ToolCall represents a tool call from the model.
type ToolCall struct {
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction names the tool and carries its arguments.
type ToolCallFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"` // Ollama returns an object, not a string
}

// ChatResponse is the response to a chat request. Wire format
// conversion happens in ollama.go; fields here use proper Go types.
type ChatResponse struct {
	Model     string
	CreatedAt time.Time
	Message   Message
	Done      bool

	// Token usage
	InputTokens  int
	OutputTokens int

	// Timing (populated when available)
	TotalDuration time.Duration
	EvalDuration  time.Duration
}

// StreamCallback receives incremental text tokens during a streaming
// chat request.
type StreamCallback func(token string)

// ModelInfo describes an installed model. Fields the server does not
// report are set to "Unknown" rather than left empty.
type ModelInfo struct {
	Name          string
	Family        string
	ParameterSize string
	Quantization  string
	Format        string
}
