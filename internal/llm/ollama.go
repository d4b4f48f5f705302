package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nbdavies/ant/internal/httpkit"
)

// DefaultBaseURL is the stock local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

// OllamaClient talks to a local Ollama server.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllamaClient creates a client for the given base URL. An empty URL
// uses DefaultBaseURL. timeout bounds a single chat request; zero means
// 5 minutes (large models with tools need time).
func NewOllamaClient(baseURL string, timeout time.Duration, logger *slog.Logger) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpkit.NewClient(httpkit.WithTimeout(timeout)),
		logger:     logger,
	}
}

// BaseURL returns the configured endpoint, for status display.
func (c *OllamaClient) BaseURL() string {
	return c.baseURL
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
}

// chatWire is the Ollama chat response wire format.
type chatWire struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Message   Message   `json:"message"`
	Done      bool      `json:"done"`

	TotalDuration   int64 `json:"total_duration,omitempty"`
	PromptEvalCount int   `json:"prompt_eval_count,omitempty"`
	EvalCount       int   `json:"eval_count,omitempty"`
	EvalDuration    int64 `json:"eval_duration,omitempty"`
}

func (w *chatWire) toResponse() *ChatResponse {
	return &ChatResponse{
		Model:         w.Model,
		CreatedAt:     w.CreatedAt,
		Message:       w.Message,
		Done:          w.Done,
		InputTokens:   w.PromptEvalCount,
		OutputTokens:  w.EvalCount,
		TotalDuration: time.Duration(w.TotalDuration),
		EvalDuration:  time.Duration(w.EvalDuration),
	}
}

// Chat sends a non-streaming chat completion request.
func (c *OllamaClient) Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error) {
	return c.ChatStream(ctx, model, messages, tools, nil)
}

// ChatStream sends a chat request. If callback is non-nil the request
// streams and each content token is passed to the callback; the
// returned response carries the accumulated content either way.
func (c *OllamaClient) ChatStream(ctx context.Context, model string, messages []Message, tools []map[string]any, callback StreamCallback) (*ChatResponse, error) {
	stream := callback != nil

	req := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Tools:    tools,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Log(ctx, LevelTrace, "ollama chat request",
		"model", model,
		"messages", len(messages),
		"tools", len(tools),
		"stream", stream)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify("chat", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 4096)
		return nil, fmt.Errorf("chat: API error %d: %s", resp.StatusCode, body)
	}

	var final *ChatResponse
	if stream {
		final, err = c.readStream(resp.Body, callback)
	} else {
		var wire chatWire
		if derr := json.NewDecoder(resp.Body).Decode(&wire); derr != nil {
			err = fmt.Errorf("decode response: %w", derr)
		} else {
			final = wire.toResponse()
		}
	}
	if err != nil {
		return nil, err
	}

	// Some models emit tool calls as JSON text instead of using the
	// native tool_calls field.
	if len(final.Message.ToolCalls) == 0 && final.Message.Content != "" {
		if parsed := ParseTextToolCalls(final.Message.Content); len(parsed) > 0 {
			final.Message.ToolCalls = parsed
			final.Message.Content = ""
		}
	}

	c.logger.Debug("ollama chat response",
		"model", final.Model,
		"tool_calls", len(final.Message.ToolCalls),
		"input_tokens", final.InputTokens,
		"output_tokens", final.OutputTokens)

	return final, nil
}

// readStream consumes the newline-delimited JSON stream, forwarding
// content tokens and returning the assembled final response.
func (c *OllamaClient) readStream(body io.Reader, callback StreamCallback) (*ChatResponse, error) {
	var (
		final          chatWire
		contentBuilder strings.Builder
		toolCalls      []ToolCall
	)

	decoder := json.NewDecoder(body)
	for {
		var chunk chatWire
		if err := decoder.Decode(&chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode stream chunk: %w", err)
		}

		if chunk.Message.Content != "" {
			contentBuilder.WriteString(chunk.Message.Content)
			callback(chunk.Message.Content)
		}

		// Tool calls arrive in the final chunks
		if len(chunk.Message.ToolCalls) > 0 {
			toolCalls = append(toolCalls, chunk.Message.ToolCalls...)
		}

		if chunk.Done {
			final = chunk
			break
		}
	}

	final.Message.Content = contentBuilder.String()
	final.Message.ToolCalls = toolCalls
	return final.toResponse(), nil
}

// ParseTextToolCalls extracts tool calls embedded in content text.
// Handled formats:
//   - Raw JSON object: {"name": "...", "arguments": {...}}
//   - JSON array: [{"name": "...", "arguments": {...}}]
//   - Tagged: <tool_call>...</tool_call>
func ParseTextToolCalls(content string) []ToolCall {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if strings.Contains(content, "<tool_call>") {
		start := strings.Index(content, "<tool_call>")
		end := strings.Index(content, "</tool_call>")
		if start != -1 && end > start {
			content = strings.TrimSpace(content[start+len("<tool_call>") : end])
		} else if start != -1 {
			// No closing tag, take rest of content
			content = strings.TrimSpace(content[start+len("<tool_call>"):])
		}
	}

	type textCall struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}

	var calls []textCall
	if err := json.Unmarshal([]byte(content), &calls); err == nil && len(calls) > 0 && calls[0].Name != "" {
		result := make([]ToolCall, len(calls))
		for i, tc := range calls {
			result[i].Function = ToolCallFunction{Name: tc.Name, Arguments: tc.Arguments}
		}
		return result
	}

	var single textCall
	if err := json.Unmarshal([]byte(content), &single); err == nil && single.Name != "" {
		return []ToolCall{{Function: ToolCallFunction{
			Name:      single.Name,
			Arguments: single.Arguments,
		}}}
	}

	return nil
}

// Ping checks if the Ollama server is reachable.
func (c *OllamaClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classify("ping", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping: API error %d", resp.StatusCode)
	}
	return nil
}

// ListModels returns the names of installed models.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify("list models", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list models: API error %d", resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

// ShowModel returns details for one installed model. Fields the server
// omits come back as "Unknown" so status output stays uniform.
func (c *OllamaClient) ShowModel(ctx context.Context, model string) (*ModelInfo, error) {
	payload, err := json.Marshal(map[string]string{"model": model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/show", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify("show model", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 4096)
		return nil, fmt.Errorf("show model: API error %d: %s", resp.StatusCode, body)
	}

	var wire struct {
		Details struct {
			Family            string `json:"family"`
			ParameterSize     string `json:"parameter_size"`
			QuantizationLevel string `json:"quantization_level"`
			Format            string `json:"format"`
		} `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &ModelInfo{
		Name:          model,
		Family:        orUnknown(wire.Details.Family),
		ParameterSize: orUnknown(wire.Details.ParameterSize),
		Quantization:  orUnknown(wire.Details.QuantizationLevel),
		Format:        orUnknown(wire.Details.Format),
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
