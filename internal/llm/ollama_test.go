package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("non-streaming Chat sent stream=true")
		}
		if req.Model != "llama3.2" {
			t.Errorf("model = %q", req.Model)
		}

		resp := map[string]any{
			"model":             "llama3.2",
			"message":           map[string]any{"role": "assistant", "content": "Hello there!"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        5,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, 0, nil)
	resp, err := c.Chat(context.Background(), "llama3.2", []Message{
		{Role: "user", Content: "hi"},
	}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Message.Content != "Hello there!" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 5 {
		t.Errorf("tokens = %d/%d, want 12/5", resp.InputTokens, resp.OutputTokens)
	}
}

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunks := []string{
			`{"model":"llama3.2","message":{"role":"assistant","content":"Hel"},"done":false}`,
			`{"model":"llama3.2","message":{"role":"assistant","content":"lo"},"done":false}`,
			`{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true,"eval_count":2}`,
		}
		for _, chunk := range chunks {
			w.Write([]byte(chunk + "\n"))
		}
	}))
	defer server.Close()

	var streamed strings.Builder
	c := NewOllamaClient(server.URL, 0, nil)
	resp, err := c.ChatStream(context.Background(), "llama3.2", nil, nil, func(token string) {
		streamed.WriteString(token)
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	if streamed.String() != "Hello" {
		t.Errorf("streamed = %q, want Hello", streamed.String())
	}
	if resp.Message.Content != "Hello" {
		t.Errorf("final content = %q, want Hello", resp.Message.Content)
	}
	if !resp.Done {
		t.Error("final response not marked done")
	}
}

func TestChatNativeToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := `{"model":"llama3.2","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"get_current_time","arguments":{}}}]},"done":true}`
		w.Write([]byte(resp))
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, 0, nil)
	resp, err := c.Chat(context.Background(), "llama3.2", nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.Message.ToolCalls))
	}
	if got := resp.Message.ToolCalls[0].Function.Name; got != "get_current_time" {
		t.Errorf("tool name = %q", got)
	}
}

func TestChatTextToolCallFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := `{"model":"llama3.2","message":{"role":"assistant","content":"{\"name\":\"web_search\",\"arguments\":{\"query\":\"go testing\"}}"},"done":true}`
		w.Write([]byte(resp))
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, 0, nil)
	resp, err := c.Chat(context.Background(), "llama3.2", nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.Message.ToolCalls))
	}
	if resp.Message.Content != "" {
		t.Errorf("content should be cleared when parsed as a tool call, got %q", resp.Message.Content)
	}
	if got := resp.Message.ToolCalls[0].Function.Arguments["query"]; got != "go testing" {
		t.Errorf("query argument = %v", got)
	}
}

func TestParseTextToolCalls(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     int
		wantName string
	}{
		{
			name:     "raw object",
			content:  `{"name": "get_current_time", "arguments": {}}`,
			want:     1,
			wantName: "get_current_time",
		},
		{
			name:     "array",
			content:  `[{"name": "a", "arguments": {}}, {"name": "b", "arguments": {}}]`,
			want:     2,
			wantName: "a",
		},
		{
			name:     "tagged",
			content:  `<tool_call>{"name": "web_search", "arguments": {"query": "x"}}</tool_call>`,
			want:     1,
			wantName: "web_search",
		},
		{
			name:     "tagged without closing tag",
			content:  `<tool_call>{"name": "web_search", "arguments": {}}`,
			want:     1,
			wantName: "web_search",
		},
		{
			name:    "plain prose",
			content: "The current time is 3pm.",
			want:    0,
		},
		{
			name:    "json without name",
			content: `{"arguments": {}}`,
			want:    0,
		},
		{
			name:    "empty",
			content: "",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTextToolCalls(tt.content)
			if len(got) != tt.want {
				t.Fatalf("parsed %d calls, want %d", len(got), tt.want)
			}
			if tt.want > 0 && got[0].Function.Name != tt.wantName {
				t.Errorf("first call = %q, want %q", got[0].Function.Name, tt.wantName)
			}
		})
	}
}

func TestChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, 0, nil)
	_, err := c.Chat(context.Background(), "nope", nil, nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should mention status code: %v", err)
	}
}

func TestPingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewOllamaClient(url, 0, nil)
	err := c.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestShowModelUnknownFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/show" {
			t.Errorf("path = %q, want /api/show", r.URL.Path)
		}
		w.Write([]byte(`{"details":{"family":"llama"}}`))
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, 0, nil)
	info, err := c.ShowModel(context.Background(), "llama3.2")
	if err != nil {
		t.Fatalf("ShowModel: %v", err)
	}
	if info.Family != "llama" {
		t.Errorf("family = %q", info.Family)
	}
	if info.ParameterSize != "Unknown" || info.Quantization != "Unknown" {
		t.Errorf("missing fields should read Unknown, got %q/%q", info.ParameterSize, info.Quantization)
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3.2"},{"name":"qwen3:8b"}]}`))
	}))
	defer server.Close()

	c := NewOllamaClient(server.URL, 0, nil)
	names, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(names) != 2 || names[0] != "llama3.2" || names[1] != "qwen3:8b" {
		t.Errorf("names = %v", names)
	}
}
