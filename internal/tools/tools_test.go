package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Execute(context.Background(), "does_not_exist", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !IsNotFound(err) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.ToolName != "does_not_exist" {
		t.Errorf("ToolName = %q", nf.ToolName)
	}
}

func TestExecutePropagatesHandlerError(t *testing.T) {
	r := NewRegistry(nil)
	sentinel := errors.New("bad arguments")

	r.Register(&Tool{
		Name:        "failing",
		Description: "always fails",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", sentinel
		},
	})

	_, err := r.Execute(context.Background(), "failing", nil)
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want handler error propagated", err)
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	r := NewRegistry(nil)

	r.Register(&Tool{
		Name: "greet",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "first", nil
		},
	})
	r.Register(&Tool{
		Name: "greet",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "second", nil
		},
	})

	if r.Len() != 1 {
		t.Errorf("registry has %d tools, want 1", r.Len())
	}
	out, err := r.Execute(context.Background(), "greet", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "second" {
		t.Errorf("output = %q, want replacement handler", out)
	}
}

func TestExecutePassesArgs(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&Tool{
		Name: "echo",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return StringArg(args, "text"), nil
		},
	})

	out, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Errorf("output = %q", out)
	}
}

func TestDescribe(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&Tool{Name: "zeta", Description: "last alphabetically"})
	r.Register(&Tool{Name: "alpha", Description: "first alphabetically"})

	desc := r.Describe()
	if !strings.Contains(desc, "- alpha: first alphabetically") {
		t.Errorf("Describe missing entry:\n%s", desc)
	}
	if strings.Index(desc, "alpha") > strings.Index(desc, "zeta") {
		t.Errorf("Describe not sorted:\n%s", desc)
	}
}

func TestSchemas(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&Tool{
		Name:        "sample",
		Description: "a sample tool",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	})

	schemas := r.Schemas()
	if len(schemas) != 1 {
		t.Fatalf("got %d schemas, want 1", len(schemas))
	}
	if schemas[0]["type"] != "function" {
		t.Errorf("schema type = %v", schemas[0]["type"])
	}
	fn, ok := schemas[0]["function"].(map[string]any)
	if !ok || fn["name"] != "sample" {
		t.Errorf("function block = %v", schemas[0]["function"])
	}
}

func TestArgAccessors(t *testing.T) {
	args := map[string]any{
		"s": "text",
		"f": 2.5,
		"i": float64(7), // JSON numbers decode as float64
		"b": true,
	}

	if got := StringArg(args, "s"); got != "text" {
		t.Errorf("StringArg = %q", got)
	}
	if got := StringArg(args, "missing"); got != "" {
		t.Errorf("StringArg missing = %q", got)
	}
	if got := FloatArg(args, "f", 0); got != 2.5 {
		t.Errorf("FloatArg = %v", got)
	}
	if got := FloatArg(args, "missing", 0.5); got != 0.5 {
		t.Errorf("FloatArg default = %v", got)
	}
	if got := IntArg(args, "i", 0); got != 7 {
		t.Errorf("IntArg = %v", got)
	}
	if got := BoolArg(args, "b", false); got != true {
		t.Errorf("BoolArg = %v", got)
	}
	if got := BoolArg(args, "missing", true); got != true {
		t.Errorf("BoolArg default = %v", got)
	}
}
