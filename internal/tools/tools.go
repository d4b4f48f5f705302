// Package tools provides the tool registry and the built-in tools the
// assistant exposes to the model.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string                                                          `json:"name"`
	Description string                                                          `json:"description"`
	Parameters  map[string]any                                                  `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// Registry holds available tools.
type Registry struct {
	tools  map[string]*Tool
	logger *slog.Logger
}

// NewRegistry creates an empty registry. Callers register built-ins and
// service tools explicitly at startup.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds a tool. Re-registering a name silently replaces the
// prior entry (last write wins).
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, nil if absent.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Schemas returns all tools in the function-calling format the model
// expects.
func (r *Registry) Schemas() []map[string]any {
	var result []map[string]any
	for _, name := range r.names() {
		t := r.tools[name]
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Describe renders a flat name-and-description list for inclusion in a
// system prompt.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, name := range r.names() {
		fmt.Fprintf(&b, "- %s: %s\n", name, r.tools[name].Description)
	}
	return b.String()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a tool by name. Unknown names fail with *NotFoundError;
// handler errors propagate untouched so the caller decides how to
// degrade.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", &NotFoundError{ToolName: name}
	}

	r.logger.Debug("executing tool", "tool", name)
	return tool.Handler(ctx, args)
}

// Argument accessors shared by tool handlers. The model sends JSON, so
// numbers arrive as float64 and everything needs a type assertion.

// StringArg returns args[key] as a string, "" when absent or mistyped.
func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// FloatArg returns args[key] as a float64, falling back to def.
func FloatArg(args map[string]any, key string, def float64) float64 {
	if f, ok := args[key].(float64); ok {
		return f
	}
	return def
}

// IntArg returns args[key] as an int, falling back to def.
func IntArg(args map[string]any, key string, def int) int {
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	return def
}

// BoolArg returns args[key] as a bool, falling back to def.
func BoolArg(args map[string]any, key string, def bool) bool {
	if b, ok := args[key].(bool); ok {
		return b
	}
	return def
}
