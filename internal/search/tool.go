package search

import (
	"context"
	"fmt"

	"github.com/nbdavies/ant/internal/tools"
)

// RegisterTool adds the web_search tool backed by the manager.
func RegisterTool(r *tools.Registry, mgr *Manager) {
	r.Register(&tools.Tool{
		Name:        "web_search",
		Description: "Search the web for information about a topic",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query string",
				},
				"count": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return (1-10, default 5)",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			query := tools.StringArg(args, "query")
			if query == "" {
				return "", fmt.Errorf("web_search: query is required")
			}

			results, err := mgr.Search(ctx, query, Options{
				Count: tools.IntArg(args, "count", 0),
			})
			if err != nil {
				return "", err
			}
			return FormatResults(results), nil
		},
	})
}
