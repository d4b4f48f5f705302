package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nbdavies/ant/internal/tools"
)

// RegisterTool adds the web_fetch tool backed by the fetcher.
func RegisterTool(r *tools.Registry, f *Fetcher) {
	r.Register(&tools.Tool{
		Name:        "web_fetch",
		Description: "Fetch a web page and extract its readable text content",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "URL to fetch and extract content from",
				},
				"max_chars": map[string]any{
					"type":        "integer",
					"description": "Maximum characters to return (default 50000)",
				},
			},
			"required": []string{"url"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			url := tools.StringArg(args, "url")
			if url == "" {
				return "", fmt.Errorf("web_fetch: url is required")
			}

			result, err := f.Fetch(ctx, url, tools.IntArg(args, "max_chars", 0))
			if err != nil {
				return "", err
			}

			out, err := json.Marshal(result)
			if err != nil {
				return fmt.Sprintf("Title: %s\n\n%s", result.Title, result.Content), nil
			}
			return string(out), nil
		},
	})
}
