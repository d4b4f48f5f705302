package forge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nbdavies/ant/internal/tools"
)

// RegisterTools adds the GitHub query tools. Results are returned as
// JSON for structured consumption by the model.
func (g *GitHub) RegisterTools(r *tools.Registry) {
	r.Register(&tools.Tool{
		Name:        "get_github_user",
		Description: "Get the authenticated GitHub user's profile information",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			user, err := g.AuthenticatedUser(ctx)
			if err != nil {
				return "", err
			}
			return marshal(user)
		},
	})

	r.Register(&tools.Tool{
		Name:        "list_github_repos",
		Description: "List the user's GitHub repositories, most recently updated first",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of repositories to return (default 10)",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			repos, err := g.ListRepositories(ctx, tools.IntArg(args, "limit", 0))
			if err != nil {
				return "", err
			}
			return marshal(map[string]any{
				"repositories": repos,
				"count":        len(repos),
			})
		},
	})

	r.Register(&tools.Tool{
		Name:        "get_github_repo_info",
		Description: "Get detailed information about a GitHub repository",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"repo_name": map[string]any{
					"type":        "string",
					"description": "Repository name, owner/repo or a bare name for the user's own repo",
				},
			},
			"required": []string{"repo_name"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			repo := tools.StringArg(args, "repo_name")
			if repo == "" {
				return "", fmt.Errorf("repo_name is required")
			}
			info, err := g.RepoInfo(ctx, repo)
			if err != nil {
				return "", err
			}
			return marshal(info)
		},
	})

	r.Register(&tools.Tool{
		Name:        "get_github_repo_issues",
		Description: "Get open issues for a GitHub repository",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"repo_name": map[string]any{
					"type":        "string",
					"description": "Repository name, owner/repo or a bare name for the user's own repo",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of issues to return (default 10)",
				},
			},
			"required": []string{"repo_name"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			repo := tools.StringArg(args, "repo_name")
			if repo == "" {
				return "", fmt.Errorf("repo_name is required")
			}
			issues, err := g.OpenIssues(ctx, repo, tools.IntArg(args, "limit", 0))
			if err != nil {
				return "", err
			}
			return marshal(map[string]any{
				"repository": repo,
				"issues":     issues,
				"count":      len(issues),
			})
		},
	})
}

func marshal(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("forge: encode result: %w", err)
	}
	return string(out), nil
}
