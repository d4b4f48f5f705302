// Package forge gives the assistant read access to the user's GitHub
// account: profile, repositories, and open issues. It wraps the
// go-github SDK behind a small query surface sized for tool calls.
package forge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v69/github"
)

// GitHub is an authenticated GitHub API client.
type GitHub struct {
	client *gogithub.Client
	logger *slog.Logger

	login string // authenticated username, cached after first lookup
}

// NewGitHub creates a client from an access token. baseURL overrides
// the API endpoint (tests, GitHub Enterprise); empty means github.com.
func NewGitHub(httpClient *http.Client, token, baseURL string, logger *slog.Logger) (*GitHub, error) {
	if token == "" {
		return nil, fmt.Errorf("forge: github token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := gogithub.NewClient(httpClient).WithAuthToken(token)
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("forge: bad base url %q: %w", baseURL, err)
		}
	}

	return &GitHub{client: client, logger: logger}, nil
}

// User is the authenticated account's profile.
type User struct {
	Login       string `json:"username"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Location    string `json:"location,omitempty"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Repository is a summary entry from a repository listing.
type Repository struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	Language    string `json:"language,omitempty"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	URL         string `json:"url,omitempty"`
}

// RepoDetails is the full view of a single repository.
type RepoDetails struct {
	Repository
	Watchers      int      `json:"watchers"`
	OpenIssues    int      `json:"open_issues"`
	DefaultBranch string   `json:"default_branch,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	PushedAt      string   `json:"pushed_at,omitempty"`
	CloneURL      string   `json:"clone_url,omitempty"`
	Topics        []string `json:"topics,omitempty"`
}

// Issue is an open issue on a repository. Body is truncated for
// context economy.
type Issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	State     string   `json:"state"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	Author    string   `json:"author,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	URL       string   `json:"url,omitempty"`
}

// issueBodyLimit caps issue bodies returned to the model.
const issueBodyLimit = 200

// checkRateLimit logs a warning when remaining API calls run low.
func (g *GitHub) checkRateLimit(resp *gogithub.Response) {
	if resp == nil {
		return
	}
	if resp.Rate.Remaining < 100 {
		g.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}

// AuthenticatedUser fetches the token owner's profile.
func (g *GitHub) AuthenticatedUser(ctx context.Context) (*User, error) {
	u, resp, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("forge: get user: %w", err)
	}
	g.checkRateLimit(resp)
	g.login = u.GetLogin()

	return &User{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		Email:       u.GetEmail(),
		Bio:         u.GetBio(),
		Location:    u.GetLocation(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   formatTime(u.GetCreatedAt().Time),
	}, nil
}

// ListRepositories returns the user's repositories, most recently
// updated first. limit <= 0 defaults to 10.
func (g *GitHub) ListRepositories(ctx context.Context, limit int) ([]Repository, error) {
	if limit <= 0 {
		limit = 10
	}

	opts := &gogithub.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gogithub.ListOptions{PerPage: limit},
	}
	results, resp, err := g.client.Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("forge: list repos: %w", err)
	}
	g.checkRateLimit(resp)

	repos := make([]Repository, 0, len(results))
	for _, r := range results {
		repos = append(repos, convertRepo(r))
	}
	return repos, nil
}

// RepoInfo fetches a single repository. A bare name is resolved
// against the authenticated user.
func (g *GitHub) RepoInfo(ctx context.Context, repo string) (*RepoDetails, error) {
	owner, name, err := g.resolveRepo(ctx, repo)
	if err != nil {
		return nil, err
	}

	r, resp, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("forge: get repo %s/%s: %w", owner, name, err)
	}
	g.checkRateLimit(resp)

	return &RepoDetails{
		Repository:    convertRepo(r),
		Watchers:      r.GetWatchersCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		DefaultBranch: r.GetDefaultBranch(),
		CreatedAt:     formatTime(r.GetCreatedAt().Time),
		PushedAt:      formatTime(r.GetPushedAt().Time),
		CloneURL:      r.GetCloneURL(),
		Topics:        r.Topics,
	}, nil
}

// OpenIssues returns a repository's open issues, skipping pull
// requests that the issues endpoint also reports. limit <= 0
// defaults to 10.
func (g *GitHub) OpenIssues(ctx context.Context, repo string, limit int) ([]Issue, error) {
	owner, name, err := g.resolveRepo(ctx, repo)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	opts := &gogithub.IssueListByRepoOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: limit},
	}
	results, resp, err := g.client.Issues.ListByRepo(ctx, owner, name, opts)
	if err != nil {
		return nil, fmt.Errorf("forge: list issues %s/%s: %w", owner, name, err)
	}
	g.checkRateLimit(resp)

	issues := make([]Issue, 0, len(results))
	for _, i := range results {
		if i.IsPullRequest() {
			continue
		}
		issues = append(issues, convertIssue(i))
	}
	return issues, nil
}

// resolveRepo splits "owner/repo", defaulting a bare name to the
// authenticated user's login.
func (g *GitHub) resolveRepo(ctx context.Context, repo string) (string, string, error) {
	if repo == "" {
		return "", "", fmt.Errorf("forge: repo name is required")
	}
	if owner, name, ok := strings.Cut(repo, "/"); ok {
		if owner == "" || name == "" {
			return "", "", fmt.Errorf("forge: invalid repo %q: expected owner/repo", repo)
		}
		return owner, name, nil
	}

	if g.login == "" {
		if _, err := g.AuthenticatedUser(ctx); err != nil {
			return "", "", fmt.Errorf("forge: resolve owner for %q: %w", repo, err)
		}
	}
	return g.login, repo, nil
}

func convertRepo(r *gogithub.Repository) Repository {
	return Repository{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		Private:     r.GetPrivate(),
		Language:    r.GetLanguage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		UpdatedAt:   formatTime(r.GetUpdatedAt().Time),
		URL:         r.GetHTMLURL(),
	}
}

func convertIssue(i *gogithub.Issue) Issue {
	out := Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      truncateBody(i.GetBody()),
		State:     i.GetState(),
		Author:    i.GetUser().GetLogin(),
		CreatedAt: formatTime(i.GetCreatedAt().Time),
		URL:       i.GetHTMLURL(),
	}
	for _, l := range i.Labels {
		out.Labels = append(out.Labels, l.GetName())
	}
	for _, a := range i.Assignees {
		out.Assignees = append(out.Assignees, a.GetLogin())
	}
	return out
}

func truncateBody(s string) string {
	if len(s) <= issueBodyLimit {
		return s
	}
	count := 0
	for i := range s {
		if count >= issueBodyLimit {
			return s[:i] + "..."
		}
		count++
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
