// Package github lists a user's public repositories for project import.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultTimeout is the HTTP timeout for GitHub API calls.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// Token is optional. Unauthenticated calls get a much lower rate limit.
	Token string

	// MaxRepositories caps how many repositories are listed per user.
	MaxRepositories int

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// Repository is the subset of repository data used for import.
type Repository struct {
	Owner       string
	Name        string
	URL         string
	Description string
	Language    string
	Topics      []string
	Fork        bool
	Archived    bool
}

// Client wraps the go-github client.
type Client struct {
	gh       *gh.Client
	maxRepos int
	logger   *zap.Logger
}

// NewClient creates a GitHub API client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: DefaultTimeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = DefaultTimeout
	}

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		client.BaseURL = base
	}

	if cfg.MaxRepositories <= 0 {
		cfg.MaxRepositories = 100
	}

	return &Client{
		gh:       client,
		maxRepos: cfg.MaxRepositories,
		logger:   logger.Named("github"),
	}, nil
}

// ListPublicRepositories returns up to MaxRepositories public repositories
// owned by username, most recently pushed first.
func (c *Client) ListPublicRepositories(ctx context.Context, username string) ([]Repository, error) {
	opts := &gh.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var repos []Repository
	for {
		page, resp, err := c.gh.Repositories.ListByUser(ctx, username, opts)
		if err != nil {
			return nil, wrapError(err, "list repositories")
		}

		for _, r := range page {
			repos = append(repos, Repository{
				Owner:       r.GetOwner().GetLogin(),
				Name:        r.GetName(),
				URL:         r.GetHTMLURL(),
				Description: r.GetDescription(),
				Language:    r.GetLanguage(),
				Topics:      r.Topics,
				Fork:        r.GetFork(),
				Archived:    r.GetArchived(),
			})
			if len(repos) >= c.maxRepos {
				return repos, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Debug("Listed repositories", zap.String("user", username), zap.Int("count", len(repos)))
	return repos, nil
}

// Readme returns the decoded README of a repository, or "" when it has none.
func (c *Client) Readme(ctx context.Context, owner, repo string) (string, error) {
	content, _, err := c.gh.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", wrapError(err, "get readme")
	}

	text, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode readme: %w", err)
	}
	return text, nil
}

// UsernameFromURL extracts the account name from a profile URL such as
// https://github.com/octocat. A bare username is accepted as is.
func UsernameFromURL(profile string) (string, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "", fmt.Errorf("github profile URL is required")
	}

	if !strings.Contains(profile, "/") {
		return profile, nil
	}

	if !strings.Contains(profile, "://") {
		profile = "https://" + profile
	}
	u, err := url.Parse(profile)
	if err != nil {
		return "", fmt.Errorf("parse github URL: %w", err)
	}
	if host := strings.ToLower(u.Hostname()); host != "github.com" && host != "www.github.com" {
		return "", fmt.Errorf("not a github.com URL: %s", u.Hostname())
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", fmt.Errorf("github URL has no username")
	}
	return parts[0], nil
}

func wrapError(err error, operation string) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: github rate limit exceeded, resets at %s: %w",
			operation, rateErr.Rate.Reset.Format(time.RFC3339), err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
