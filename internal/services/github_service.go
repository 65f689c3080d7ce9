package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// GitHubService wraps the gh CLI for the operations that need the GitHub
// API: repo listing/creation and pull requests. The CLI carries its own
// authentication, matching how operators already work with GitHub locally.
type GitHubService struct {
	context context.Context
}

func NewGitHubService() *GitHubService {
	return &GitHubService{}
}

func (s *GitHubService) Startup(ctx context.Context) {
	s.context = ctx
}

// RepoSummary is one entry of `gh repo list`.
type RepoSummary struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	URL string `json:"url"`
}

// CheckAvailability verifies the gh CLI is installed and authenticated.
func (s *GitHubService) CheckAvailability(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "gh", "--version").Run(); err != nil {
		return fmt.Errorf("gh is unavailable: %w", err)
	}
	if err := exec.CommandContext(ctx, "gh", "auth", "status").Run(); err != nil {
		return fmt.Errorf("gh is not authenticated: %w", err)
	}
	return nil
}

// ListRepos returns up to limit repositories of the authenticated user.
func (s *GitHubService) ListRepos(ctx context.Context, limit int) ([]RepoSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	cmd := exec.CommandContext(ctx, "gh", "repo", "list",
		"--json", "name,owner,url", "--limit", fmt.Sprintf("%d", limit))
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("gh repo list: %w", err)
	}

	var repos []RepoSummary
	if err := json.Unmarshal(output, &repos); err != nil {
		return nil, fmt.Errorf("parse gh repo list output: %w", err)
	}
	return repos, nil
}

// CreateRepo creates a private repository and returns its full name and URL.
func (s *GitHubService) CreateRepo(ctx context.Context, name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("repository name is required")
	}

	args := []string{"repo", "create", name, "--private"}
	if description != "" {
		args = append(args, "--description", description)
	}
	cmd := exec.CommandContext(ctx, "gh", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", "", fmt.Errorf("gh repo create: %w: %s", err, strings.TrimSpace(string(output)))
	}

	url := strings.TrimSpace(string(output))
	fullName := name
	if idx := strings.Index(url, "github.com/"); idx >= 0 {
		fullName = strings.TrimSuffix(url[idx+len("github.com/"):], "/")
	}
	return fullName, url, nil
}

// RepoCloneURL returns the https clone URL for an owner/repo name.
func (s *GitHubService) RepoCloneURL(repoName string) string {
	return fmt.Sprintf("https://github.com/%s.git", repoName)
}

// CreatePullRequest opens a PR for branch against the repository's default
// branch and returns the PR URL.
func (s *GitHubService) CreatePullRequest(ctx context.Context, repoName, branch, title, body string) (string, error) {
	if repoName == "" {
		return "", fmt.Errorf("repository name is required")
	}
	if branch == "" {
		return "", fmt.Errorf("branch is required")
	}

	cmd := exec.CommandContext(ctx, "gh", "pr", "create",
		"--repo", repoName,
		"--head", branch,
		"--title", title,
		"--body", body)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("gh pr create: %w: %s", err, strings.TrimSpace(string(output)))
	}

	// gh prints the PR URL as the last line of stdout.
	lines := strings.Fields(strings.TrimSpace(string(output)))
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "https://") {
			return lines[i], nil
		}
	}
	return "", fmt.Errorf("gh pr create: no PR URL in output: %s", strings.TrimSpace(string(output)))
}
