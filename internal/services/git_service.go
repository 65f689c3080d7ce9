package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"devforge/internal/models"
	"devforge/internal/utils"
)

const commitAuthorName = "DevForge"
const commitAuthorEmail = "devforge@localhost"

// GitService owns all workspace operations: cloning a per-run checkout,
// branching, writing generated files, committing and pushing. One Workspace
// is exclusively owned by one pipeline run.
type GitService struct {
	context context.Context
}

func NewGitService() *GitService {
	return &GitService{}
}

func (g *GitService) Startup(ctx context.Context) {
	g.context = ctx
}

// Workspace is one checked-out working copy bound to a single ticket run.
type Workspace struct {
	Root   string
	Branch string
	repo   *git.Repository
}

// PrepareWorkspace produces a fresh clone under root for one ticket run.
// Each run gets its own directory so concurrent tickets never share a
// worktree.
func (g *GitService) PrepareWorkspace(ctx context.Context, root, repoURL, repoName, ticketID, token string) (*Workspace, error) {
	dir := filepath.Join(root, filepath.Base(repoName), branchSlug(ticketID)+"-"+fmt.Sprintf("%d", time.Now().UnixNano()))
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	opts := &git.CloneOptions{URL: repoURL}
	if auth := tokenAuth(token); auth != nil {
		opts.Auth = auth
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", repoName, err)
	}

	return &Workspace{Root: dir, repo: repo}, nil
}

// CreateBranch checks out a new branch from the current HEAD of the
// workspace clone.
func (g *GitService) CreateBranch(ws *Workspace, branch string) error {
	if ws == nil || ws.repo == nil {
		return fmt.Errorf("workspace is required")
	}
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}

	wt, err := ws.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	head, err := ws.repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}

	exists, err := g.BranchExists(ws.repo, branch)
	if err != nil {
		return fmt.Errorf("check branch %s: %w", branch, err)
	}
	if exists {
		return fmt.Errorf("branch %s already exists", branch)
	}

	if err := wt.Checkout(&git.CheckoutOptions{
		Hash:   head.Hash(),
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	}); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}

	ws.Branch = branch
	return nil
}

// WriteFiles writes generated files into the workspace. Every path is
// confined to the workspace root; a path that resolves outside it aborts
// the whole write with ErrInvalidPath and nothing further is written.
func (g *GitService) WriteFiles(ws *Workspace, files []models.GeneratedFile) error {
	if ws == nil {
		return fmt.Errorf("workspace is required")
	}

	for _, file := range files {
		rel := strings.TrimSpace(file.Path)
		if rel == "" {
			return fmt.Errorf("%w: empty path", ErrInvalidPath)
		}
		if filepath.IsAbs(filepath.FromSlash(rel)) {
			return fmt.Errorf("%w: %s", ErrInvalidPath, rel)
		}
		abs, ok := utils.SafeJoinUnderBase(ws.Root, rel)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidPath, rel)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return fmt.Errorf("create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(abs, []byte(file.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}

// CommitAndPush stages everything in the workspace, commits with the given
// message and pushes the workspace branch to origin. Returns the commit
// hash. There is no retry: a failed push surfaces immediately so a human
// can inspect the remote state.
func (g *GitService) CommitAndPush(ctx context.Context, ws *Workspace, message, token string) (string, error) {
	if ws == nil || ws.repo == nil {
		return "", fmt.Errorf("workspace is required")
	}

	wt, err := ws.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("stage files: %w", err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  commitAuthorName,
			Email: commitAuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	pushOpts := &git.PushOptions{RemoteName: "origin"}
	if auth := tokenAuth(token); auth != nil {
		pushOpts.Auth = auth
	}
	if err := ws.repo.PushContext(ctx, pushOpts); err != nil {
		return "", fmt.Errorf("push %s: %w", ws.Branch, err)
	}

	return hash.String(), nil
}

// BranchExists reports whether a local branch with the given name exists.
func (g *GitService) BranchExists(repo *git.Repository, branch string) (bool, error) {
	if repo == nil {
		return false, fmt.Errorf("repo cannot be nil")
	}
	_, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err == plumbing.ErrReferenceNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LatestCommit returns the HEAD commit hash for the repository at repoPath.
func (g *GitService) LatestCommit(repoPath string) (string, error) {
	if repoPath == "" {
		return "", fmt.Errorf("repository path cannot be empty")
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}

	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	return ref.Hash().String(), nil
}

// ListBranches returns all local branches and their last commit date for an opened repository.
func (g *GitService) ListBranches(repo *git.Repository) ([]models.BranchInfo, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo cannot be nil")
	}

	iter, err := repo.Branches()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var branches []models.BranchInfo
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		commit, cErr := repo.CommitObject(ref.Hash())
		if cErr != nil {
			return cErr
		}
		branches = append(branches, models.BranchInfo{
			Name:           ref.Name().Short(),
			LastCommitDate: commit.Author.When,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// Cleanup removes the workspace checkout from disk.
func (g *GitService) Cleanup(ws *Workspace) error {
	if ws == nil || ws.Root == "" {
		return nil
	}
	return os.RemoveAll(ws.Root)
}

// BranchNameForTicket derives the deterministic branch name for a ticket.
func BranchNameForTicket(ticketID string) string {
	return "feature/" + branchSlug(ticketID)
}

// branchSlug lowercases and strips characters git refs reject.
func branchSlug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == '/':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-./")
	if slug == "" {
		slug = "ticket"
	}
	return slug
}

// tokenAuth builds basic auth for https remotes from a personal access
// token. Returns nil when no token is configured so ssh remotes and public
// clones keep working.
func tokenAuth(token string) *http.BasicAuth {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: token}
}
