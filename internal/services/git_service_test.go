package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devforge/internal/models"
)

// initTestRepo creates a local repository with one commit so branches can
// be created from HEAD.
func initTestRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@localhost", When: time.Now()},
	})
	require.NoError(t, err)

	return dir, repo
}

func TestGitService_CreateBranch(t *testing.T) {
	dir, repo := initTestRepo(t)
	g := NewGitService()
	ws := &Workspace{Root: dir, repo: repo}

	require.NoError(t, g.CreateBranch(ws, "feature/feat-1"))
	assert.Equal(t, "feature/feat-1", ws.Branch)

	exists, err := g.BranchExists(repo, "feature/feat-1")
	require.NoError(t, err)
	assert.True(t, exists)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, "feature/feat-1", head.Name().Short())
}

func TestGitService_CreateBranch_AlreadyExists(t *testing.T) {
	dir, repo := initTestRepo(t)
	g := NewGitService()
	ws := &Workspace{Root: dir, repo: repo}

	require.NoError(t, g.CreateBranch(ws, "feature/feat-2"))
	err := g.CreateBranch(ws, "feature/feat-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGitService_CreateBranch_EmptyName(t *testing.T) {
	dir, repo := initTestRepo(t)
	g := NewGitService()
	assert.Error(t, g.CreateBranch(&Workspace{Root: dir, repo: repo}, ""))
}

func TestGitService_WriteFiles(t *testing.T) {
	g := NewGitService()
	ws := &Workspace{Root: t.TempDir()}

	err := g.WriteFiles(ws, []models.GeneratedFile{
		{Path: "index.html", Content: "<html></html>"},
		{Path: "assets/css/site.css", Content: "body{}"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(ws.Root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	data, err = os.ReadFile(filepath.Join(ws.Root, "assets", "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
}

func TestGitService_WriteFiles_RejectsEscapingPaths(t *testing.T) {
	g := NewGitService()

	for _, path := range []string{
		"../outside.txt",
		"../../etc/passwd",
		"nested/../../escape.txt",
		"/etc/passwd",
		"",
	} {
		ws := &Workspace{Root: t.TempDir()}
		err := g.WriteFiles(ws, []models.GeneratedFile{{Path: path, Content: "x"}})
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", path)
	}
}

func TestGitService_WriteFiles_RejectsSymlinkEscape(t *testing.T) {
	g := NewGitService()
	outside := t.TempDir()
	ws := &Workspace{Root: t.TempDir()}

	// A cloned repository can carry a symlink pointing anywhere; writing
	// through it must be refused, not land outside the workspace.
	require.NoError(t, os.Symlink(outside, filepath.Join(ws.Root, "assets")))

	err := g.WriteFiles(ws, []models.GeneratedFile{{Path: "assets/evil.txt", Content: "x"}})
	require.ErrorIs(t, err, ErrInvalidPath)

	_, statErr := os.Stat(filepath.Join(outside, "evil.txt"))
	assert.True(t, os.IsNotExist(statErr), "nothing may be written outside the workspace")
}

func TestGitService_WriteFiles_AbortsWholeBatch(t *testing.T) {
	g := NewGitService()
	ws := &Workspace{Root: t.TempDir()}

	err := g.WriteFiles(ws, []models.GeneratedFile{
		{Path: "../escape.txt", Content: "x"},
		{Path: "good.txt", Content: "ok"},
	})
	require.ErrorIs(t, err, ErrInvalidPath)

	_, statErr := os.Stat(filepath.Join(ws.Root, "good.txt"))
	assert.True(t, os.IsNotExist(statErr), "later files must not be written after a violation")
}

func TestGitService_CommitCreatesHash(t *testing.T) {
	dir, repo := initTestRepo(t)
	g := NewGitService()
	ws := &Workspace{Root: dir, repo: repo}
	require.NoError(t, g.CreateBranch(ws, "feature/commit-test"))
	require.NoError(t, g.WriteFiles(ws, []models.GeneratedFile{{Path: "new.txt", Content: "hello"}}))

	// No remote configured, so the push must fail after the commit lands.
	_, err := g.CommitAndPush(context.Background(), ws, "FEAT-1: add new.txt", "")
	require.Error(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "FEAT-1: add new.txt", commit.Message)
	assert.Equal(t, commitAuthorName, commit.Author.Name)
}

func TestGitService_LatestCommit(t *testing.T) {
	dir, repo := initTestRepo(t)
	g := NewGitService()

	hash, err := g.LatestCommit(dir)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash().String(), hash)
}

func TestGitService_ListBranches(t *testing.T) {
	dir, repo := initTestRepo(t)
	g := NewGitService()
	ws := &Workspace{Root: dir, repo: repo}
	require.NoError(t, g.CreateBranch(ws, "feature/b"))

	branches, err := g.ListBranches(repo)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "feature/b", branches[0].Name)
}

func TestGitService_Cleanup(t *testing.T) {
	g := NewGitService()
	ws := &Workspace{Root: t.TempDir()}
	require.NoError(t, g.Cleanup(ws))
	_, err := os.Stat(ws.Root)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, g.Cleanup(nil))
}

func TestBranchNameForTicket(t *testing.T) {
	cases := map[string]string{
		"FEAT-001":            "feature/feat-001",
		"AUTO-1730000000-1a2": "feature/auto-1730000000-1a2",
		"Fix Login!!":         "feature/fix-login",
		"  spaced  ":          "feature/spaced",
		"///":                 "feature/ticket",
		"":                    "feature/ticket",
	}
	for in, want := range cases {
		assert.Equal(t, want, BranchNameForTicket(in), "input %q", in)
	}
}
