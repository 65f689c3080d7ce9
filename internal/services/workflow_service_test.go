package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devforge/internal/events"
	"devforge/internal/llm/client"
	"devforge/internal/models"
	"devforge/internal/services"
	"devforge/internal/tests/mocks"
)

func testProject() *models.Project {
	return &models.Project{
		ID:       "ab12cd34",
		Name:     "Website",
		RepoName: "acme/site",
		RepoURL:  "https://github.com/acme/site",
	}
}

func drainEvents(t *testing.T, ch *events.Channel) []events.ProgressEvent {
	t.Helper()
	sub := ch.Subscribe()
	var got []events.ProgressEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return got
			}
			if !evt.Keepalive {
				got = append(got, evt)
			}
		case <-deadline:
			t.Fatalf("run did not reach a terminal event; got %d events", len(got))
		}
	}
}

func TestWorkflow_SuccessfulRun(t *testing.T) {
	var gotReq client.GenerationRequest
	generator := &mocks.GeneratorMock{
		GenerateFunc: func(_ context.Context, req client.GenerationRequest) (*models.GenerationResult, error) {
			gotReq = req
			return &models.GenerationResult{
				Files:   []models.GeneratedFile{{Path: "contact.html", Content: "<html></html>"}},
				Summary: "Adds a contact page",
			}, nil
		},
	}
	workspace := &mocks.WorkspaceMock{}
	var prBranch, prBody string
	github := &mocks.PullRequestMock{
		CreatePullRequestFunc: func(_ context.Context, repoName, branch, title, body string) (string, error) {
			prBranch = branch
			prBody = body
			return "https://github.com/acme/site/pull/42", nil
		},
	}
	var saved *models.Ticket
	repo := &mocks.TicketRepositoryMock{
		CreateFunc: func(_ context.Context, ticket *models.Ticket) error {
			saved = ticket
			return nil
		},
	}

	w := services.NewWorkflowService(generator, workspace, github, nil, nil, repo, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-001", "Add a contact page", ch)

	got := drainEvents(t, ch)
	require.NotEmpty(t, got)

	last := got[len(got)-1]
	assert.True(t, last.Complete)
	assert.Empty(t, last.Error)
	assert.Equal(t, 100, last.Progress)
	assert.Equal(t, "https://github.com/acme/site/pull/42", last.PRURL)

	// Exactly one terminal event, and progress never decreases.
	terminals := 0
	prev := -1
	for _, evt := range got {
		if evt.Terminal() {
			terminals++
		}
		assert.GreaterOrEqual(t, evt.Progress, prev)
		prev = evt.Progress
	}
	assert.Equal(t, 1, terminals)

	assert.Equal(t, "FEAT-001", gotReq.TicketID)
	assert.Equal(t, "feature/feat-001", prBranch)
	assert.Contains(t, prBody, "`contact.html` (new, +1/-0)")

	applied := false
	for _, evt := range got {
		if strings.HasPrefix(evt.Step, "Applied changes:") {
			applied = true
		}
	}
	assert.True(t, applied, "a change summary event must be published after the write")

	require.NotNil(t, saved)
	assert.Equal(t, models.TicketComplete, saved.Status)
	assert.Equal(t, "https://github.com/acme/site/pull/42", saved.PRURL)
	assert.Equal(t, "feature/feat-001", saved.Branch)
	assert.Equal(t, "deadbeef", saved.CommitHash)
}

func TestWorkflow_GenerationFailureStopsPipeline(t *testing.T) {
	generator := &mocks.GeneratorMock{
		GenerateFunc: func(context.Context, client.GenerationRequest) (*models.GenerationResult, error) {
			return nil, errors.New("model returned no content")
		},
	}
	branched := false
	workspace := &mocks.WorkspaceMock{
		CreateBranchFunc: func(*services.Workspace, string) error {
			branched = true
			return nil
		},
	}
	prCreated := false
	github := &mocks.PullRequestMock{
		CreatePullRequestFunc: func(context.Context, string, string, string, string) (string, error) {
			prCreated = true
			return "", nil
		},
	}

	w := services.NewWorkflowService(generator, workspace, github, nil, nil, nil, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-002", "Do something", ch)

	got := drainEvents(t, ch)
	last := got[len(got)-1]
	assert.False(t, last.Complete)
	assert.Contains(t, last.Error, "generation failed")
	assert.False(t, branched, "no branch after a failed generation")
	assert.False(t, prCreated, "no PR after a failed generation")
}

func TestWorkflow_EmptyGenerationFails(t *testing.T) {
	generator := &mocks.GeneratorMock{
		GenerateFunc: func(context.Context, client.GenerationRequest) (*models.GenerationResult, error) {
			return &models.GenerationResult{}, nil
		},
	}
	branched := false
	workspace := &mocks.WorkspaceMock{
		CreateBranchFunc: func(*services.Workspace, string) error {
			branched = true
			return nil
		},
	}

	w := services.NewWorkflowService(generator, workspace, &mocks.PullRequestMock{}, nil, nil, nil, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-009", "Model returns nothing", ch)

	got := drainEvents(t, ch)
	last := got[len(got)-1]
	assert.False(t, last.Complete)
	assert.Contains(t, last.Error, "generation failed")
	assert.Contains(t, last.Error, "no files")
	assert.False(t, branched, "an empty generation must not reach the branch stage")
}

func TestWorkflow_InvalidPathAbortsBeforeCommit(t *testing.T) {
	generator := &mocks.GeneratorMock{
		GenerateFunc: func(context.Context, client.GenerationRequest) (*models.GenerationResult, error) {
			return &models.GenerationResult{
				Files: []models.GeneratedFile{{Path: "../../etc/passwd", Content: "x"}},
			}, nil
		},
	}
	committed := false
	workspace := &mocks.WorkspaceMock{
		WriteFilesFunc: func(ws *services.Workspace, files []models.GeneratedFile) error {
			return fmt.Errorf("%w: %s", services.ErrInvalidPath, files[0].Path)
		},
		CommitAndPushFunc: func(context.Context, *services.Workspace, string, string) (string, error) {
			committed = true
			return "", nil
		},
	}

	w := services.NewWorkflowService(generator, workspace, &mocks.PullRequestMock{}, nil, nil, nil, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-003", "Escape attempt", ch)

	got := drainEvents(t, ch)
	last := got[len(got)-1]
	assert.Contains(t, last.Error, "escapes workspace")
	assert.False(t, committed, "nothing may be committed after a path violation")
}

func TestWorkflow_PushFailureYieldsNoPRURL(t *testing.T) {
	generator := &mocks.GeneratorMock{
		GenerateFunc: func(context.Context, client.GenerationRequest) (*models.GenerationResult, error) {
			return &models.GenerationResult{Files: []models.GeneratedFile{{Path: "a.txt", Content: "a"}}}, nil
		},
	}
	workspace := &mocks.WorkspaceMock{
		CommitAndPushFunc: func(context.Context, *services.Workspace, string, string) (string, error) {
			return "", errors.New("remote rejected the push")
		},
	}
	github := &mocks.PullRequestMock{
		CreatePullRequestFunc: func(context.Context, string, string, string, string) (string, error) {
			t.Fatal("PR creation must not run after a failed push")
			return "", nil
		},
	}

	var saved *models.Ticket
	repo := &mocks.TicketRepositoryMock{
		CreateFunc: func(_ context.Context, ticket *models.Ticket) error {
			saved = ticket
			return nil
		},
	}

	w := services.NewWorkflowService(generator, workspace, github, nil, nil, repo, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-004", "Push fails", ch)

	got := drainEvents(t, ch)
	last := got[len(got)-1]
	assert.NotEmpty(t, last.Error)
	assert.Empty(t, last.PRURL)

	require.NotNil(t, saved)
	assert.Equal(t, models.TicketFailed, saved.Status)
	assert.Empty(t, saved.PRURL)
}

func TestWorkflow_PRFailureNamesBranchAndCommit(t *testing.T) {
	generator := &mocks.GeneratorMock{
		GenerateFunc: func(context.Context, client.GenerationRequest) (*models.GenerationResult, error) {
			return &models.GenerationResult{Files: []models.GeneratedFile{{Path: "a.txt", Content: "a"}}}, nil
		},
	}
	workspace := &mocks.WorkspaceMock{
		CommitAndPushFunc: func(context.Context, *services.Workspace, string, string) (string, error) {
			return "cafebabe", nil
		},
	}
	github := &mocks.PullRequestMock{
		CreatePullRequestFunc: func(context.Context, string, string, string, string) (string, error) {
			return "", errors.New("gh exploded")
		},
	}

	w := services.NewWorkflowService(generator, workspace, github, nil, nil, nil, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-005", "PR fails", ch)

	got := drainEvents(t, ch)
	last := got[len(got)-1]
	assert.Contains(t, last.Error, "feature/feat-005")
	assert.Contains(t, last.Error, "cafebabe")
}

func TestWorkflow_FailureKeepsStageProgress(t *testing.T) {
	generator := &mocks.GeneratorMock{
		GenerateFunc: func(context.Context, client.GenerationRequest) (*models.GenerationResult, error) {
			return nil, errors.New("boom")
		},
	}

	w := services.NewWorkflowService(generator, &mocks.WorkspaceMock{}, &mocks.PullRequestMock{}, nil, nil, nil, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-006", "Fail mid-run", ch)

	got := drainEvents(t, ch)
	last := got[len(got)-1]
	assert.NotZero(t, last.Progress, "failure must not reset progress to zero")
	prev := -1
	for _, evt := range got {
		assert.GreaterOrEqual(t, evt.Progress, prev)
		prev = evt.Progress
	}
}

func TestWorkflow_PanicBecomesTerminalFailure(t *testing.T) {
	generator := &mocks.GeneratorMock{
		GenerateFunc: func(context.Context, client.GenerationRequest) (*models.GenerationResult, error) {
			panic("nil map write")
		},
	}

	w := services.NewWorkflowService(generator, &mocks.WorkspaceMock{}, &mocks.PullRequestMock{}, nil, nil, nil, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-007", "Panic inside", ch)

	got := drainEvents(t, ch)
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.True(t, last.Terminal())
	assert.Contains(t, last.Error, "unexpected fault")
}

func TestWorkflow_CloneFailureIsTerminal(t *testing.T) {
	workspace := &mocks.WorkspaceMock{
		PrepareWorkspaceFunc: func(context.Context, string, string, string, string, string) (*services.Workspace, error) {
			return nil, errors.New("repository not found")
		},
	}

	w := services.NewWorkflowService(&mocks.GeneratorMock{}, workspace, &mocks.PullRequestMock{}, nil, nil, nil, nil, t.TempDir())
	ch := events.NewChannel()
	w.Run(context.Background(), testProject(), "FEAT-008", "Clone fails", ch)

	got := drainEvents(t, ch)
	last := got[len(got)-1]
	assert.True(t, last.Terminal())
	assert.Contains(t, last.Error, "repository not found")
}
