package mocks

import (
	"context"

	"devforge/internal/llm/client"
	"devforge/internal/models"
	"devforge/internal/services"
)

// GeneratorMock satisfies services.CodeGenerator.
type GeneratorMock struct {
	GenerateFunc func(ctx context.Context, req client.GenerationRequest) (*models.GenerationResult, error)
}

func (m *GeneratorMock) Generate(ctx context.Context, req client.GenerationRequest) (*models.GenerationResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &models.GenerationResult{}, nil
}

// WorkspaceMock satisfies services.WorkspaceService.
type WorkspaceMock struct {
	PrepareWorkspaceFunc func(ctx context.Context, root, repoURL, repoName, ticketID, token string) (*services.Workspace, error)
	CreateBranchFunc     func(ws *services.Workspace, branch string) error
	WriteFilesFunc       func(ws *services.Workspace, files []models.GeneratedFile) error
	CommitAndPushFunc    func(ctx context.Context, ws *services.Workspace, message, token string) (string, error)
	CleanupFunc          func(ws *services.Workspace) error
}

func (m *WorkspaceMock) PrepareWorkspace(ctx context.Context, root, repoURL, repoName, ticketID, token string) (*services.Workspace, error) {
	if m.PrepareWorkspaceFunc != nil {
		return m.PrepareWorkspaceFunc(ctx, root, repoURL, repoName, ticketID, token)
	}
	return &services.Workspace{Root: "/tmp/ws"}, nil
}

func (m *WorkspaceMock) CreateBranch(ws *services.Workspace, branch string) error {
	if m.CreateBranchFunc != nil {
		return m.CreateBranchFunc(ws, branch)
	}
	ws.Branch = branch
	return nil
}

func (m *WorkspaceMock) WriteFiles(ws *services.Workspace, files []models.GeneratedFile) error {
	if m.WriteFilesFunc != nil {
		return m.WriteFilesFunc(ws, files)
	}
	return nil
}

func (m *WorkspaceMock) CommitAndPush(ctx context.Context, ws *services.Workspace, message, token string) (string, error) {
	if m.CommitAndPushFunc != nil {
		return m.CommitAndPushFunc(ctx, ws, message, token)
	}
	return "deadbeef", nil
}

func (m *WorkspaceMock) Cleanup(ws *services.Workspace) error {
	if m.CleanupFunc != nil {
		return m.CleanupFunc(ws)
	}
	return nil
}

// PullRequestMock satisfies services.PullRequestService.
type PullRequestMock struct {
	RepoCloneURLFunc      func(repoName string) string
	CreatePullRequestFunc func(ctx context.Context, repoName, branch, title, body string) (string, error)
}

func (m *PullRequestMock) RepoCloneURL(repoName string) string {
	if m.RepoCloneURLFunc != nil {
		return m.RepoCloneURLFunc(repoName)
	}
	return "https://github.com/" + repoName + ".git"
}

func (m *PullRequestMock) CreatePullRequest(ctx context.Context, repoName, branch, title, body string) (string, error) {
	if m.CreatePullRequestFunc != nil {
		return m.CreatePullRequestFunc(ctx, repoName, branch, title, body)
	}
	return "https://github.com/" + repoName + "/pull/1", nil
}
