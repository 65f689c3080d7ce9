package mocks

import (
	"context"

	"devforge/internal/models"
	"devforge/internal/services"
)

// ProjectServiceMock satisfies services.ProjectService.
type ProjectServiceMock struct {
	CreateFunc      func(ctx context.Context, name, description string, createGitHubRepo bool) (*models.Project, error)
	GetFunc         func(ctx context.Context, id string) (*models.Project, error)
	ListFunc        func(ctx context.Context, limit, offset int) ([]models.Project, error)
	UpdateFunc      func(ctx context.Context, id, name, description string) (*models.Project, error)
	DeleteFunc      func(ctx context.Context, id string) error
	ConnectRepoFunc func(ctx context.Context, id, repoName string) (*models.Project, error)
	IndexFilesFunc  func(ctx context.Context, id string) ([]models.FileInfo, models.IndexSummary, error)
	BranchesFunc    func(ctx context.Context, id string) (*models.RepoState, error)
}

func (m *ProjectServiceMock) Startup(ctx context.Context) {}

func (m *ProjectServiceMock) Create(ctx context.Context, name, description string, createGitHubRepo bool) (*models.Project, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, description, createGitHubRepo)
	}
	return &models.Project{Name: name, Description: description}, nil
}

func (m *ProjectServiceMock) Get(ctx context.Context, id string) (*models.Project, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *ProjectServiceMock) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []models.Project{}, nil
}

func (m *ProjectServiceMock) Update(ctx context.Context, id, name, description string) (*models.Project, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, name, description)
	}
	return nil, nil
}

func (m *ProjectServiceMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *ProjectServiceMock) ConnectRepo(ctx context.Context, id, repoName string) (*models.Project, error) {
	if m.ConnectRepoFunc != nil {
		return m.ConnectRepoFunc(ctx, id, repoName)
	}
	return nil, nil
}

func (m *ProjectServiceMock) IndexFiles(ctx context.Context, id string) ([]models.FileInfo, models.IndexSummary, error) {
	if m.IndexFilesFunc != nil {
		return m.IndexFilesFunc(ctx, id)
	}
	return nil, models.IndexSummary{}, nil
}

func (m *ProjectServiceMock) Branches(ctx context.Context, id string) (*models.RepoState, error) {
	if m.BranchesFunc != nil {
		return m.BranchesFunc(ctx, id)
	}
	return &models.RepoState{}, nil
}

// TicketServiceMock satisfies services.TicketService.
type TicketServiceMock struct {
	SubmitFunc  func(ctx context.Context, projectID, ticketID, description string) (*services.TicketRun, error)
	LookupFunc  func(ticketID string) *services.TicketRun
	ActiveFunc  func() []string
	HistoryFunc func(ctx context.Context, projectID string) ([]models.Ticket, error)
	DetailFunc  func(ctx context.Context, projectID, ticketID string) (*models.Ticket, error)
}

func (m *TicketServiceMock) Submit(ctx context.Context, projectID, ticketID, description string) (*services.TicketRun, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, projectID, ticketID, description)
	}
	return &services.TicketRun{TicketID: ticketID}, nil
}

func (m *TicketServiceMock) Lookup(ticketID string) *services.TicketRun {
	if m.LookupFunc != nil {
		return m.LookupFunc(ticketID)
	}
	return nil
}

func (m *TicketServiceMock) Active() []string {
	if m.ActiveFunc != nil {
		return m.ActiveFunc()
	}
	return nil
}

func (m *TicketServiceMock) History(ctx context.Context, projectID string) ([]models.Ticket, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, projectID)
	}
	return []models.Ticket{}, nil
}

func (m *TicketServiceMock) Detail(ctx context.Context, projectID, ticketID string) (*models.Ticket, error) {
	if m.DetailFunc != nil {
		return m.DetailFunc(ctx, projectID, ticketID)
	}
	return nil, nil
}
