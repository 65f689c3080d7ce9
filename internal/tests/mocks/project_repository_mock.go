package mocks

import (
	"context"

	"devforge/internal/models"
)

type ProjectRepositoryMock struct {
	CreateFunc   func(ctx context.Context, p *models.Project) error
	FindByIDFunc func(ctx context.Context, id string) (*models.Project, error)
	ListFunc     func(ctx context.Context, limit, offset int) ([]models.Project, error)
	UpdateFunc   func(ctx context.Context, p *models.Project) error
	DeleteFunc   func(ctx context.Context, id string) error
}

func (m *ProjectRepositoryMock) Create(ctx context.Context, p *models.Project) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *ProjectRepositoryMock) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *ProjectRepositoryMock) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []models.Project{}, nil
}

func (m *ProjectRepositoryMock) Update(ctx context.Context, p *models.Project) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	return nil
}

func (m *ProjectRepositoryMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
