package mocks

import (
	"context"

	"devforge/internal/models"
)

type TicketRepositoryMock struct {
	CreateFunc                   func(ctx context.Context, t *models.Ticket) error
	ListByProjectFunc            func(ctx context.Context, projectID string) ([]models.Ticket, error)
	FindByProjectAndTicketIDFunc func(ctx context.Context, projectID, ticketID string) (*models.Ticket, error)
	DeleteByProjectFunc          func(ctx context.Context, projectID string) error
}

func (m *TicketRepositoryMock) Create(ctx context.Context, t *models.Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return nil
}

func (m *TicketRepositoryMock) ListByProject(ctx context.Context, projectID string) ([]models.Ticket, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ctx, projectID)
	}
	return []models.Ticket{}, nil
}

func (m *TicketRepositoryMock) FindByProjectAndTicketID(ctx context.Context, projectID, ticketID string) (*models.Ticket, error) {
	if m.FindByProjectAndTicketIDFunc != nil {
		return m.FindByProjectAndTicketIDFunc(ctx, projectID, ticketID)
	}
	return nil, nil
}

func (m *TicketRepositoryMock) DeleteByProject(ctx context.Context, projectID string) error {
	if m.DeleteByProjectFunc != nil {
		return m.DeleteByProjectFunc(ctx, projectID)
	}
	return nil
}
