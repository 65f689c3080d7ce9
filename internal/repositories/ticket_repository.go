package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"devforge/internal/models"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	ListByProject(ctx context.Context, projectID string) ([]models.Ticket, error)
	FindByProjectAndTicketID(ctx context.Context, projectID, ticketID string) (*models.Ticket, error)
	DeleteByProject(ctx context.Context, projectID string) error
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepository) ListByProject(ctx context.Context, projectID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc").Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) FindByProjectAndTicketID(ctx context.Context, projectID, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND ticket_id = ?", projectID, ticketID).
		Order("created_at desc").
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) DeleteByProject(ctx context.Context, projectID string) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.Ticket{}).Error
}
