package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"devforge/internal/events"
	"devforge/internal/models"
	"devforge/internal/repositories"
	"devforge/internal/utils"
)

// DefaultTicketGrace is how long a finished ticket stays visible in the
// registry so late subscribers can still read its terminal event.
const DefaultTicketGrace = 2 * time.Minute

// TicketRun is one registered pipeline run: the accepted identity plus the
// progress channel observers attach to.
type TicketRun struct {
	TicketID    string
	ProjectID   string
	Description string
	StartedAt   time.Time
	Channel     *events.Channel
}

// TicketService accepts feature tickets, assigns identities, launches
// pipeline runs and tracks them until a grace period after completion.
type TicketService interface {
	// Submit validates and registers a ticket, starts its pipeline on a new
	// goroutine and returns the accepted run. The caller-supplied id is used
	// verbatim when non-empty; otherwise one is generated.
	Submit(ctx context.Context, projectID, ticketID, description string) (*TicketRun, error)
	// Lookup returns the registered run for a ticket id, or nil.
	Lookup(ticketID string) *TicketRun
	// Active returns the ids of all currently registered runs.
	Active() []string
	// History returns the persisted terminal tickets for a project.
	History(ctx context.Context, projectID string) ([]models.Ticket, error)
	// Detail returns one persisted ticket, or nil when none exists.
	Detail(ctx context.Context, projectID, ticketID string) (*models.Ticket, error)
}

type ticketService struct {
	mu       sync.Mutex
	runs     map[string]*TicketRun
	projects repositories.ProjectRepository
	tickets  repositories.TicketRepository
	workflow *WorkflowService
	logger   *slog.Logger
	grace    time.Duration
}

func NewTicketService(
	projects repositories.ProjectRepository,
	tickets repositories.TicketRepository,
	workflow *WorkflowService,
	logger *slog.Logger,
) TicketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ticketService{
		runs:     make(map[string]*TicketRun),
		projects: projects,
		tickets:  tickets,
		workflow: workflow,
		logger:   logger,
		grace:    utils.GetenvDuration("DEVFORGE_TICKET_GRACE", DefaultTicketGrace),
	}
}

func (s *ticketService) Submit(ctx context.Context, projectID, ticketID, description string) (*TicketRun, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrValidation)
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	if !project.HasRepo() {
		return nil, fmt.Errorf("%w: project %s has no connected repository", ErrValidation, projectID)
	}

	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" || strings.EqualFold(ticketID, "AUTO") {
		ticketID = generateTicketID()
	}

	run := &TicketRun{
		TicketID:    ticketID,
		ProjectID:   project.ID,
		Description: description,
		StartedAt:   time.Now(),
		Channel:     events.NewChannel(),
	}

	s.mu.Lock()
	if existing, ok := s.runs[ticketID]; ok {
		s.mu.Unlock()
		// Only live runs block resubmission; finished runs linger for the
		// grace period purely so their terminal event stays readable.
		if !existing.Channel.Terminated() {
			return nil, fmt.Errorf("%w: ticket %s is already running", ErrDuplicateTicket, ticketID)
		}
		return nil, fmt.Errorf("%w: ticket %s finished recently, retry shortly", ErrDuplicateTicket, ticketID)
	}
	s.runs[ticketID] = run
	s.mu.Unlock()

	s.logger.Info("ticket accepted", "ticket", ticketID, "project", project.ID)

	go func() {
		// The run outlives the submitting request.
		s.workflow.Run(context.Background(), project, ticketID, description, run.Channel)
		time.AfterFunc(s.grace, func() { s.evict(ticketID) })
	}()

	return run, nil
}

func (s *ticketService) Lookup(ticketID string) *TicketRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[ticketID]
}

func (s *ticketService) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	return ids
}

func (s *ticketService) History(ctx context.Context, projectID string) ([]models.Ticket, error) {
	return s.tickets.ListByProject(ctx, projectID)
}

func (s *ticketService) Detail(ctx context.Context, projectID, ticketID string) (*models.Ticket, error) {
	return s.tickets.FindByProjectAndTicketID(ctx, projectID, ticketID)
}

func (s *ticketService) evict(ticketID string) {
	s.mu.Lock()
	delete(s.runs, ticketID)
	s.mu.Unlock()
	s.logger.Debug("ticket evicted", "ticket", ticketID)
}

func generateTicketID() string {
	return fmt.Sprintf("AUTO-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
