package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"devforge/internal/models"
	"devforge/internal/repositories"
)

type ProjectService interface {
	Startup(ctx context.Context)
	Create(ctx context.Context, name, description string, createGitHubRepo bool) (*models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, limit, offset int) ([]models.Project, error)
	Update(ctx context.Context, id, name, description string) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	ConnectRepo(ctx context.Context, id, repoName string) (*models.Project, error)
	IndexFiles(ctx context.Context, id string) ([]models.FileInfo, models.IndexSummary, error)
	Branches(ctx context.Context, id string) (*models.RepoState, error)
}

type projectService struct {
	repo     repositories.ProjectRepository
	tickets  repositories.TicketRepository
	github   *GitHubService
	git      *GitService
	indexer  *IndexerService
	keyring  *KeyringService
	workRoot string
	ctx      context.Context
}

func NewProjectService(
	repo repositories.ProjectRepository,
	tickets repositories.TicketRepository,
	github *GitHubService,
	git *GitService,
	indexer *IndexerService,
	keyring *KeyringService,
	workRoot string,
) ProjectService {
	return &projectService{
		repo:     repo,
		tickets:  tickets,
		github:   github,
		git:      git,
		indexer:  indexer,
		keyring:  keyring,
		workRoot: workRoot,
	}
}

func (s *projectService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *projectService) Create(ctx context.Context, name, description string, createGitHubRepo bool) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}

	project := &models.Project{
		ID:          uuid.NewString()[:8],
		Name:        name,
		Description: strings.TrimSpace(description),
	}

	if createGitHubRepo {
		if s.github == nil {
			return nil, fmt.Errorf("github service not configured")
		}
		fullName, url, err := s.github.CreateRepo(ctx, name, project.Description)
		if err != nil {
			return nil, fmt.Errorf("create github repo: %w", err)
		}
		project.RepoName = fullName
		project.RepoURL = url
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id string) (*models.Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrValidation)
	}
	return s.repo.FindByID(ctx, id)
}

func (s *projectService) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *projectService) Update(ctx context.Context, id, name, description string) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}

	if name = strings.TrimSpace(name); name != "" {
		project.Name = name
	}
	if description = strings.TrimSpace(description); description != "" {
		project.Description = description
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if s.tickets != nil {
		if err := s.tickets.DeleteByProject(ctx, id); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *projectService) ConnectRepo(ctx context.Context, id, repoName string) (*models.Project, error) {
	repoName = strings.TrimSpace(repoName)
	if repoName == "" {
		return nil, fmt.Errorf("%w: repository name is required", ErrValidation)
	}
	if !strings.Contains(repoName, "/") {
		return nil, fmt.Errorf("%w: repository name must be owner/repo", ErrValidation)
	}

	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}

	project.RepoName = repoName
	project.RepoURL = "https://github.com/" + repoName
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// IndexFiles clones the project's repository into a throwaway checkout and
// returns the code-file listing used for prompt context.
func (s *projectService) IndexFiles(ctx context.Context, id string) ([]models.FileInfo, models.IndexSummary, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, models.IndexSummary{}, err
	}
	if project == nil {
		return nil, models.IndexSummary{}, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if !project.HasRepo() {
		return nil, models.IndexSummary{}, fmt.Errorf("%w: project %s has no connected repository", ErrValidation, id)
	}

	token := ""
	if s.keyring != nil {
		token = s.keyring.GitToken()
	}
	ws, err := s.git.PrepareWorkspace(ctx, s.workRoot, s.github.RepoCloneURL(project.RepoName), project.RepoName, "index", token)
	if err != nil {
		return nil, models.IndexSummary{}, fmt.Errorf("%w: %v", ErrGitOperationFailed, err)
	}
	defer s.git.Cleanup(ws)

	return s.indexer.Index(ws.Root)
}

// Branches clones the project's repository into a throwaway checkout and
// reports the remote's branches and HEAD commit.
func (s *projectService) Branches(ctx context.Context, id string) (*models.RepoState, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if !project.HasRepo() {
		return nil, fmt.Errorf("%w: project %s has no connected repository", ErrValidation, id)
	}

	token := ""
	if s.keyring != nil {
		token = s.keyring.GitToken()
	}
	ws, err := s.git.PrepareWorkspace(ctx, s.workRoot, s.github.RepoCloneURL(project.RepoName), project.RepoName, "branches", token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGitOperationFailed, err)
	}
	defer s.git.Cleanup(ws)

	branches, err := s.git.ListBranches(ws.repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGitOperationFailed, err)
	}
	head, err := s.git.LatestCommit(ws.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGitOperationFailed, err)
	}
	return &models.RepoState{Head: head, Branches: branches}, nil
}
