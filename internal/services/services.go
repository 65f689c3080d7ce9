package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"devforge/internal/llm/client"
	"devforge/internal/repositories"
	"devforge/internal/utils"
)

// Services aggregates the domain services behind the HTTP surface.
type Services struct {
	Projects ProjectService
	Tickets  TicketService
	GitHub   *GitHubService
	Keyring  *KeyringService
	Model    *client.LLMClient
}

// NewServices wires repositories, the model client and the pipeline from
// the environment. It fails when the configured model provider cannot be
// constructed; everything else degrades at request time.
func NewServices(ctx context.Context, db *gorm.DB, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}

	projectRepo := repositories.NewProjectRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)

	keyring := NewKeyringService()
	github := NewGitHubService()
	git := NewGitService()
	indexer := NewIndexerService()

	provider := utils.Getenv("DEVFORGE_MODEL_PROVIDER", "ollama")
	apiKey, err := keyring.GetApiKey(provider)
	if err != nil {
		return nil, fmt.Errorf("load %s API key: %w", provider, err)
	}
	model, err := client.New(ctx, client.Config{
		Provider: provider,
		Model:    utils.Getenv("DEVFORGE_MODEL", ""),
		APIKey:   apiKey,
		BaseURL:  utils.Getenv("DEVFORGE_OLLAMA_URL", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("configure model client: %w", err)
	}
	logger.Info("model client ready", "provider", model.Provider(), "model", model.Model())

	workRoot, err := resolveWorkRoot()
	if err != nil {
		return nil, err
	}

	workflow := NewWorkflowService(model, git, github, indexer, keyring, ticketRepo, logger, workRoot)
	projects := NewProjectService(projectRepo, ticketRepo, github, git, indexer, keyring, workRoot)

	git.Startup(ctx)
	github.Startup(ctx)
	projects.Startup(ctx)

	return &Services{
		Projects: projects,
		Tickets:  NewTicketService(projectRepo, ticketRepo, workflow, logger),
		GitHub:   github,
		Keyring:  keyring,
		Model:    model,
	}, nil
}

// resolveWorkRoot ensures the directory ticket checkouts are cloned under.
func resolveWorkRoot() (string, error) {
	root := utils.Getenv("DEVFORGE_WORKDIR", "")
	if root == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("resolve work directory: %w", err)
		}
		root = filepath.Join(cache, "devforge", "workspaces")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	return root, nil
}
