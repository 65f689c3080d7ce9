package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"devforge/internal/events"
	"devforge/internal/llm/client"
	"devforge/internal/models"
	"devforge/internal/repositories"
)

// Stage progress percentages. Exact values are cosmetic; the contract is
// that subscribers never observe a decreasing sequence.
const (
	progressInit       = 5
	progressScanning   = 10
	progressAnalyzing  = 15
	progressGenerating = 20
	progressGenerated  = 40
	progressBranching  = 50
	progressWriting    = 60
	progressCommitting = 70
	progressPushed     = 80
	progressCreatingPR = 90
)

// CodeGenerator is the AI capability the orchestrator depends on.
type CodeGenerator interface {
	Generate(ctx context.Context, req client.GenerationRequest) (*models.GenerationResult, error)
}

// WorkspaceService is the git capability the orchestrator depends on.
type WorkspaceService interface {
	PrepareWorkspace(ctx context.Context, root, repoURL, repoName, ticketID, token string) (*Workspace, error)
	CreateBranch(ws *Workspace, branch string) error
	WriteFiles(ws *Workspace, files []models.GeneratedFile) error
	CommitAndPush(ctx context.Context, ws *Workspace, message, token string) (string, error)
	Cleanup(ws *Workspace) error
}

// PullRequestService is the GitHub capability the orchestrator depends on.
type PullRequestService interface {
	RepoCloneURL(repoName string) string
	CreatePullRequest(ctx context.Context, repoName, branch, title, body string) (string, error)
}

// WorkflowService drives one ticket end to end: generate, write, commit,
// push, open the pull request. Every run publishes exactly one terminal
// event into its progress channel, whatever happens.
type WorkflowService struct {
	generator CodeGenerator
	workspace WorkspaceService
	github    PullRequestService
	indexer   *IndexerService
	keyring   *KeyringService
	tickets   repositories.TicketRepository
	logger    *slog.Logger
	workRoot  string
}

func NewWorkflowService(
	generator CodeGenerator,
	workspace WorkspaceService,
	github PullRequestService,
	indexer *IndexerService,
	keyring *KeyringService,
	tickets repositories.TicketRepository,
	logger *slog.Logger,
	workRoot string,
) *WorkflowService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkflowService{
		generator: generator,
		workspace: workspace,
		github:    github,
		indexer:   indexer,
		keyring:   keyring,
		tickets:   tickets,
		logger:    logger,
		workRoot:  workRoot,
	}
}

// runState accumulates what a run has produced so far, so failures can
// report the branch and commit that already exist on the remote.
type runState struct {
	progress   int
	branch     string
	commitHash string
	pushed     bool
	files      []models.GeneratedFile
	changes    []FileChange
}

// Run executes the pipeline for one accepted ticket. It never returns an
// error: all outcomes are reported through the progress channel and the
// ticket history row. Run is expected to be called on its own goroutine.
func (w *WorkflowService) Run(ctx context.Context, project *models.Project, ticketID, description string, ch *events.Channel) {
	state := &runState{}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("workflow panic", "ticket", ticketID, "panic", r)
			w.fail(ctx, project, ticketID, description, state, ch,
				fmt.Errorf("unexpected fault: %v", r))
		}
	}()

	log := w.logger.With("ticket", ticketID, "project", project.ID)

	// Stage: initialize. Clone a private checkout for this run.
	w.step(ch, state, "Initializing...", progressInit)

	token := ""
	if w.keyring != nil {
		token = w.keyring.GitToken()
	}

	ws, err := w.workspace.PrepareWorkspace(ctx, w.workRoot, w.github.RepoCloneURL(project.RepoName), project.RepoName, ticketID, token)
	if err != nil {
		w.fail(ctx, project, ticketID, description, state, ch,
			fmt.Errorf("%w: %v", ErrGitOperationFailed, err))
		return
	}

	// Stage: scan the checkout and pick context for the prompt. Indexing
	// problems degrade to context-free generation instead of failing the run.
	w.step(ch, state, "Scanning repository...", progressScanning)

	var repoContext string
	var mode = "create"
	if w.indexer != nil {
		files, summary, err := w.indexer.Index(ws.Root)
		if err != nil {
			log.Warn("repository index failed", "error", err)
		} else {
			log.Info("repository indexed", "code_files", summary.CodeFiles, "total_lines", summary.TotalLines)

			w.step(ch, state, "Analyzing files...", progressAnalyzing)
			targets := w.indexer.DetectTargetFiles(description)
			relevant := w.indexer.SelectContext(files, description, targets, 8)
			mode = w.indexer.DetectMode(description, targets, relevant)
			repoContext = w.indexer.FormatContext(ws.Root, relevant)
		}
	}

	// Stage: generate.
	w.step(ch, state, fmt.Sprintf("Generating code (%s mode)...", mode), progressGenerating)

	result, err := w.generator.Generate(ctx, client.GenerationRequest{
		TicketID:    ticketID,
		Description: description,
		Context:     repoContext,
		Mode:        mode,
	})
	if err != nil {
		w.cleanup(ws, state)
		w.fail(ctx, project, ticketID, description, state, ch,
			fmt.Errorf("%w: %v", ErrGenerationFailed, err))
		return
	}
	if err := validateGeneration(result); err != nil {
		w.cleanup(ws, state)
		w.fail(ctx, project, ticketID, description, state, ch,
			fmt.Errorf("%w: %v", ErrGenerationFailed, err))
		return
	}
	state.files = result.Files

	w.step(ch, state, fmt.Sprintf("Code generated! %d file(s)", len(result.Files)), progressGenerated)

	// Stage: branch.
	branch := BranchNameForTicket(ticketID)
	w.step(ch, state, "Creating branch...", progressBranching)
	if err := w.workspace.CreateBranch(ws, branch); err != nil {
		w.cleanup(ws, state)
		w.fail(ctx, project, ticketID, description, state, ch,
			fmt.Errorf("%w: %v", ErrGitOperationFailed, err))
		return
	}
	state.branch = branch

	// Stage: write files. A path escaping the workspace aborts before
	// anything is committed.
	w.step(ch, state, "Applying changes...", progressWriting)
	before := snapshotFiles(ws.Root, result.Files)
	if err := w.workspace.WriteFiles(ws, result.Files); err != nil {
		w.cleanup(ws, state)
		if !errors.Is(err, ErrInvalidPath) {
			err = fmt.Errorf("%w: %v", ErrGitOperationFailed, err)
		}
		w.fail(ctx, project, ticketID, description, state, ch, err)
		return
	}
	state.changes = summarizeChanges(before, result.Files)
	w.step(ch, state, "Applied changes: "+changesLine(state.changes), progressWriting)

	// Stage: commit and push. Deliberately no retry: a retried push can
	// race itself and leave duplicate branches behind.
	w.step(ch, state, "Committing...", progressCommitting)
	message := fmt.Sprintf("%s: %s", ticketID, truncate(description, 120))
	commitHash, err := w.workspace.CommitAndPush(ctx, ws, message, token)
	if err != nil {
		// Keep the checkout: the generated files exist only there.
		w.fail(ctx, project, ticketID, description, state, ch,
			fmt.Errorf("%w: %v (workspace preserved at %s)", ErrGitOperationFailed, err, ws.Root))
		return
	}
	state.commitHash = commitHash
	state.pushed = true

	w.step(ch, state, "Pushed branch "+branch, progressPushed)

	// Stage: pull request.
	w.step(ch, state, "Creating pull request...", progressCreatingPR)
	title := fmt.Sprintf("%s: %s", ticketID, truncate(description, 72))
	body := prBody(ticketID, description, result.Summary, state.changes)
	prURL, err := w.github.CreatePullRequest(ctx, project.RepoName, branch, title, body)
	if err != nil {
		// The push already succeeded; name the branch and commit so the
		// work stays recoverable by hand.
		w.cleanup(ws, state)
		w.fail(ctx, project, ticketID, description, state, ch,
			fmt.Errorf("%w: %v (branch %s pushed at commit %s)", ErrPRCreationFailed, err, branch, commitHash))
		return
	}

	w.cleanup(ws, state)
	w.record(ctx, project, ticketID, description, state, models.TicketComplete, prURL, "")
	ch.Publish(events.NewComplete(fmt.Sprintf("Complete! %d file(s) on %s", len(state.files), branch), prURL))
	log.Info("workflow complete", "pr_url", prURL, "branch", branch)
}

// step publishes a progress event and advances the in-memory state.
func (w *WorkflowService) step(ch *events.Channel, state *runState, text string, progress int) {
	if progress > state.progress {
		state.progress = progress
	}
	ch.Publish(events.NewProgress(text, state.progress))
}

// fail records the failed run and publishes the single terminal failure
// event at the progress of the failing stage.
func (w *WorkflowService) fail(ctx context.Context, project *models.Project, ticketID, description string, state *runState, ch *events.Channel, err error) {
	w.logger.Error("workflow failed", "ticket", ticketID, "error", err)
	w.record(ctx, project, ticketID, description, state, models.TicketFailed, "", err.Error())
	ch.Publish(events.NewFailure("Error: "+err.Error(), state.progress, err.Error()))
}

// record writes the terminal ticket history row. History failures are
// logged, never fatal: the progress event is the authoritative outcome.
func (w *WorkflowService) record(ctx context.Context, project *models.Project, ticketID, description string, state *runState, status models.TicketStatus, prURL, errMsg string) {
	if w.tickets == nil {
		return
	}

	var filesJSON string
	if len(state.files) > 0 {
		paths := make([]string, 0, len(state.files))
		for _, f := range state.files {
			paths = append(paths, f.Path)
		}
		if data, err := json.Marshal(paths); err == nil {
			filesJSON = string(data)
		}
	}

	ticket := &models.Ticket{
		TicketID:    ticketID,
		ProjectID:   project.ID,
		Description: description,
		Status:      status,
		PRURL:       prURL,
		Branch:      state.branch,
		CommitHash:  state.commitHash,
		Error:       errMsg,
		FilesJSON:   filesJSON,
	}
	if err := w.tickets.Create(ctx, ticket); err != nil {
		w.logger.Error("record ticket history", "ticket", ticketID, "error", err)
	}
}

// cleanup removes the run's checkout unless unpushed work would be lost.
func (w *WorkflowService) cleanup(ws *Workspace, state *runState) {
	if ws == nil {
		return
	}
	if len(state.files) > 0 && state.branch != "" && !state.pushed {
		// Files were written but never made it to the remote.
		return
	}
	if err := w.workspace.Cleanup(ws); err != nil {
		w.logger.Warn("workspace cleanup failed", "path", ws.Root, "error", err)
	}
}

func prBody(ticketID, description, summary string, changes []FileChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", ticketID, description)
	if summary != "" {
		fmt.Fprintf(&b, "**Summary:** %s\n\n", summary)
	}
	if len(changes) > 0 {
		b.WriteString("**Files:**\n")
		for _, c := range changes {
			kind := "edited"
			if c.Created {
				kind = "new"
			}
			fmt.Fprintf(&b, "- `%s` (%s, +%d/-%d)\n", c.Path, kind, c.Added, c.Removed)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n🤖 This pull request was generated by DevForge from a ticket description.\n")
	return b.String()
}

// validateGeneration rejects model output no pipeline stage can act on.
func validateGeneration(result *models.GenerationResult) error {
	if result == nil || len(result.Files) == 0 {
		return fmt.Errorf("model returned no files")
	}
	seen := make(map[string]struct{}, len(result.Files))
	for _, f := range result.Files {
		path := strings.TrimSpace(f.Path)
		if _, dup := seen[path]; dup {
			return fmt.Errorf("duplicate path %s", path)
		}
		seen[path] = struct{}{}
	}
	return nil
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
