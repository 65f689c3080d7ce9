package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"devforge/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheckSetup(w http.ResponseWriter, r *http.Request) {
	type probe struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	resp := struct {
		GitHubCLI probe  `json:"github_cli"`
		Provider  string `json:"model_provider"`
		Model     string `json:"model"`
	}{
		GitHubCLI: probe{OK: true},
	}
	if err := s.svc.GitHub.CheckAvailability(r.Context()); err != nil {
		resp.GitHubCLI = probe{Error: err.Error()}
	}
	if s.svc.Model != nil {
		resp.Provider = s.svc.Model.Provider()
		resp.Model = s.svc.Model.Model()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	repos, err := s.svc.GitHub.ListRepos(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	limit, offset := 100, 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil {
			offset = n
		}
	}
	projects, err := s.svc.Projects.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreateRepo  bool   `json:"create_repo"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	project, err := s.svc.Projects.Create(r.Context(), req.Name, req.Description, req.CreateRepo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.svc.Projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if project == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "project not found"})
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	project, err := s.svc.Projects.Update(r.Context(), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleConnectRepo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RepoName string `json:"repo_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	project, err := s.svc.Projects.ConnectRepo(r.Context(), r.PathValue("id"), req.RepoName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleProjectFiles(w http.ResponseWriter, r *http.Request) {
	files, summary, err := s.svc.Projects.IndexFiles(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []models.FileInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"files":   files,
		"summary": summary,
	})
}

func (s *Server) handleProjectBranches(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Projects.Branches(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if state.Branches == nil {
		state.Branches = []models.BranchInfo{}
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleTicketHistory(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.svc.Tickets.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) handleTicketDetail(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.svc.Tickets.Detail(r.Context(), r.PathValue("id"), r.PathValue("tid"))
	if err != nil {
		writeError(w, err)
		return
	}
	if ticket == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (s *Server) handleListKeys(w http.ResponseWriter, _ *http.Request) {
	keys, err := s.svc.Keyring.ListApiKeys()
	if err != nil {
		writeError(w, err)
		return
	}
	if keys == nil {
		keys = []map[string]string{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleStoreKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := s.svc.Keyring.StoreApiKey(req.Provider, []byte(req.APIKey)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"provider": req.Provider, "status": "stored"})
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Keyring.DeleteApiKey(r.PathValue("provider")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type submitTicketRequest struct {
	ProjectID   string `json:"project_id"`
	TicketID    string `json:"ticket_id"`
	Description string `json:"description"`
}

func (s *Server) handleSubmitTicket(w http.ResponseWriter, r *http.Request) {
	var req submitTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	run, err := s.svc.Tickets.Submit(r.Context(), req.ProjectID, req.TicketID, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":         "accepted",
		"ticket_id":      run.TicketID,
		"auto_generated": run.TicketID != strings.TrimSpace(req.TicketID),
	})
}
