package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/audit"
	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
)

// AddProjectResponse is returned by POST /api/projects.
type AddProjectResponse struct {
	Project *models.Project `json:"project"`
	Message string          `json:"message,omitempty"`
}

// MatchRequest is the body of POST /api/projects/match.
type MatchRequest struct {
	JobDescription string `json:"job_description"`
}

// ImportRequest is the body of POST /api/projects/import/github.
type ImportRequest struct {
	GitHubURL string `json:"github_url"`
}

// ProjectsHandler handles project, matching and import requests.
type ProjectsHandler struct {
	projects services.ProjectService
	matcher  services.MatchService
	importer services.GitHubImportService
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projects services.ProjectService, matcher services.MatchService, importer services.GitHubImportService, auditor *audit.SecurityAuditor, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projects: projects,
		matcher:  matcher,
		importer: importer,
		auditor:  auditor,
		logger:   logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, ownerMiddleware OwnerMiddleware) {
	mux.HandleFunc("POST /api/projects", authMiddleware.RequireAuth(ownerMiddleware(h.Add)))
	mux.HandleFunc("GET /api/projects", authMiddleware.RequireAuth(ownerMiddleware(h.List)))
	mux.HandleFunc("GET /api/projects/{id}", authMiddleware.RequireAuth(ownerMiddleware(h.Get)))
	mux.HandleFunc("DELETE /api/projects/{id}", authMiddleware.RequireAuth(ownerMiddleware(h.Delete)))
	mux.HandleFunc("POST /api/projects/{id}/ingest", authMiddleware.RequireAuth(ownerMiddleware(h.Ingest)))
	mux.HandleFunc("POST /api/projects/match", authMiddleware.RequireAuth(h.Match))
	mux.HandleFunc("POST /api/projects/import/github", authMiddleware.RequireAuth(ownerMiddleware(h.ImportGitHub)))
}

// Add handles POST /api/projects.
// Stores the project and embeds it. When embedding fails the project stays
// stored and its ID is included in the error body.
func (h *ProjectsHandler) Add(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	var fields models.ProjectFields
	if !decodeJSON(w, r, &fields, h.logger) {
		return
	}

	project, message, err := h.projects.AddAndIngest(r.Context(), owner, fields)
	if err != nil {
		if project == nil {
			writeServiceError(w, err, "add project", h.logger)
			return
		}
		status, code := errorStatus(err)
		h.logger.Error("Project stored but not ingested",
			zap.String("project_id", project.ID.String()),
			zap.String("error", logging.SanitizeError(err)))
		if err := WriteJSON(w, status, map[string]string{
			"error":      code,
			"message":    "Project saved but could not be embedded",
			"project_id": project.ID.String(),
		}); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	writeSuccess(w, http.StatusCreated, AddProjectResponse{Project: project, Message: message}, h.logger)
}

// List handles GET /api/projects.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	projects, err := h.projects.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "list projects", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, projects, h.logger)
}

// Get handles GET /api/projects/{id}.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	project, err := h.projects.Get(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, err, "get project", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, project, h.logger)
}

// Delete handles DELETE /api/projects/{id}.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.projects.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, err, "delete project", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ingest handles POST /api/projects/{id}/ingest.
func (h *ProjectsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	message, err := h.projects.IngestProject(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, err, "ingest project", h.logger)
		return
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: message}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Match handles POST /api/projects/match.
// Matching reads only the vector index, so no owner-scoped connection is
// held while the embedding call runs.
func (h *ProjectsHandler) Match(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	var req MatchRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "job_description is required", h.logger)
		return
	}

	results, err := h.matcher.Match(r.Context(), owner, req.JobDescription)
	if err != nil {
		writeServiceError(w, err, "match projects", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, results, h.logger)
}

// ImportGitHub handles POST /api/projects/import/github.
func (h *ProjectsHandler) ImportGitHub(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	var req ImportRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	results, err := h.importer.ImportRepositories(r.Context(), owner, req.GitHubURL)
	if err != nil {
		writeServiceError(w, err, "import repositories", h.logger)
		return
	}

	details := audit.RepositoryImportDetails{GitHubURL: req.GitHubURL}
	for _, res := range results {
		switch {
		case res.Skipped:
			details.Skipped++
		case res.Error != "":
			details.Failed++
		case res.ProjectID != nil:
			details.Imported++
		}
	}
	h.auditor.LogRepositoryImport(r.Context(), details, r.RemoteAddr)

	writeSuccess(w, http.StatusOK, results, h.logger)
}
