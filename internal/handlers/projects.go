package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jhin-exe/weave/pkg/project"
	"github.com/jhin-exe/weave/pkg/storage"
)

// ProjectResponse is a project, plus its validation report when requested.
type ProjectResponse struct {
	File    string           `json:"file"`
	Project *project.Project `json:"project"`
	Valid   *bool            `json:"valid,omitempty"`
	Issues  []project.Issue  `json:"issues,omitempty"`
}

type ProjectHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewProjectHandler(storage storage.Storage, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		storage: storage,
		logger:  logger,
	}
}

// ServeHTTP handles read-only project requests
// Routes:
// GET /v1/projects                    - Map of project titles to file names
// GET /v1/projects/{file}[?validate=1] - One project, optionally with its issues
func (h *ProjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/projects"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid filename")
		return
	}
	h.handleGet(w, r, filename)
}

func (h *ProjectHandler) handleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.storage.ListProjects(r.Context())
	if err != nil {
		h.logger.Error("Failed to list projects", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, projects)
}

func (h *ProjectHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	p, err := h.storage.GetProject(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Project not found")
			return
		}
		h.logger.Error("Failed to get project", "error", err, "filename", filename)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve project")
		return
	}

	response := ProjectResponse{File: filename, Project: p}
	if v := r.URL.Query().Get("validate"); v == "1" || v == "true" {
		response.Issues = p.Validate()
		valid := !project.HasErrors(response.Issues)
		response.Valid = &valid
	}
	writeJSON(w, h.logger, http.StatusOK, response)
}
