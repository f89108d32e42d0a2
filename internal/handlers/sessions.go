package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jhin-exe/weave/internal/logger"
	"github.com/jhin-exe/weave/pkg/audio"
	"github.com/jhin-exe/weave/pkg/engine"
	"github.com/jhin-exe/weave/pkg/render"
	"github.com/jhin-exe/weave/pkg/state"
	"github.com/jhin-exe/weave/pkg/storage"
)

// EventPublisher forwards session events to listeners. It is satisfied by
// *events.Broadcaster.
type EventPublisher interface {
	Observer(ctx context.Context, sessionID uuid.UUID) engine.Observer
	PublishSessionDeleted(ctx context.Context, sessionID uuid.UUID) error
}

type CreateSessionRequest struct {
	Project  string         `json:"project"`
	Snapshot *state.Session `json:"snapshot,omitempty"`
}

type ChoiceRequest struct {
	Index *int `json:"index"`
}

type SessionResponse struct {
	ID      uuid.UUID      `json:"id"`
	Project string         `json:"project"`
	View    render.View    `json:"view"`
	State   *state.Session `json:"state"`
}

type SessionHandler struct {
	storage   storage.Storage
	publisher EventPublisher
	logger    *slog.Logger
	strict    bool
	presenter *render.Presenter // no audio; clients play View.AudioRef

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewSessionHandler creates a handler for play sessions. publisher may be
// nil, in which case no events are published.
func NewSessionHandler(storage storage.Storage, publisher EventPublisher, strictVisibility bool, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		strict:    strictVisibility,
		presenter: render.NewPresenter(audio.Nop{}),
	}
}

// ServeHTTP handles HTTP requests for play sessions
// Routes:
// POST   /v1/sessions              - Start a session on a project
// GET    /v1/sessions/{id}         - Current view and state
// POST   /v1/sessions/{id}/choices - Activate a visible choice
// DELETE /v1/sessions/{id}         - End a session
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleRead(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case len(parts) == 1:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
	case len(parts) == 2 && parts[1] == "choices" && r.Method == http.MethodPost:
		h.handleChoice(w, r, id)
	case len(parts) == 2 && parts[1] == "choices":
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid create session request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Project == "" {
		writeError(w, h.logger, http.StatusBadRequest, "project is required")
		return
	}

	ctx := r.Context()
	p, err := h.storage.GetProject(ctx, req.Project)
	if err != nil {
		h.writeProjectError(w, err, req.Project)
		return
	}

	id := uuid.New()
	log := logger.WithSessionID(h.logger, id.String())
	opts := h.engineOptions(log)
	if h.publisher != nil {
		opts = append(opts, engine.WithObserver(h.publisher.Observer(ctx, id)))
	}
	e := engine.New(opts...)
	if err := e.Start(p, req.Snapshot); err != nil {
		log.Warn("Failed to start session", "error", err, "project", req.Project)
		if errors.Is(err, engine.ErrSceneNotFound) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to start session")
		return
	}

	s := &storage.Session{ID: id, Project: req.Project, State: *e.State()}
	if err := h.storage.SaveSession(ctx, s); err != nil {
		logger.WithError(log, err).Error("Failed to save session")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	log.Info("Session created", "project", req.Project)
	h.writeSession(w, http.StatusCreated, s, e)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	log := logger.WithSessionID(h.logger, id.String())
	s, e, ok := h.resume(w, r.Context(), id, log)
	if !ok {
		return
	}
	h.writeSession(w, http.StatusOK, s, e)
}

func (h *SessionHandler) handleChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, h.logger, http.StatusBadRequest, "Request body must be {\"index\": <number>}")
		return
	}

	mu := h.lock(id)
	mu.Lock()
	defer mu.Unlock()

	ctx := r.Context()
	log := logger.WithSessionID(h.logger, id.String())
	s, e, ok := h.resume(w, ctx, id, log)
	if !ok {
		return
	}
	if h.publisher != nil {
		e.AddObserver(h.publisher.Observer(ctx, id))
	}

	visible := false
	for _, c := range e.VisibleChoices() {
		if c.Index == *req.Index {
			visible = true
			break
		}
	}
	if !visible {
		writeError(w, h.logger, http.StatusConflict, "Choice is not available in the current scene")
		return
	}

	if _, err := e.ActivateChoice(*req.Index); err != nil {
		logger.WithError(log, err).Error("Failed to activate choice", "index", *req.Index)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to activate choice")
		return
	}

	s.State = *e.State()
	if err := h.storage.SaveSession(ctx, s); err != nil {
		logger.WithError(log, err).Error("Failed to save session")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}
	h.writeSession(w, http.StatusOK, s, e)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()
	log := logger.WithSessionID(h.logger, id.String())

	if err := h.storage.DeleteSession(ctx, id); err != nil {
		logger.WithError(log, err).Error("Failed to delete session")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.locks.Delete(id)

	if h.publisher != nil {
		if err := h.publisher.PublishSessionDeleted(ctx, id); err != nil {
			log.Warn("Failed to publish session deletion", "error", err)
		}
	}
	log.Info("Session deleted")
	w.WriteHeader(http.StatusNoContent)
}

// resume loads a stored session and rebuilds its engine. On failure it
// writes the response and returns false.
func (h *SessionHandler) resume(w http.ResponseWriter, ctx context.Context, id uuid.UUID, log *slog.Logger) (*storage.Session, *engine.Engine, bool) {
	s, err := h.storage.LoadSession(ctx, id)
	if err != nil {
		logger.WithError(log, err).Error("Failed to load session")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return nil, nil, false
	}
	if s == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return nil, nil, false
	}

	p, err := h.storage.GetProject(ctx, s.Project)
	if err != nil {
		h.writeProjectError(w, err, s.Project)
		return nil, nil, false
	}

	e := engine.New(h.engineOptions(log)...)
	if err := e.Start(p, &s.State); err != nil {
		log.Warn("Stored session no longer fits its project", "error", err, "project", s.Project)
		writeError(w, h.logger, http.StatusConflict, "Session no longer matches its project: "+err.Error())
		return nil, nil, false
	}
	return s, e, true
}

func (h *SessionHandler) engineOptions(log *slog.Logger) []engine.Option {
	return []engine.Option{
		engine.WithLogger(log),
		engine.WithAudio(audio.NewController(audio.LogBackend{Logger: log}, log)),
		engine.WithStrictVisibility(h.strict),
	}
}

func (h *SessionHandler) writeSession(w http.ResponseWriter, status int, s *storage.Session, e *engine.Engine) {
	writeJSON(w, h.logger, status, SessionResponse{
		ID:      s.ID,
		Project: s.Project,
		View:    h.presenter.Render(e),
		State:   e.State(),
	})
}

func (h *SessionHandler) writeProjectError(w http.ResponseWriter, err error, filename string) {
	if errors.Is(err, storage.ErrProjectNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Project not found")
		return
	}
	h.logger.Error("Failed to get project", "error", err, "filename", filename)
	writeError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve project")
}

func (h *SessionHandler) lock(id uuid.UUID) *sync.Mutex {
	mu, _ := h.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
