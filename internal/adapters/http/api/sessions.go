// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/session"
	"github.com/steadilab/steadi/internal/domain/types"
)

// SessionsHandler handles session lifecycle requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// createSessionRequest mirrors the OpenAPI schema for POST /sessions.
type createSessionRequest struct {
	Task string `json:"task"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Task      string `json:"task"`
}

// commandRequest mirrors the OpenAPI schema for POST /sessions/{id}/command.
type commandRequest struct {
	Command string `json:"command"`
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandleCreateSession handles POST /sessions requests.
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	task := types.TaskKind(strings.ToLower(strings.TrimSpace(req.Task)))
	if !task.Valid() {
		writeError(w, http.StatusBadRequest, "unknown_task", ErrBadRequest)
		return
	}

	id, err := h.deps.CreateSession(r.Context(), task)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id, Task: string(task)})
}

// HandleSessionPath routes /sessions/{id}, /sessions/{id}/frames,
// /sessions/{id}/command, and /sessions/{id}/result.
func (h *SessionsHandler) HandleSessionPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(sub, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch sub {
	case "":
		h.handleGetSession(w, r, id)
	case "frames":
		h.handlePushFrame(w, r, id)
	case "command":
		h.handleCommand(w, r, id)
	case "result":
		h.handleGetResult(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleGetSession handles GET /sessions/{id}: state plus live readout.
func (h *SessionsHandler) handleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	st, err := h.deps.SessionStatus(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handlePushFrame handles POST /sessions/{id}/frames: one landmark
// frame in, the updated live readout out.
func (h *SessionsHandler) handlePushFrame(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var frame model.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	st, err := h.deps.PushFrame(r.Context(), id, frame)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleCommand handles POST /sessions/{id}/command.
func (h *SessionsHandler) handleCommand(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	cmd := session.Command(strings.ToLower(strings.TrimSpace(req.Command)))
	if err := h.deps.Command(r.Context(), id, cmd); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "applied"})
}

// handleGetResult handles GET /sessions/{id}/result.
func (h *SessionsHandler) handleGetResult(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.Result(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
