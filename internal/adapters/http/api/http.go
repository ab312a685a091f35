// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/steadilab/steadi/internal/adapters/repository"
	service "github.com/steadilab/steadi/internal/app"
	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/session"
	"github.com/steadilab/steadi/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CreateSession registers a session for a task kind and returns its id.
	CreateSession(ctx context.Context, task types.TaskKind) (string, error)

	// Command applies a host command to a session.
	Command(ctx context.Context, id string, cmd session.Command) error

	// PushFrame feeds one landmark frame and returns the live readout.
	PushFrame(ctx context.Context, id string, frame model.Frame) (session.Status, error)

	// SessionStatus returns the readout without processing a frame.
	SessionStatus(ctx context.Context, id string) (session.Status, error)

	// Result returns the final result of a finished session.
	Result(ctx context.Context, id string) (model.Result, error)

	// RecentResults returns up to n results, newest first.
	RecentResults(ctx context.Context, n int) ([]model.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	resultsHandler  *ResultsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRecentLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
		resultsHandler:  NewResultsHandler(deps, maxRecentLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandleCreateSession, "sessions"))
	mux.HandleFunc("/sessions/", MetricsMiddleware(s.sessionsHandler.HandleSessionPath, "session"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleGetRecent, "results"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service and session sentinels to HTTP
// statuses so handlers share one mapping.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFinished):
		writeError(w, http.StatusConflict, "not_finished", err)
	case errors.Is(err, session.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, session.ErrSessionDone):
		writeError(w, http.StatusConflict, "session_done", err)
	case errors.Is(err, session.ErrUnknownCommand):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
