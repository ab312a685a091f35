// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/steadilab/steadi/internal/domain/model"
)

// ResultsDependencies defines the interface for recent-result queries.
type ResultsDependencies interface {
	RecentResults(ctx context.Context, n int) ([]model.Result, error)
}

// ResultsHandler handles recent-result requests.
type ResultsHandler struct {
	deps     ResultsDependencies
	maxLimit int
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies, maxLimit int) *ResultsHandler {
	return &ResultsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetRecent handles GET /results?limit=N requests.
func (h *ResultsHandler) HandleGetRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limitStr := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
		return
	}
	results, err := h.deps.RecentResults(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if results == nil {
		results = []model.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}
