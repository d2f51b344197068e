// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fairtouch/fairtouch/internal/adapters/repository"
)

// ResultsHandler handles persisted attribution result lookups.
type ResultsHandler struct {
	deps Dependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleGetResult handles GET /attributions/{outcome_id} requests.
func (h *ResultsHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	outcomeID := strings.TrimPrefix(r.URL.Path, "/attributions/")
	if outcomeID == "" || strings.Contains(outcomeID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing outcome id"))
		return
	}

	result, err := h.deps.GetResult(r.Context(), outcomeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result))
}
