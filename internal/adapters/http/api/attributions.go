// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/fairtouch/fairtouch/internal/domain/shapley"
)

// AttributionsHandler handles attribution computation requests.
type AttributionsHandler struct {
	deps Dependencies
}

// NewAttributionsHandler creates a new attributions handler.
func NewAttributionsHandler(deps Dependencies) *AttributionsHandler {
	return &AttributionsHandler{deps: deps}
}

// HandlePostAttribution handles POST /attributions requests.
func (h *AttributionsHandler) HandlePostAttribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var wire attributionRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	// An explicitly supplied non-positive sample count is a client error.
	// Absent means "use the default"; the two must not be conflated.
	if wire.MonteCarloSamples != nil && *wire.MonteCarloSamples <= 0 {
		writeError(w, http.StatusBadRequest, shapley.KindInvalidSampleCount,
			shapley.ErrInvalidSampleCount)
		return
	}

	req, err := wire.toModel()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.deps.Attribute(r.Context(), req)
	if err != nil {
		kind := shapley.Kind(err)
		writeError(w, statusForKind(kind), kind, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result))
}

// statusForKind maps engine error kinds to HTTP status codes. Validation
// kinds are the caller's fault; an evaluator failure is a misconfigured
// dependency, not a malformed request.
func statusForKind(kind string) int {
	switch kind {
	case shapley.KindEmptyInput, shapley.KindInvalidSampleCount, shapley.KindExactLimitExceeded:
		return http.StatusBadRequest
	case shapley.KindEvaluatorError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
