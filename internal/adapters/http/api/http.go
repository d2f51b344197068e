// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fairtouch/fairtouch/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps the
// handler layer loosely coupled to the orchestrator implementation.
type Dependencies interface {
	// Attribute runs one synchronous attribution computation.
	Attribute(ctx context.Context, req model.AttributionRequest) (model.AttributionResult, error)

	// GetResult reads a persisted result from the result sink.
	GetResult(ctx context.Context, outcomeID string) (model.AttributionResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	attributionsHandler *AttributionsHandler
	resultsHandler      *ResultsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		attributionsHandler: NewAttributionsHandler(deps),
		resultsHandler:      NewResultsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/attributions", MetricsMiddleware(s.attributionsHandler.HandlePostAttribution, "attributions"))
	mux.HandleFunc("/attributions/", MetricsMiddleware(s.resultsHandler.HandleGetResult, "results"))
}

// touchpointRequest mirrors the wire schema for one touchpoint.
type touchpointRequest struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
}

// attributionRequest mirrors the wire schema for POST /attributions.
type attributionRequest struct {
	OutcomeID         string              `json:"outcome_id,omitempty"`
	Touchpoints       []touchpointRequest `json:"touchpoints"`
	MethodHint        *string             `json:"method_hint,omitempty"`
	MonteCarloSamples *int                `json:"monte_carlo_samples,omitempty"`
	Seed              *int64              `json:"seed,omitempty"`
}

// toModel validates the wire shape and converts it to the domain request.
// Set-level validation (duplicates, emptiness) belongs to the orchestrator;
// this only rejects malformed fields.
func (r attributionRequest) toModel() (model.AttributionRequest, error) {
	req := model.AttributionRequest{
		OutcomeID:   r.OutcomeID,
		Touchpoints: make([]model.Touchpoint, 0, len(r.Touchpoints)),
	}

	for _, tp := range r.Touchpoints {
		if strings.TrimSpace(tp.ID) == "" {
			return model.AttributionRequest{}, errors.New("touchpoint missing id")
		}
		ts, err := time.Parse(time.RFC3339, tp.Timestamp)
		if err != nil {
			return model.AttributionRequest{}, errors.New("invalid touchpoint timestamp; must be RFC3339")
		}
		req.Touchpoints = append(req.Touchpoints, model.Touchpoint{
			ID:        tp.ID,
			Kind:      tp.Kind,
			Timestamp: ts,
		})
	}

	if r.MethodHint != nil {
		hint := model.Method(*r.MethodHint)
		if !hint.Valid() {
			return model.AttributionRequest{}, errors.New("method_hint must be exact or monte_carlo")
		}
		req.MethodHint = hint
	}

	if r.MonteCarloSamples != nil {
		req.Samples = *r.MonteCarloSamples
	}
	if r.Seed != nil {
		req.Seed = *r.Seed
	}

	return req, nil
}

// attributionResponse mirrors the wire schema for a completed attribution.
type attributionResponse struct {
	ComputationID string             `json:"computation_id"`
	OutcomeID     string             `json:"outcome_id,omitempty"`
	Values        map[string]float64 `json:"values"`
	Method        string             `json:"method"`
	RawTotal      float64            `json:"raw_total"`
	SampleCount   int64              `json:"sample_count"`
	DurationMS    float64            `json:"duration_ms"`
}

func toResponse(result model.AttributionResult) attributionResponse {
	return attributionResponse{
		ComputationID: result.ComputationID,
		OutcomeID:     result.OutcomeID,
		Values:        result.Values,
		Method:        string(result.Method),
		RawTotal:      result.RawTotal,
		SampleCount:   result.SampleCount,
		DurationMS:    float64(result.Duration.Microseconds()) / 1000.0,
	}
}

type errorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{ErrorKind: kind, Message: msg})
}
