// Package app provides the attribution orchestrator that implements the
// dependencies required by the HTTP API.
//
// The orchestrator owns the lifetime of one AttributionRequest ->
// AttributionResult transaction: it validates the request, routes it to the
// exact or Monte Carlo path, normalizes the raw values, and hands the packaged
// result to the result sink. No mutable state is shared across requests.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fairtouch/fairtouch/internal/adapters/repository"
	"github.com/fairtouch/fairtouch/internal/domain/model"
	"github.com/fairtouch/fairtouch/internal/domain/shapley"
	"github.com/fairtouch/fairtouch/internal/domain/valuation"
	"github.com/fairtouch/fairtouch/pkg/logger"
	"github.com/fairtouch/fairtouch/pkg/metrics"
)

// Service orchestrates attribution computations.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine    *shapley.Engine
	evaluator valuation.Evaluator
	results   repository.Store

	// Configuration
	exactLimit        int
	workerCount       int
	defaultSamples    int
	maxSamples        int
	computeTimeout    time.Duration
	resultTTL         time.Duration
	baseRate          float64
	diminishingFactor float64

	// State
	started   bool
	completed atomic.Int64
	failed    atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithExactLimit sets the touchpoint count above which requests route to
// Monte Carlo.
func WithExactLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 && limit <= shapley.MaxExactLimit {
			s.exactLimit = limit
		}
	}
}

// WithWorkerCount sets the per-request computation pool size.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDefaultSamples sets the Monte Carlo draw count used when a request
// carries no override.
func WithDefaultSamples(samples int) Option {
	return func(s *Service) {
		if samples > 0 {
			s.defaultSamples = samples
		}
	}
}

// WithMaxSamples caps per-request Monte Carlo sample overrides.
func WithMaxSamples(samples int) Option {
	return func(s *Service) {
		if samples > 0 {
			s.maxSamples = samples
		}
	}
}

// WithComputeTimeout bounds the wall-clock time of one computation.
func WithComputeTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.computeTimeout = timeout
		}
	}
}

// WithResultTTL sets how long persisted results stay retrievable.
func WithResultTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.resultTTL = ttl
		}
	}
}

// WithModelParams sets the default valuation model's parameters.
func WithModelParams(baseRate, diminishingFactor float64) Option {
	return func(s *Service) {
		if baseRate > 0 {
			s.baseRate = baseRate
		}
		if diminishingFactor > 0 {
			s.diminishingFactor = diminishingFactor
		}
	}
}

// WithEvaluator injects a production coalition value evaluator in place of
// the default diminishing-returns model.
func WithEvaluator(evaluator valuation.Evaluator) Option {
	return func(s *Service) {
		if evaluator != nil {
			s.evaluator = evaluator
		}
	}
}

// WithResultStore injects a result sink in place of the in-memory TTL store.
func WithResultStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.results = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		exactLimit:        shapley.DefaultExactLimit,
		workerCount:       runtime.NumCPU(),
		defaultSamples:    shapley.DefaultSamples,
		maxSamples:        200_000,
		computeTimeout:    30 * time.Second,
		baseRate:          0.05,
		diminishingFactor: 0.9,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting attribution service...")

	if s.evaluator == nil {
		m := valuation.NewDiminishingReturnsModel(
			valuation.WithBaseRate(s.baseRate),
			valuation.WithDiminishingFactor(s.diminishingFactor),
		)
		if err := m.Validate(); err != nil {
			return fmt.Errorf("default valuation model: %w", err)
		}
		s.evaluator = m
	}

	s.engine = shapley.New(s.evaluator,
		shapley.WithExactLimit(s.exactLimit),
		shapley.WithWorkerCount(s.workerCount),
	)

	if s.results == nil {
		s.results = repository.NewMemStore(
			repository.WithResultTTL(s.resultTTL),
		)
	}

	s.started = true
	s.logger.Info(ctx, "attribution service started",
		logger.Int("exactLimit", s.exactLimit),
		logger.Int("workers", s.workerCount),
		logger.Int("defaultSamples", s.defaultSamples),
	)

	return nil
}

// Stop shuts down the service. Computations are synchronous and per-request,
// so there is nothing to drain.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "attribution service stopped")
}

// Attribute runs one attribution computation end to end.
func (s *Service) Attribute(ctx context.Context, req model.AttributionRequest) (model.AttributionResult, error) {
	start := time.Now()
	computationID := uuid.New().String()
	life := newLifecycle(s.logger, computationID)

	life.advance(ctx, stageValidating)
	if err := s.validate(req); err != nil {
		return model.AttributionResult{}, s.fail(ctx, life, err)
	}

	method := s.route(req)
	metrics.ObserveTouchpoints(len(req.Touchpoints))

	if s.computeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.computeTimeout)
		defer cancel()
	}

	var raw shapley.Raw
	var err error
	switch method {
	case model.MethodExact:
		life.advance(ctx, stageExactPath)
		raw, err = s.engine.ComputeExact(ctx, req.Touchpoints)
	case model.MethodMonteCarlo:
		life.advance(ctx, stageMonteCarloPath)
		raw, err = s.engine.ComputeMonteCarlo(ctx, req.Touchpoints, s.samplesFor(ctx, req), req.Seed)
	}
	if err != nil {
		return model.AttributionResult{}, s.fail(ctx, life, err)
	}

	life.advance(ctx, stageNormalizing)
	values, rawTotal := shapley.Normalize(raw.Values)

	result := model.AttributionResult{
		ComputationID: computationID,
		OutcomeID:     req.OutcomeID,
		Values:        values,
		Method:        method,
		RawTotal:      rawTotal,
		SampleCount:   raw.SampleCount,
		ComputedAt:    start.UTC(),
		Duration:      time.Since(start),
	}

	if req.OutcomeID != "" {
		// A sink failure does not undo a successful computation; the result
		// still goes back to the caller.
		if serr := s.results.Save(ctx, result); serr != nil {
			s.logger.Error(ctx, "result sink save failed",
				logger.String("outcomeID", req.OutcomeID),
				logger.Error(serr),
			)
		} else {
			metrics.UpdateResultsStored(s.results.Count(ctx))
		}
	}

	life.advance(ctx, stageCompleted)
	s.completed.Add(1)
	metrics.RecordAttribution(string(method), float64(result.Duration.Milliseconds()))
	metrics.RecordEngineWork(raw.SampleCount, raw.Evaluations, raw.MemoHits)

	s.logger.Info(ctx, "attribution completed",
		logger.String("computationID", computationID),
		logger.String("method", string(method)),
		logger.Int("touchpoints", len(req.Touchpoints)),
		logger.Int64("samples", raw.SampleCount),
		logger.Float64("rawTotal", rawTotal),
	)

	return result, nil
}

// GetResult returns the persisted result for an outcome id.
func (s *Service) GetResult(ctx context.Context, outcomeID string) (model.AttributionResult, error) {
	return s.results.Get(ctx, outcomeID)
}

// validate enforces the request preconditions before any computation starts.
// Duplicate touchpoint ids are rejected as an empty-input-class error: the
// request does not describe a well-formed touchpoint set.
func (s *Service) validate(req model.AttributionRequest) error {
	if len(req.Touchpoints) == 0 {
		return fmt.Errorf("%w: no touchpoints supplied", shapley.ErrEmptyInput)
	}

	seen := make(map[string]struct{}, len(req.Touchpoints))
	for _, tp := range req.Touchpoints {
		if tp.ID == "" {
			return fmt.Errorf("%w: touchpoint with empty id", shapley.ErrEmptyInput)
		}
		if _, dup := seen[tp.ID]; dup {
			return fmt.Errorf("%w: duplicate touchpoint id %q", shapley.ErrEmptyInput, tp.ID)
		}
		seen[tp.ID] = struct{}{}
	}

	if req.Samples < 0 {
		return fmt.Errorf("%w: %d", shapley.ErrInvalidSampleCount, req.Samples)
	}

	if req.MethodHint != "" && !req.MethodHint.Valid() {
		return fmt.Errorf("%w: unknown method hint %q", shapley.ErrEmptyInput, req.MethodHint)
	}

	return nil
}

// route selects the computation strategy. An explicit hint wins; an exact
// hint over the limit is not downgraded here; the engine refuses it.
func (s *Service) route(req model.AttributionRequest) model.Method {
	if req.MethodHint != "" {
		return req.MethodHint
	}
	if len(req.Touchpoints) <= s.engine.ExactLimit() {
		return model.MethodExact
	}
	return model.MethodMonteCarlo
}

// samplesFor resolves the Monte Carlo draw budget for one request.
func (s *Service) samplesFor(ctx context.Context, req model.AttributionRequest) int {
	samples := s.defaultSamples
	if req.Samples > 0 {
		samples = req.Samples
	}
	if s.maxSamples > 0 && samples > s.maxSamples {
		s.logger.Warn(ctx, "sample override clamped",
			logger.Int("requested", samples),
			logger.Int("max", s.maxSamples),
		)
		samples = s.maxSamples
	}
	return samples
}

// fail marks the request failed and records its error kind.
func (s *Service) fail(ctx context.Context, life *lifecycle, err error) error {
	life.advance(ctx, stageFailed)
	s.failed.Add(1)
	kind := shapley.Kind(err)
	metrics.RecordAttributionFailure(kind)
	s.logger.Warn(ctx, "attribution failed",
		logger.String("computationID", life.reqID),
		logger.String("kind", kind),
		logger.Error(err),
	)
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"exactLimit":     s.exactLimit,
		"workerCount":    s.workerCount,
		"defaultSamples": s.defaultSamples,
		"completed":      s.completed.Load(),
		"failed":         s.failed.Load(),
	}

	if s.started && s.results != nil {
		stats["resultsStored"] = s.results.Count(context.Background())
	}

	return stats
}
