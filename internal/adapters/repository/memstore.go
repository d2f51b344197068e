package repository

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fairtouch/fairtouch/internal/domain/model"
)

// Default TTL store configuration constants.
const (
	defaultResultTTL     = 24 * time.Hour
	defaultSweepInterval = 10 * time.Minute
)

// MemStore implements Store with an in-memory TTL cache. Expired results are
// swept in the background; reads past the TTL behave as not found.
type MemStore struct {
	cache *gocache.Cache
	ttl   time.Duration
	sweep time.Duration
}

// NewMemStore creates an in-memory result store with configuration options.
func NewMemStore(opts ...MemStoreOption) *MemStore {
	s := &MemStore{
		ttl:   defaultResultTTL,
		sweep: defaultSweepInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.cache = gocache.New(s.ttl, s.sweep)
	return s
}

// Save stores the result under its outcome id.
func (s *MemStore) Save(_ context.Context, result model.AttributionResult) error {
	if result.OutcomeID == "" {
		return fmt.Errorf("%w (computation %s)", ErrMissingOutcome, result.ComputationID)
	}
	s.cache.Set(result.OutcomeID, result, gocache.DefaultExpiration)
	return nil
}

// Get returns the stored result for an outcome.
func (s *MemStore) Get(_ context.Context, outcomeID string) (model.AttributionResult, error) {
	v, found := s.cache.Get(outcomeID)
	if !found {
		return model.AttributionResult{}, fmt.Errorf("%w: %s", ErrNotFound, outcomeID)
	}
	result, ok := v.(model.AttributionResult)
	if !ok {
		return model.AttributionResult{}, fmt.Errorf("%w: %s", ErrNotFound, outcomeID)
	}
	return result, nil
}

// Count returns the number of results currently held.
func (s *MemStore) Count(_ context.Context) int {
	return s.cache.ItemCount()
}
