// Package repository defines the attribution result sink interface and errors.
//
// The engine itself never persists anything; the orchestrator hands completed
// results to a Store keyed by outcome id. Production deployments back this
// with a durable store; the in-memory TTL implementation here is the reference
// adapter the service runs with.
package repository

import (
	"context"

	"github.com/fairtouch/fairtouch/internal/domain/model"
)

// Store persists attribution results keyed by outcome id.
type Store interface {
	// Save stores the result under its outcome id, replacing any previous
	// result for the same outcome.
	Save(ctx context.Context, result model.AttributionResult) error

	// Get returns the stored result for an outcome.
	// Returns ErrNotFound if the outcome is unknown or expired.
	Get(ctx context.Context, outcomeID string) (model.AttributionResult, error)

	// Count returns the number of results currently held.
	Count(ctx context.Context) int
}
