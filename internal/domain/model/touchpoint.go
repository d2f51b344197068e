// Package model contains domain models passed between layers.
package model

import "time"

// Method identifies the computation strategy used for an attribution.
type Method string

// Supported computation methods.
const (
	MethodExact      Method = "exact"
	MethodMonteCarlo Method = "monte_carlo"
)

// Valid reports whether m is a known computation method.
func (m Method) Valid() bool {
	return m == MethodExact || m == MethodMonteCarlo
}

// Touchpoint represents one discrete customer interaction preceding an
// outcome. The id must be unique within a single attribution request. Kind is
// carried through for reporting only; Timestamp is an ordering hint consumed
// by valuation models, never by the attribution math itself.
type Touchpoint struct {
	ID        string    // unique within one request
	Kind      string    // media, channel, campaign, ...
	Timestamp time.Time // ordering hint for valuation models
}

// AttributionRequest is the input to one attribution computation. The
// touchpoint order is arbitrary but fixed for the duration of the call.
type AttributionRequest struct {
	// OutcomeID keys the persisted result when non-empty.
	OutcomeID string

	// Touchpoints is the non-empty candidate set.
	Touchpoints []Touchpoint

	// MethodHint forces a strategy when non-empty; automatic selection by
	// touchpoint count otherwise.
	MethodHint Method

	// Samples overrides the default Monte Carlo draw count when > 0.
	Samples int

	// Seed makes Monte Carlo draws reproducible when non-zero.
	Seed int64
}

// AttributionResult is the output of one attribution computation.
type AttributionResult struct {
	// ComputationID uniquely identifies this computation.
	ComputationID string

	// OutcomeID echoes the request's outcome id, empty if none was given.
	OutcomeID string

	// Values maps touchpoint id to its normalized share in [0,1]. Shares sum
	// to 1 up to floating-point epsilon and every request touchpoint id
	// appears exactly once.
	Values map[string]float64

	// Method is the strategy that produced Values.
	Method Method

	// RawTotal is the true sum of unnormalized marginal contributions. A
	// near-zero RawTotal marks the degenerate uniform fallback.
	RawTotal float64

	// SampleCount is the number of permutations evaluated: n! for the exact
	// path, the achieved draw count for Monte Carlo.
	SampleCount int64

	// ComputedAt and Duration are diagnostics for callers and the sink.
	ComputedAt time.Time
	Duration   time.Duration
}
