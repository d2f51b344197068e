// Package valuation defines the contract for pricing touchpoint coalitions.
//
// A coalition value function maps any subset of a request's touchpoints to the
// expected contribution magnitude of that subset acting together. Production
// deployments plug in learned or business-rule models behind the same
// signature; the diminishing-returns model here exists so the engine is fully
// testable without an external dependency.
package valuation

import (
	"fmt"
	"sort"

	"github.com/fairtouch/fairtouch/internal/domain/model"
)

// Default reference model constants.
const (
	defaultBaseRate          = 0.05
	defaultDiminishingFactor = 0.9
	valueCap                 = 1.0
)

// Evaluator maps a coalition of touchpoints to a scalar value.
//
// Implementations must be pure and deterministic for a fixed request: the same
// coalition always yields the same value, no I/O, no shared mutable state. The
// empty coalition must evaluate to 0. Monotonicity is not required; synergy
// and cannibalization between touchpoints are both legal.
type Evaluator interface {
	Evaluate(coalition []model.Touchpoint) (float64, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(coalition []model.Touchpoint) (float64, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(coalition []model.Touchpoint) (float64, error) {
	return f(coalition)
}

// Option applies a configuration option to the DiminishingReturnsModel.
type Option func(*DiminishingReturnsModel)

// WithBaseRate sets the per-touchpoint base conversion rate.
func WithBaseRate(rate float64) Option {
	return func(m *DiminishingReturnsModel) {
		if rate > 0 {
			m.baseRate = rate
		}
	}
}

// WithDiminishingFactor sets the per-position decay factor.
func WithDiminishingFactor(factor float64) Option {
	return func(m *DiminishingReturnsModel) {
		if factor > 0 {
			m.diminishingFactor = factor
		}
	}
}

// DiminishingReturnsModel is the default reference coalition value function:
// monotone non-decreasing with diminishing returns.
//
// Members are ordered by timestamp within the coalition; the k-th member in
// that order contributes baseRate * diminishingFactor^k. The total is capped
// at 1.0, interpreted as a conversion probability ceiling.
type DiminishingReturnsModel struct {
	baseRate          float64
	diminishingFactor float64
}

// NewDiminishingReturnsModel creates the default model with options applied.
func NewDiminishingReturnsModel(opts ...Option) *DiminishingReturnsModel {
	m := &DiminishingReturnsModel{
		baseRate:          defaultBaseRate,
		diminishingFactor: defaultDiminishingFactor,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Evaluate computes the coalition value under the diminishing-returns model.
func (m *DiminishingReturnsModel) Evaluate(coalition []model.Touchpoint) (float64, error) {
	if len(coalition) == 0 {
		return 0, nil
	}

	// Order by timestamp within the coalition; ties fall back to id so the
	// value stays deterministic for a fixed request.
	ordered := make([]model.Touchpoint, len(coalition))
	copy(ordered, coalition)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	value := 0.0
	factor := 1.0
	for range ordered {
		value += m.baseRate * factor
		factor *= m.diminishingFactor
	}

	if value > valueCap {
		value = valueCap
	}
	return value, nil
}

// Validate checks model parameters for use as a config-backed evaluator.
func (m *DiminishingReturnsModel) Validate() error {
	if m.baseRate <= 0 || m.baseRate > 1 {
		return fmt.Errorf("%w: base rate %v outside (0,1]", ErrInvalidModel, m.baseRate)
	}
	if m.diminishingFactor <= 0 || m.diminishingFactor > 1 {
		return fmt.Errorf("%w: diminishing factor %v outside (0,1]", ErrInvalidModel, m.diminishingFactor)
	}
	return nil
}
