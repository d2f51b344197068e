package shapley

import "errors"

// Sentinel kinds for attribution engine errors. Callers match these with
// errors.Is; the HTTP layer maps them to stable wire tags via Kind.
var (
	// ErrEmptyInput covers zero touchpoints and duplicate-id validation
	// failures. Fatal, never retried.
	ErrEmptyInput = errors.New("empty touchpoint input")

	// ErrExactLimitExceeded means a caller forced the exact method on an
	// input too large for permutation enumeration. Never silently downgraded.
	ErrExactLimitExceeded = errors.New("exact limit exceeded")

	// ErrEvaluator wraps a failure raised by the pluggable coalition value
	// evaluator. The underlying error stays matchable through errors.Is.
	ErrEvaluator = errors.New("evaluator failed")

	// ErrInvalidSampleCount means an explicit Monte Carlo sample override
	// was zero or negative.
	ErrInvalidSampleCount = errors.New("invalid sample count")
)

// Wire tags for the error taxonomy.
const (
	KindEmptyInput         = "empty_input"
	KindExactLimitExceeded = "exact_limit_exceeded"
	KindEvaluatorError     = "evaluator_error"
	KindInvalidSampleCount = "invalid_sample_count"
	KindInternal           = "internal"
)

// Kind returns the stable, matchable tag for an engine error. Unknown errors
// report as internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrExactLimitExceeded):
		return KindExactLimitExceeded
	case errors.Is(err, ErrEvaluator):
		return KindEvaluatorError
	case errors.Is(err, ErrInvalidSampleCount):
		return KindInvalidSampleCount
	default:
		return KindInternal
	}
}
