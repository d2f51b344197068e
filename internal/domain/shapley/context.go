package shapley

import (
	"fmt"
	"math/rand"

	"github.com/fairtouch/fairtouch/internal/domain/model"
	"github.com/fairtouch/fairtouch/internal/domain/valuation"
)

// maxMemoEntries bounds each worker's memo cache. Random permutation prefixes
// on mid-sized inputs can touch millions of distinct coalitions; past this
// point new values are computed without being cached.
const maxMemoEntries = 1 << 20

// computationContext is the per-worker state for one attribution computation:
// an explicitly seeded RNG and a memoization cache keyed by coalition bitmask.
// Each worker owns its own context, so there is no synchronization on the hot
// path; at worst two workers price the same coalition redundantly, which is
// wasted work, never a data race. Contexts are discarded when the request
// completes and are never shared across requests.
type computationContext struct {
	evaluator valuation.Evaluator
	rng       *rand.Rand
	memo      map[Coalition]float64 // nil when n > MaxBitmaskTouchpoints
	scratch   []model.Touchpoint

	evaluations int64
	memoHits    int64
}

// newComputationContext builds one worker's state. The RNG is always
// constructed from the derived seed, whatever its value: a derived seed of
// zero is a legal stream (caller seeds are resolved before derivation), and
// the exact path simply never draws from it.
func newComputationContext(evaluator valuation.Evaluator, n int, seed int64) *computationContext {
	c := &computationContext{
		evaluator: evaluator,
		scratch:   make([]model.Touchpoint, 0, n),
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible permutation draws, not crypto
	}
	if n <= MaxBitmaskTouchpoints {
		c.memo = make(map[Coalition]float64)
	}
	return c
}

// value prices the coalition formed by the touchpoints at positions members,
// consulting the memo cache first. mask must be the bitmask of members.
func (c *computationContext) value(tps []model.Touchpoint, members []int, mask Coalition) (float64, error) {
	if c.memo != nil {
		if v, ok := c.memo[mask]; ok {
			c.memoHits++
			return v, nil
		}
	}

	subset := c.scratch[:0]
	for _, idx := range members {
		subset = append(subset, tps[idx])
	}

	v, err := c.evaluator.Evaluate(subset)
	c.evaluations++
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEvaluator, err)
	}

	if c.memo != nil && len(c.memo) < maxMemoEntries {
		c.memo[mask] = v
	}
	return v, nil
}

// walkPermutation accumulates each touchpoint's marginal contribution along
// one arrival order into sums, indexed by touchpoint position. The empty
// coalition is worth 0 by the evaluator contract, so the walk starts there.
func (c *computationContext) walkPermutation(tps []model.Touchpoint, perm []int, sums []float64) error {
	var mask Coalition
	prev := 0.0

	for i, idx := range perm {
		mask = mask.With(idx)
		curr, err := c.value(tps, perm[:i+1], mask)
		if err != nil {
			return err
		}
		sums[idx] += curr - prev
		prev = curr
	}
	return nil
}
