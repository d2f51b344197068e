// Package shapley implements the combinatorial core of the attribution
// engine: exact and Monte Carlo Shapley value computation over touchpoint
// coalitions.
//
// Both paths compute, for every touchpoint, its average marginal contribution
// across touchpoint arrival orders:
//
//	φ_i = Σ_{S⊆N\{i}} [ |S|! (n−|S|−1)! / n! ] · [v(S∪{i}) − v(S)]
//
// The exact path enumerates all n! permutations; the Monte Carlo path draws
// uniformly random permutations. Both reuse the same coalition value
// evaluator, so an estimate can always be checked against the exact result on
// small inputs. Shapley values are permutation-invariant, so parallel
// scheduling of the permutation space never changes the result.
package shapley

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fairtouch/fairtouch/internal/domain/model"
	"github.com/fairtouch/fairtouch/internal/domain/valuation"
)

// Default engine configuration constants.
const (
	// DefaultExactLimit is the largest touchpoint count routed to exact
	// enumeration by default. Cost is O(n!·n), so this stays single-digit.
	DefaultExactLimit = 8

	// MaxExactLimit is the hard ceiling for configurable exact limits.
	MaxExactLimit = 10

	// DefaultSamples is the default Monte Carlo draw count. Estimator
	// variance is O(1/samples); 5000 keeps per-touchpoint error around the
	// percent scale at a predictable cost.
	DefaultSamples = 5000

	// seedStride separates per-worker RNG streams derived from one seed.
	seedStride = 0x9e3779b9
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithExactLimit sets the exact enumeration threshold, capped at MaxExactLimit.
func WithExactLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 && limit <= MaxExactLimit {
			e.exactLimit = limit
		}
	}
}

// WithWorkerCount sets the size of the per-request worker pool.
func WithWorkerCount(count int) Option {
	return func(e *Engine) {
		if count > 0 {
			e.workers = count
		}
	}
}

// Engine computes raw (unnormalized) Shapley attributions. It holds no
// per-request state; every computation builds its own worker contexts, so one
// Engine is safe for concurrent use across requests.
type Engine struct {
	evaluator  valuation.Evaluator
	exactLimit int
	workers    int
}

// New creates an Engine pricing coalitions with evaluator.
func New(evaluator valuation.Evaluator, opts ...Option) *Engine {
	e := &Engine{
		evaluator:  evaluator,
		exactLimit: DefaultExactLimit,
		workers:    runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExactLimit returns the configured exact enumeration threshold.
func (e *Engine) ExactLimit() int {
	return e.exactLimit
}

// Raw is the unnormalized outcome of one computation.
type Raw struct {
	// Values maps touchpoint id to its raw Shapley value. Negative values
	// are passed through unclamped; clamping would break the efficiency law
	// Σ φ_i = v(N) − v(∅).
	Values map[string]float64

	// SampleCount is n! for the exact path and the achieved draw count for
	// Monte Carlo, which may undershoot the request when the context
	// deadline expires mid-computation.
	SampleCount int64

	// Evaluations and MemoHits are diagnostics for metrics.
	Evaluations int64
	MemoHits    int64
}

// ComputeExact computes exact Shapley values by enumerating all n!
// permutations. The permutation space is partitioned by leading touchpoint
// across the worker pool; each partition threads its own accumulator and memo
// cache. Fails with ErrExactLimitExceeded when len(tps) exceeds the limit and
// with the context error on cancellation, since a partial enumeration is not
// an unbiased average.
func (e *Engine) ComputeExact(ctx context.Context, tps []model.Touchpoint) (Raw, error) {
	n := len(tps)
	if n == 0 {
		return Raw{}, ErrEmptyInput
	}
	if n > e.exactLimit {
		return Raw{}, fmt.Errorf("%w: %d touchpoints, limit %d", ErrExactLimitExceeded, n, e.exactLimit)
	}

	contexts := make([]*computationContext, n)
	partials := make([][]float64, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for first := 0; first < n; first++ {
		contexts[first] = newComputationContext(e.evaluator, n, 0)
		partials[first] = make([]float64, n)

		cctx := contexts[first]
		sums := partials[first]
		lead := first

		g.Go(func() error {
			perm := make([]int, n)
			perm[0] = lead
			rest := perm[1:]
			for i, j := 0, 0; i < n; i++ {
				if i != lead {
					rest[j] = i
					j++
				}
			}

			return forEachPermutation(rest, func(_ []int) error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return cctx.walkPermutation(tps, perm, sums)
			})
		})
	}

	if err := g.Wait(); err != nil {
		return Raw{}, err
	}

	total := factorial(n)
	raw := Raw{
		Values:      make(map[string]float64, n),
		SampleCount: total,
	}
	for i, tp := range tps {
		sum := 0.0
		for _, sums := range partials {
			sum += sums[i]
		}
		raw.Values[tp.ID] = sum / float64(total)
	}
	for _, c := range contexts {
		raw.Evaluations += c.evaluations
		raw.MemoHits += c.memoHits
	}
	return raw, nil
}

// ComputeMonteCarlo estimates Shapley values from uniformly random
// permutations drawn with single-pass Fisher–Yates shuffles. samples splits
// across the worker pool; each worker derives an independent RNG stream from
// seed (wall clock when zero) and owns its memo cache. There is no adaptive
// early stopping: the budget is fixed up front. A context deadline stops the
// draw loop early and the achieved count is reported in SampleCount, since a
// partial Monte Carlo sum is still a valid average.
func (e *Engine) ComputeMonteCarlo(ctx context.Context, tps []model.Touchpoint, samples int, seed int64) (Raw, error) {
	n := len(tps)
	if n == 0 {
		return Raw{}, ErrEmptyInput
	}
	if samples <= 0 {
		return Raw{}, fmt.Errorf("%w: %d", ErrInvalidSampleCount, samples)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	workers := e.workers
	if workers > samples {
		workers = samples
	}

	contexts := make([]*computationContext, workers)
	partials := make([][]float64, workers)
	achieved := make([]int64, workers)

	quota := samples / workers
	extra := samples % workers

	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		contexts[w] = newComputationContext(e.evaluator, n, seed+int64(w)*seedStride)
		partials[w] = make([]float64, n)

		cctx := contexts[w]
		sums := partials[w]
		draws := quota
		if w < extra {
			draws++
		}
		slot := w

		g.Go(func() error {
			perm := make([]int, n)
			for i := range perm {
				perm[i] = i
			}

			for s := 0; s < draws; s++ {
				select {
				case <-gctx.Done():
					// Deadline or sibling failure: keep what we have.
					return nil
				default:
				}

				shuffle(perm, cctx.rng)
				if err := cctx.walkPermutation(tps, perm, sums); err != nil {
					return err
				}
				achieved[slot]++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Raw{}, err
	}

	var total int64
	for _, a := range achieved {
		total += a
	}
	if total == 0 {
		return Raw{}, fmt.Errorf("no samples completed: %w", ctx.Err())
	}

	raw := Raw{
		Values:      make(map[string]float64, n),
		SampleCount: total,
	}
	for i, tp := range tps {
		sum := 0.0
		for _, sums := range partials {
			sum += sums[i]
		}
		raw.Values[tp.ID] = sum / float64(total)
	}
	for _, c := range contexts {
		raw.Evaluations += c.evaluations
		raw.MemoHits += c.memoHits
	}
	return raw, nil
}

// shuffle permutes items in place with a single Fisher–Yates pass.
func shuffle(items []int, rng *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
