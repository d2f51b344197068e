package shapley_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/fairtouch/fairtouch/internal/domain/model"
	"github.com/fairtouch/fairtouch/internal/domain/shapley"
	"github.com/fairtouch/fairtouch/internal/domain/valuation"
	. "github.com/smartystreets/goconvey/convey"
)

// touchpoints builds n touchpoints with ids tp-0..tp-n-1 and increasing
// timestamps.
func touchpoints(n int) []model.Touchpoint {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tps := make([]model.Touchpoint, n)
	for i := range tps {
		tps[i] = model.Touchpoint{
			ID:        fmt.Sprintf("tp-%d", i),
			Kind:      "media",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return tps
}

// weightedGame prices a coalition as the square root of its members' summed
// weights. Non-additive, so marginal contributions genuinely depend on the
// coalition already present.
func weightedGame(weights map[string]float64) valuation.EvaluatorFunc {
	return func(coalition []model.Touchpoint) (float64, error) {
		sum := 0.0
		for _, tp := range coalition {
			sum += weights[tp.ID]
		}
		return math.Sqrt(sum), nil
	}
}

// bruteForceShapley computes φ_i via the combinatorial subset formula,
// independently of the permutation enumeration under test.
func bruteForceShapley(tps []model.Touchpoint, eval valuation.Evaluator) map[string]float64 {
	n := len(tps)
	fact := make([]float64, n+1)
	fact[0] = 1
	for i := 1; i <= n; i++ {
		fact[i] = fact[i-1] * float64(i)
	}

	value := func(mask int) float64 {
		subset := make([]model.Touchpoint, 0, n)
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				subset = append(subset, tps[i])
			}
		}
		v, _ := eval.Evaluate(subset)
		return v
	}

	phi := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		total := 0.0
		for mask := 0; mask < (1 << n); mask++ {
			if mask&(1<<i) != 0 {
				continue
			}
			s := 0
			for j := 0; j < n; j++ {
				if mask&(1<<j) != 0 {
					s++
				}
			}
			weight := fact[s] * fact[n-s-1] / fact[n]
			total += weight * (value(mask|(1<<i)) - value(mask))
		}
		phi[tps[i].ID] = total
	}
	return phi
}

func TestComputeExact(t *testing.T) {
	Convey("Given an engine with the default diminishing-returns model", t, func() {
		engine := shapley.New(valuation.NewDiminishingReturnsModel())

		Convey("When computing three symmetric touchpoints", func() {
			tps := touchpoints(3)
			raw, err := engine.ComputeExact(context.Background(), tps)

			Convey("Then the golden reference vector is reproduced", func() {
				So(err, ShouldBeNil)
				So(raw.SampleCount, ShouldEqual, 6)

				// v depends only on coalition size under the default model:
				// v(3) = 0.05 + 0.045 + 0.0405 = 0.1355, split three ways.
				So(raw.Values["tp-0"], ShouldAlmostEqual, 0.1355/3, 1e-12)
				So(raw.Values["tp-1"], ShouldAlmostEqual, 0.1355/3, 1e-12)
				So(raw.Values["tp-2"], ShouldAlmostEqual, 0.1355/3, 1e-12)
			})

			Convey("Then the efficiency law holds", func() {
				So(err, ShouldBeNil)
				full, verr := valuation.NewDiminishingReturnsModel().Evaluate(tps)
				So(verr, ShouldBeNil)

				sum := 0.0
				for _, v := range raw.Values {
					sum += v
				}
				So(sum, ShouldAlmostEqual, full, 1e-9)
			})
		})

		Convey("When computing a single touchpoint", func() {
			tps := touchpoints(1)
			raw, err := engine.ComputeExact(context.Background(), tps)

			Convey("Then it receives the full singleton value", func() {
				So(err, ShouldBeNil)
				So(raw.SampleCount, ShouldEqual, 1)
				So(raw.Values["tp-0"], ShouldAlmostEqual, 0.05, 1e-12)
			})
		})

		Convey("When the input is empty", func() {
			_, err := engine.ComputeExact(context.Background(), nil)

			Convey("Then it fails with the empty input kind", func() {
				So(errors.Is(err, shapley.ErrEmptyInput), ShouldBeTrue)
				So(shapley.Kind(err), ShouldEqual, shapley.KindEmptyInput)
			})
		})

		Convey("When the input exceeds the exact limit", func() {
			small := shapley.New(valuation.NewDiminishingReturnsModel(), shapley.WithExactLimit(4))
			_, err := small.ComputeExact(context.Background(), touchpoints(5))

			Convey("Then it refuses rather than degrading", func() {
				So(errors.Is(err, shapley.ErrExactLimitExceeded), ShouldBeTrue)
				So(shapley.Kind(err), ShouldEqual, shapley.KindExactLimitExceeded)
			})
		})

		Convey("When the input sits exactly at the limit", func() {
			small := shapley.New(valuation.NewDiminishingReturnsModel(), shapley.WithExactLimit(4))
			raw, err := small.ComputeExact(context.Background(), touchpoints(4))

			Convey("Then the exact path succeeds", func() {
				So(err, ShouldBeNil)
				So(raw.SampleCount, ShouldEqual, 24)
				So(len(raw.Values), ShouldEqual, 4)
			})
		})
	})

	Convey("Given a non-additive weighted game", t, func() {
		tps := touchpoints(5)
		weights := map[string]float64{
			"tp-0": 4.0, "tp-1": 1.0, "tp-2": 9.0, "tp-3": 0.25, "tp-4": 2.5,
		}
		eval := weightedGame(weights)
		engine := shapley.New(eval)

		Convey("When comparing permutation enumeration to the subset formula", func() {
			raw, err := engine.ComputeExact(context.Background(), tps)
			want := bruteForceShapley(tps, eval)

			Convey("Then both computations agree", func() {
				So(err, ShouldBeNil)
				for id, phi := range want {
					So(raw.Values[id], ShouldAlmostEqual, phi, 1e-9)
				}
			})
		})

		Convey("When two touchpoints are interchangeable", func() {
			weights["tp-1"] = weights["tp-0"]
			raw, err := engine.ComputeExact(context.Background(), tps)

			Convey("Then their Shapley values are equal", func() {
				So(err, ShouldBeNil)
				So(raw.Values["tp-0"], ShouldAlmostEqual, raw.Values["tp-1"], 1e-9)
			})
		})
	})

	Convey("Given an evaluator that fails", t, func() {
		boom := errors.New("model config corrupt")
		eval := valuation.EvaluatorFunc(func(_ []model.Touchpoint) (float64, error) {
			return 0, boom
		})
		engine := shapley.New(eval)

		Convey("When computing exactly", func() {
			_, err := engine.ComputeExact(context.Background(), touchpoints(3))

			Convey("Then the evaluator error propagates unswallowed", func() {
				So(errors.Is(err, shapley.ErrEvaluator), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(shapley.Kind(err), ShouldEqual, shapley.KindEvaluatorError)
			})
		})
	})
}

func TestComputeMonteCarlo(t *testing.T) {
	Convey("Given a weighted six-touchpoint game", t, func() {
		tps := touchpoints(6)
		weights := map[string]float64{
			"tp-0": 4.0, "tp-1": 1.0, "tp-2": 9.0, "tp-3": 0.25, "tp-4": 2.5, "tp-5": 6.5,
		}
		eval := weightedGame(weights)
		engine := shapley.New(eval)

		Convey("When estimating with 5000 samples across twenty seeds", func() {
			exact, exactErr := engine.ComputeExact(context.Background(), tps)
			So(exactErr, ShouldBeNil)

			const trials = 20
			successes := 0
			for seed := int64(1); seed <= trials; seed++ {
				estimate, err := engine.ComputeMonteCarlo(context.Background(), tps, 5000, seed)
				So(err, ShouldBeNil)
				So(estimate.SampleCount, ShouldEqual, 5000)

				converged := true
				for id, phi := range exact.Values {
					if math.Abs(estimate.Values[id]-phi) > 0.02 {
						converged = false
					}
				}
				if converged {
					successes++
				}
			}

			Convey("Then at least 95% of the trials converge on the exact values", func() {
				So(successes, ShouldBeGreaterThanOrEqualTo, 19)
			})
		})

		Convey("When a negative seed cancels one worker's derived stream", func() {
			parallel := shapley.New(eval, shapley.WithWorkerCount(2))
			raw, err := parallel.ComputeMonteCarlo(context.Background(), tps, 100, -0x9e3779b9)

			Convey("Then the computation completes normally", func() {
				So(err, ShouldBeNil)
				So(raw.SampleCount, ShouldEqual, 100)
				So(len(raw.Values), ShouldEqual, len(tps))
			})
		})

		Convey("When estimating twice with the same seed and one worker", func() {
			serial := shapley.New(eval, shapley.WithWorkerCount(1))
			first, err1 := serial.ComputeMonteCarlo(context.Background(), tps, 500, 7)
			second, err2 := serial.ComputeMonteCarlo(context.Background(), tps, 500, 7)

			Convey("Then the runs are bitwise identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				for id, v := range first.Values {
					So(second.Values[id], ShouldEqual, v)
				}
			})
		})

		Convey("When the sample count is not positive", func() {
			_, err := engine.ComputeMonteCarlo(context.Background(), tps, 0, 1)

			Convey("Then it fails with the invalid sample kind", func() {
				So(errors.Is(err, shapley.ErrInvalidSampleCount), ShouldBeTrue)
				So(shapley.Kind(err), ShouldEqual, shapley.KindInvalidSampleCount)
			})
		})

		Convey("When the input is empty", func() {
			_, err := engine.ComputeMonteCarlo(context.Background(), nil, 100, 1)

			Convey("Then it fails with the empty input kind", func() {
				So(errors.Is(err, shapley.ErrEmptyInput), ShouldBeTrue)
			})
		})
	})

	Convey("Given an evaluator counting its calls", t, func() {
		tps := touchpoints(4)
		eval := weightedGame(map[string]float64{"tp-0": 1, "tp-1": 2, "tp-2": 3, "tp-3": 4})
		engine := shapley.New(eval, shapley.WithWorkerCount(2))

		Convey("When estimating with memoization in range", func() {
			raw, err := engine.ComputeMonteCarlo(context.Background(), tps, 200, 99)

			Convey("Then memo hits spare most evaluator calls", func() {
				So(err, ShouldBeNil)
				// 200 draws × 4 prefixes = 800 coalition lookups; only 2^4
				// distinct coalitions exist per worker cache.
				So(raw.MemoHits, ShouldBeGreaterThan, 700)
				So(raw.Evaluations, ShouldBeLessThan, 100)
			})
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given raw attribution values", t, func() {
		Convey("When the raw total is positive", func() {
			values, total := shapley.Normalize(map[string]float64{"a": 0.3, "b": 0.1, "c": 0.6})

			Convey("Then shares sum to one and preserve proportions", func() {
				So(total, ShouldAlmostEqual, 1.0, 1e-12)
				sum := 0.0
				for _, v := range values {
					sum += v
				}
				So(sum, ShouldAlmostEqual, 1.0, 1e-9)
				So(values["c"], ShouldAlmostEqual, 0.6, 1e-12)
			})
		})

		Convey("When every raw value is zero", func() {
			values, total := shapley.Normalize(map[string]float64{"a": 0, "b": 0, "c": 0, "d": 0})

			Convey("Then the fallback is an explicit uniform split", func() {
				So(total, ShouldEqual, 0)
				for _, v := range values {
					So(v, ShouldAlmostEqual, 0.25, 1e-12)
				}
			})
		})

		Convey("When the total is tiny but not exactly zero", func() {
			values, total := shapley.Normalize(map[string]float64{"a": 1e-13, "b": -5e-14})

			Convey("Then the uniform split applies and the true total survives", func() {
				So(values["a"], ShouldAlmostEqual, 0.5, 1e-12)
				So(values["b"], ShouldAlmostEqual, 0.5, 1e-12)
				So(total, ShouldNotEqual, 0)
				So(total, ShouldAlmostEqual, 5e-14, 1e-15)
			})
		})

		Convey("When marginals carry mixed signs", func() {
			values, total := shapley.Normalize(map[string]float64{"a": 0.5, "b": -0.1})

			Convey("Then negative contributions survive unclamped", func() {
				So(total, ShouldAlmostEqual, 0.4, 1e-12)
				So(values["b"], ShouldBeLessThan, 0)
				So(values["a"]+values["b"], ShouldAlmostEqual, 1.0, 1e-9)
			})
		})
	})
}

func TestDegenerateZeroGame(t *testing.T) {
	Convey("Given an evaluator that prices every coalition at zero", t, func() {
		eval := valuation.EvaluatorFunc(func(_ []model.Touchpoint) (float64, error) {
			return 0, nil
		})
		engine := shapley.New(eval)

		Convey("When computing and normalizing five touchpoints", func() {
			tps := touchpoints(5)
			raw, err := engine.ComputeExact(context.Background(), tps)
			So(err, ShouldBeNil)
			values, total := shapley.Normalize(raw.Values)

			Convey("Then the result is uniform with a zero raw total", func() {
				So(total, ShouldEqual, 0)
				for _, v := range values {
					So(v, ShouldAlmostEqual, 0.2, 1e-12)
				}
			})
		})
	})
}
