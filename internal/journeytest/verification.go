package journeytest

import (
	"context"
	"fmt"
	"math"

	"github.com/fairtouch/fairtouch/pkg/logger"
)

// Verification tolerances.
const (
	sumTolerance      = 1e-6
	negativeTolerance = -1e-9
)

// verifyAttributions checks the attribution laws on every collected
// response: credit shares cover exactly the submitted touchpoints, sum
// to one, and stay non-negative; a lone touchpoint gets full credit and
// the exact path reports a full permutation count.
func verifyAttributions(ctx context.Context, journeys []Journey, attributions []Attribution, stats *Stats) error {
	logger.Get().Info(ctx, "verifying attribution laws", logger.Int("count", len(attributions)))

	if len(attributions) == 0 {
		return fmt.Errorf("no attributions to verify")
	}

	byOutcome := make(map[string]Journey, len(journeys))
	for _, journey := range journeys {
		byOutcome[journey.OutcomeID] = journey
	}

	for _, attribution := range attributions {
		journey, ok := byOutcome[attribution.OutcomeID]
		if !ok {
			stats.LawViolations++
			logger.Get().Warn(ctx, "attribution for unknown outcome",
				logger.String("outcomeID", attribution.OutcomeID))
			continue
		}

		if err := verifySingleAttribution(journey, attribution); err != nil {
			stats.LawViolations++
			logger.Get().Warn(ctx, "attribution law violated",
				logger.String("outcomeID", attribution.OutcomeID),
				logger.String("method", attribution.Method),
				logger.Error(err))
			continue
		}

		switch attribution.Method {
		case "exact":
			stats.ExactComputations++
		case "monte_carlo":
			stats.MonteCarloRuns++
		}
	}

	if stats.LawViolations > 0 {
		return fmt.Errorf("%d attribution(s) violated the distribution laws", stats.LawViolations)
	}

	logger.Get().Info(ctx, "all attributions satisfy the distribution laws",
		logger.Int("exact", stats.ExactComputations),
		logger.Int("monteCarlo", stats.MonteCarloRuns))
	return nil
}

func verifySingleAttribution(journey Journey, attribution Attribution) error {
	n := len(journey.Touchpoints)
	if len(attribution.Values) != n {
		return fmt.Errorf("expected %d credit shares, got %d", n, len(attribution.Values))
	}

	sum := 0.0
	for _, tp := range journey.Touchpoints {
		share, ok := attribution.Values[tp.ID]
		if !ok {
			return fmt.Errorf("touchpoint %s missing from credit shares", tp.ID)
		}
		if share < negativeTolerance {
			return fmt.Errorf("touchpoint %s has negative share %v", tp.ID, share)
		}
		sum += share
	}

	if math.Abs(sum-1.0) > sumTolerance {
		return fmt.Errorf("credit shares sum to %v, want 1", sum)
	}

	if n == 1 && math.Abs(attribution.Values[journey.Touchpoints[0].ID]-1.0) > sumTolerance {
		return fmt.Errorf("single touchpoint did not receive full credit")
	}

	if attribution.Method == "exact" {
		if want := factorial(n); attribution.SampleCount != want {
			return fmt.Errorf("exact path reported %d permutations, want %d", attribution.SampleCount, want)
		}
	}

	return nil
}

func factorial(n int) int64 {
	result := int64(1)
	for i := 2; i <= n; i++ {
		result *= int64(i)
	}
	return result
}
