package journeytest

import (
	"context"
	"math/rand"
	"time"

	"github.com/fairtouch/fairtouch/pkg/logger"
	"github.com/google/uuid"
)

// Journey shape constants. Most journeys stay short enough for the exact
// path; a minority is long enough to exercise Monte Carlo routing.
const (
	shortJourneyMax   = 6
	longJourneyMin    = 12
	longJourneyRange  = 20
	longJourneyOdds   = 4 // one in longJourneyOdds journeys is long
	touchpointSpacing = 15 * time.Minute
)

// touchpointKinds are the channel labels attached to generated touchpoints.
var touchpointKinds = []string{
	"email", "paid_search", "display", "social", "organic", "referral",
}

// generateJourneys creates randomized journeys with unique outcome IDs.
// Generation is deterministic for a given seed so a failing run can be
// replayed exactly.
func generateJourneys(ctx context.Context, config *Config, stats *Stats) ([]Journey, error) {
	logger.Get().Info(ctx, "generating journeys",
		logger.Int("numJourneys", config.NumJourneys),
		logger.Int64("seed", config.Seed))

	rng := rand.New(rand.NewSource(config.Seed))
	journeys := make([]Journey, 0, config.NumJourneys)

	for i := 0; i < config.NumJourneys; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		journeys = append(journeys, generateSingleJourney(rng, config.MaxTouchpoints))
	}

	stats.JourneysGenerated = len(journeys)
	logger.Get().Info(ctx, "generated journeys successfully", logger.Int("count", len(journeys)))

	return journeys, nil
}

// generateSingleJourney builds one journey with a random touchpoint count.
func generateSingleJourney(rng *rand.Rand, maxTouchpoints int) Journey {
	n := 1 + rng.Intn(shortJourneyMax)
	if rng.Intn(longJourneyOdds) == 0 {
		n = longJourneyMin + rng.Intn(longJourneyRange)
	}
	if maxTouchpoints > 0 && n > maxTouchpoints {
		n = maxTouchpoints
	}

	start := time.Now().UTC().Add(-time.Duration(n) * touchpointSpacing)
	touchpoints := make([]Touchpoint, 0, n)
	for i := 0; i < n; i++ {
		touchpoints = append(touchpoints, Touchpoint{
			ID:        uuid.New().String(),
			Kind:      touchpointKinds[rng.Intn(len(touchpointKinds))],
			Timestamp: start.Add(time.Duration(i) * touchpointSpacing).Format(time.RFC3339),
		})
	}

	return Journey{
		OutcomeID:   "outcome-" + uuid.New().String(),
		Touchpoints: touchpoints,
		Seed:        rng.Int63(),
	}
}
