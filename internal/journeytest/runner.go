package journeytest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fairtouch/fairtouch/pkg/logger"
)

// Verification sampling constants.
const (
	maxReadBackChecks    = 25
	percentageMultiplier = 100
)

// Run executes the complete journey test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting fairtouch journey test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("journeys", config.NumJourneys),
		logger.Int("workers", config.Workers),
		logger.Float64("ratePerSecond", config.RatePerSecond),
		logger.String("timeout", config.Timeout.String()),
		logger.Int64("seed", config.Seed),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate journeys
	journeys, err := generateJourneys(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("journey generation failed: %w", err)
	}

	// Step 3: Submit journeys concurrently
	attributions, err := submitJourneys(ctx, config, journeys, stats)
	if err != nil {
		return fmt.Errorf("journey submission failed: %w", err)
	}

	// Step 4: Verify attribution laws
	if err := verifyAttributions(ctx, journeys, attributions, stats); err != nil {
		return fmt.Errorf("attribution verification failed: %w", err)
	}

	// Step 5: Read back persisted results for a sample of outcomes
	if err := verifyPersistence(ctx, config, attributions, stats); err != nil {
		return fmt.Errorf("persistence verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy (the endpoint serves Prometheus metrics).
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// verifyPersistence reads a sample of persisted results back through the
// lookup endpoint and checks they match the computed attributions.
func verifyPersistence(ctx context.Context, config *Config, attributions []Attribution, stats *Stats) error {
	checks := len(attributions)
	if checks > maxReadBackChecks {
		checks = maxReadBackChecks
	}
	if checks == 0 {
		return nil
	}

	logger.Get().Info(ctx, "verifying persisted results", logger.Int("sample", checks))

	client := newHTTPClient(config.Timeout)
	for _, attribution := range attributions[:checks] {
		resp, err := client.Get(ctx, config.BaseURL+"/attributions/"+attribution.OutcomeID)
		if err != nil {
			return fmt.Errorf("failed to read back outcome %s: %w", attribution.OutcomeID, err)
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read response for outcome %s: %w", attribution.OutcomeID, err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("read-back of outcome %s returned status %d", attribution.OutcomeID, resp.StatusCode)
		}

		var persisted Attribution
		if err := json.Unmarshal(body, &persisted); err != nil {
			return fmt.Errorf("failed to decode persisted result for outcome %s: %w", attribution.OutcomeID, err)
		}
		if persisted.ComputationID != attribution.ComputationID {
			return fmt.Errorf("persisted result for outcome %s carries computation %s, want %s",
				attribution.OutcomeID, persisted.ComputationID, attribution.ComputationID)
		}

		stats.ResultsVerified++
	}

	logger.Get().Info(ctx, "persisted results verified", logger.Int("count", stats.ResultsVerified))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, journeysPerSecond float64

	if stats.JourneysSubmitted > 0 {
		successRate = float64(stats.JourneysSuccessful) / float64(stats.JourneysSubmitted) * percentageMultiplier
	}

	if stats.Duration > 0 {
		journeysPerSecond = float64(stats.JourneysSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("journeysGenerated", stats.JourneysGenerated),
		logger.Int("journeysSubmitted", stats.JourneysSubmitted),
		logger.Int("journeysSuccessful", stats.JourneysSuccessful),
		logger.Int("journeysFailed", stats.JourneysFailed),
		logger.Int("exactComputations", stats.ExactComputations),
		logger.Int("monteCarloRuns", stats.MonteCarloRuns),
		logger.Int("lawViolations", stats.LawViolations),
		logger.Int("resultsVerified", stats.ResultsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("journeysPerSecond", journeysPerSecond))
}
