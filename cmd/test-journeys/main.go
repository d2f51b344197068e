package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/fairtouch/fairtouch/internal/journeytest"
)

// Default configuration constants.
const (
	defaultNumJourneys    = 1000
	defaultMaxTouchpoints = 31
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultRate           = 200.0
	defaultTimeout        = 30 * time.Second
	defaultTestTimeout    = 10 * time.Minute
	defaultSeed           = 1
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:9090", "Base URL of the service")
		numJourneys    = flag.Int("journeys", defaultNumJourneys, "Number of journeys to generate and submit")
		maxTouchpoints = flag.Int("max-touchpoints", defaultMaxTouchpoints, "Upper bound on touchpoints per journey")
		workers        = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		ratePerSecond  = flag.Float64("rate", defaultRate, "Maximum submissions per second across all workers")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed           = flag.Int64("seed", defaultSeed, "RNG seed for reproducible journey generation")
		logFile        = flag.String("log", "", "Log file for test output (default: journey_test_TIMESTAMP.log)")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		journeytest.ShowHelp()
		return
	}

	// Setup logging
	if err := journeytest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &journeytest.Config{
		BaseURL:        *baseURL,
		NumJourneys:    *numJourneys,
		MaxTouchpoints: *maxTouchpoints,
		Workers:        *workers,
		RatePerSecond:  *ratePerSecond,
		Timeout:        *timeout,
		Seed:           *seed,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	// Run the test
	if err := journeytest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
