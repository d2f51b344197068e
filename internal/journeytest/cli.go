package journeytest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fairtouch/fairtouch/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "journey_test_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the journey test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Fairtouch Journey Test Tool
===========================

A concurrent tool for exercising the attribution service with randomized
customer journeys and verifying the credit distribution laws live.

Usage:
  go run cmd/test-journeys/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9090")
  -journeys int
        Number of journeys to generate and submit (default 1000)
  -max-touchpoints int
        Upper bound on touchpoints per journey (default 31)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -rate float
        Maximum submissions per second across all workers (default 200)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        RNG seed for reproducible journey generation (default 1)
  -log string
        Log file for test output (default: journey_test_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-journeys/main.go

  # Heavier load against a remote instance
  go run cmd/test-journeys/main.go -journeys 20000 -workers 16 -rate 1000 -url http://attribution:9090

  # Replay a previous run exactly
  go run cmd/test-journeys/main.go -journeys 5000 -seed 42
`)
}
