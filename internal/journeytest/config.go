package journeytest

import "time"

// Config holds configuration for the journey test
type Config struct {
	BaseURL        string        // Base URL of the service
	NumJourneys    int           // Number of journeys to generate
	MaxTouchpoints int           // Upper bound on touchpoints per journey
	Workers        int           // Number of concurrent workers
	RatePerSecond  float64       // Submission rate limit across all workers
	Timeout        time.Duration // HTTP request timeout
	Seed           int64         // RNG seed for journey generation
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}

// Touchpoint mirrors the wire schema for one journey touchpoint.
type Touchpoint struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
}

// Journey represents one attribution request to be submitted.
type Journey struct {
	OutcomeID   string       `json:"outcome_id"`
	Touchpoints []Touchpoint `json:"touchpoints"`
	Seed        int64        `json:"seed"`
}

// Attribution represents the response from a computation.
type Attribution struct {
	ComputationID string             `json:"computation_id"`
	OutcomeID     string             `json:"outcome_id"`
	Values        map[string]float64 `json:"values"`
	Method        string             `json:"method"`
	RawTotal      float64            `json:"raw_total"`
	SampleCount   int64              `json:"sample_count"`
	DurationMS    float64            `json:"duration_ms"`
}

// Stats holds test statistics
type Stats struct {
	JourneysGenerated  int
	JourneysSubmitted  int
	JourneysSuccessful int
	JourneysFailed     int
	ExactComputations  int
	MonteCarloRuns     int
	LawViolations      int
	ResultsVerified    int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
