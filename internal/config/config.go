// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors are wrapped via this package's sentinel errors.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// ExactLimit is the touchpoint count above which requests route to
	// Monte Carlo. Exact enumeration costs O(n!·n).
	ExactLimit int `koanf:"exact_limit"`

	// DefaultSamples is the Monte Carlo draw count when a request carries
	// no override.
	DefaultSamples int `koanf:"default_samples"`

	// MaxSamples caps per-request sample overrides.
	MaxSamples int `koanf:"max_samples"`

	// WorkerCount sets the per-request computation pool size.
	WorkerCount int `koanf:"worker_count"`

	// ComputeTimeoutMS bounds one computation's wall-clock time.
	ComputeTimeoutMS int `koanf:"compute_timeout_ms"`

	// ResultTTLMinutes sets how long persisted results stay retrievable.
	ResultTTLMinutes int `koanf:"result_ttl_minutes"`

	// BaseRate and DiminishingFactor parameterize the default valuation
	// model.
	BaseRate          float64 `koanf:"base_rate"`
	DiminishingFactor float64 `koanf:"diminishing_factor"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		ExactLimit:        8,
		DefaultSamples:    5000,
		MaxSamples:        200_000,
		WorkerCount:       runtime.NumCPU(),
		ComputeTimeoutMS:  30_000,
		ResultTTLMinutes:  24 * 60,
		BaseRate:          0.05,
		DiminishingFactor: 0.9,
	}
}
