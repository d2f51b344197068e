package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FAIRTOUCH_CONFIG is set
//  3. env (prefix FAIRTOUCH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FAIRTOUCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FAIRTOUCH_ADDR, FAIRTOUCH_EXACT_LIMIT, ...
	// Map env keys like FAIRTOUCH_EXACT_LIMIT -> exact_limit (flat keys),
	// preserving underscores to match the koanf tags on the struct.
	envProvider := env.Provider("FAIRTOUCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "fairtouch_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ExactLimit < 1 || c.ExactLimit > 10:
		return fmt.Errorf("%w: exact_limit %d outside [1,10]", ErrInvalidConfig, c.ExactLimit)
	case c.DefaultSamples < 1:
		return fmt.Errorf("%w: default_samples must be positive", ErrInvalidConfig)
	case c.MaxSamples < c.DefaultSamples:
		return fmt.Errorf("%w: max_samples %d below default_samples %d", ErrInvalidConfig, c.MaxSamples, c.DefaultSamples)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.BaseRate <= 0 || c.BaseRate > 1:
		return fmt.Errorf("%w: base_rate %v outside (0,1]", ErrInvalidConfig, c.BaseRate)
	case c.DiminishingFactor <= 0 || c.DiminishingFactor > 1:
		return fmt.Errorf("%w: diminishing_factor %v outside (0,1]", ErrInvalidConfig, c.DiminishingFactor)
	}
	return nil
}
