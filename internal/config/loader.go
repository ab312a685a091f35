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
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if STEADI_CONFIG is set
//  3. env (prefix STEADI_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("STEADI_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: STEADI_ADDR, STEADI_SHARD_COUNT, ...
	// Map env keys like STEADI_SHARD_COUNT -> shard_count (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("STEADI_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "steadi_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
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
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ShardCount <= 0 {
		return fmt.Errorf("%w: shard_count must be positive", ErrInvalidConfig)
	}
	if c.TaskDurationSec <= 0 {
		return fmt.Errorf("%w: task_duration_sec must be positive", ErrInvalidConfig)
	}
	if c.CountdownSec < 0 {
		return fmt.Errorf("%w: countdown_sec must not be negative", ErrInvalidConfig)
	}
	if c.TargetIntervalMS <= 0 {
		return fmt.Errorf("%w: target_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.OnTargetRadius <= 0 || c.OnTargetRadius >= 0.5 {
		return fmt.Errorf("%w: on_target_radius must be in (0, 0.5)", ErrInvalidConfig)
	}
	return nil
}
