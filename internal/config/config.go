// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults, Load(ctx) to layer
//     file and environment overrides on top.
//   - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShardCount configures the number of shards in the result store.
	ShardCount int `koanf:"shard_count"`

	// MaxRecentLimit caps GET /results?limit.
	MaxRecentLimit int `koanf:"max_recent_limit"`

	// TaskDurationSec is the tracking-phase length of one attempt.
	TaskDurationSec int `koanf:"task_duration_sec"`

	// CountdownSec is the pre-tracking countdown. Zero starts tracking
	// immediately.
	CountdownSec int `koanf:"countdown_sec"`

	// TargetIntervalMS is how often the ocular target relocates.
	TargetIntervalMS int `koanf:"target_interval_ms"`

	// OnTargetRadius is the normalized distance within which a gaze
	// sample counts as on target.
	OnTargetRadius float64 `koanf:"on_target_radius"`

	// MotorVarianceScale maps wrist-jitter variance into the 0-100
	// score range.
	MotorVarianceScale float64 `koanf:"motor_variance_scale"`

	// OcularSigmoidK and OcularSigmoidMidpoint shape the gaze-delta
	// response curve.
	OcularSigmoidK        float64 `koanf:"ocular_sigmoid_k"`
	OcularSigmoidMidpoint float64 `koanf:"ocular_sigmoid_midpoint"`
}

// New creates a Config populated with the canonical defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		ShardCount:            8,
		MaxRecentLimit:        100,
		TaskDurationSec:       30,
		CountdownSec:          3,
		TargetIntervalMS:      2000,
		OnTargetRadius:        0.18,
		MotorVarianceScale:    80_000,
		OcularSigmoidK:        180,
		OcularSigmoidMidpoint: 0.015,
	}
}
