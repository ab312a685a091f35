package config

import (
	"errors"
)

// Sentinel errors for configuration loading. Callers branch with
// errors.Is to distinguish unreadable sources from rejected values.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
