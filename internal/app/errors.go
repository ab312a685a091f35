package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrUnknownTask     = errors.New("unknown task kind")
	ErrSessionNotFound = errors.New("session not found")
)
