package session

import "errors"

// Sentinel errors returned by session commands.
var (
	// ErrInvalidTransition is returned when a command is not legal in the
	// session's current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrSessionDone is returned when a command arrives after the session
	// reached its terminal state.
	ErrSessionDone = errors.New("session already done")

	// ErrNotFinished is returned when a result is requested before the
	// session has produced one.
	ErrNotFinished = errors.New("session not finished")

	// ErrUnknownCommand is returned for command strings the session does
	// not recognize.
	ErrUnknownCommand = errors.New("unknown command")
)
