package session

import (
	"time"

	"github.com/steadilab/steadi/internal/domain/gaze"
	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/scoring"
	"github.com/steadilab/steadi/pkg/logger"
)

// Option configures a session.
type Option func(*Session)

// WithLogger sets the logger for session lifecycle and frame events.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDuration sets how long the tracking phase runs before the session
// finalizes on its own.
func WithDuration(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithCountdown sets the pre-tracking countdown. Zero skips the countdown
// state entirely and Start enters tracking directly.
func WithCountdown(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.countdown = d
		}
	}
}

// WithTargetInterval sets how often the on-screen target relocates during
// an ocular session.
func WithTargetInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.targetInterval = d
		}
	}
}

// WithScoringOptions forwards options to the scorer constructed for the
// session's task kind.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(s *Session) {
		s.scoringOpts = append(s.scoringOpts, opts...)
	}
}

// WithTrackerOptions forwards options to the ocular target tracker.
func WithTrackerOptions(opts ...gaze.TrackerOption) Option {
	return func(s *Session) {
		s.trackerOpts = append(s.trackerOpts, opts...)
	}
}

// WithOnDone registers a callback invoked exactly once with the immutable
// result record when the session reaches done with a computed score or a
// skip. The callback runs on the goroutine that triggered finalization.
func WithOnDone(fn func(model.Result)) Option {
	return func(s *Session) {
		s.onDone = fn
	}
}
