package simulate

import (
	"time"

	"github.com/steadilab/steadi/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Profile     string        // Movement profile: steady, tremor, fixation, saccade
	NumSessions int           // Number of sessions to run
	FrameRate   int           // Frames pushed per second
	Duration    time.Duration // Tracking time per session before finishing early
	Workers     int           // Number of concurrent session runners
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for collected results
	LogFile     string        // Log file for simulation output
	Verbose     bool          // Enable verbose logging
}

// sessionResponse mirrors the create-session response body.
type sessionResponse struct {
	SessionID string `json:"session_id"`
	Task      string `json:"task"`
}

// commandRequest mirrors the command endpoint body.
type commandRequest struct {
	Command string `json:"command"`
}

// statusResponse mirrors the session status body.
type statusResponse struct {
	State       string  `json:"state"`
	LiveScore   float64 `json:"live_score"`
	SampleCount int     `json:"sample_count"`
}

// resultResponse mirrors the final result body.
type resultResponse struct {
	SessionID       string  `json:"session_id"`
	Task            string  `json:"task"`
	Score           float64 `json:"score"`
	SampleCount     int     `json:"sample_count"`
	OnTargetPercent *int    `json:"on_target_percent,omitempty"`
	WasSkipped      bool    `json:"was_skipped"`
}

// sessionOutcome is one finished run's record for the output file.
type sessionOutcome struct {
	SessionID   string  `json:"session_id"`
	Profile     string  `json:"profile"`
	Score       float64 `json:"score"`
	SampleCount int     `json:"sample_count"`
	FramesSent  int     `json:"frames_sent"`
}

// frameFunc produces the frame payload at the given index for a profile.
type frameFunc func(index int) model.Frame

// Stats holds simulation statistics.
type Stats struct {
	SessionsRun      int
	SessionsFinished int
	SessionsFailed   int
	FramesSent       int
	FramesFailed     int
	ScoreSum         float64
	ScoreMin         float64
	ScoreMax         float64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
