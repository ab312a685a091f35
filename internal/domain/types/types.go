// Package types contains common types used across the engine.
package types

import "math"

// Point is a 2D position in normalized [0,1]x[0,1] landmark space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance to other.
func (p Point) Dist(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// TaskKind identifies which assessment task a session runs.
type TaskKind string

// Supported task kinds.
const (
	TaskMotor  TaskKind = "motor"
	TaskOcular TaskKind = "ocular"
)

// Valid reports whether the task kind is one the engine knows.
func (t TaskKind) Valid() bool {
	return t == TaskMotor || t == TaskOcular
}

// GazeConfidence reports which landmark tier produced a derived gaze point.
type GazeConfidence string

// Confidence tiers, highest first. Each fallback tier in gaze derivation
// lowers the reported confidence without altering the geometry.
const (
	ConfidenceHigh   GazeConfidence = "high"
	ConfidenceMedium GazeConfidence = "medium"
	ConfidenceLow    GazeConfidence = "low"
)

// SessionState is the lifecycle state of a task session.
type SessionState string

// Session lifecycle states.
const (
	StateLoading   SessionState = "loading"
	StateReady     SessionState = "ready"
	StateCountdown SessionState = "countdown"
	StateTracking  SessionState = "tracking"
	StateDone      SessionState = "done"
)

// Terminal reports whether the state ends the attempt.
func (s SessionState) Terminal() bool {
	return s == StateDone
}
