package model

import (
	"time"

	"github.com/steadilab/steadi/internal/domain/types"
)

// SeriesLimit bounds the trailing raw-sample slice attached to a result
// for downstream charting.
const SeriesLimit = 300

// AuxStats carries side outputs of final scoring. They are reported for
// downstream use and never feed back into the score itself.
type AuxStats struct {
	// Motor task: per-axis population variance components.
	VarianceX float64 `json:"variance_x,omitempty"`
	VarianceY float64 `json:"variance_y,omitempty"`

	// Ocular task: aggregate delta statistics.
	MeanDelta float64 `json:"mean_delta,omitempty"`
	RMSDelta  float64 `json:"rms_delta,omitempty"`
}

// Result is the immutable record produced when a session reaches done.
type Result struct {
	SessionID   string         `json:"session_id"`
	Task        types.TaskKind `json:"task"`
	Score       float64        `json:"score"` // 0-100, one decimal
	SampleCount int            `json:"sample_count"`

	// Series holds the trailing raw samples (at most SeriesLimit) for
	// charting. Motor: raw positions. Ocular: per-delta magnitudes
	// folded into the X component.
	Series []types.Point `json:"series,omitempty"`

	Aux AuxStats `json:"aux"`

	// OnTargetPercent is set for ocular sessions only.
	OnTargetPercent *int `json:"on_target_percent,omitempty"`

	WasSkipped   bool      `json:"was_skipped"`
	RestartCount int       `json:"restart_count"`
	CompletedAt  time.Time `json:"completed_at"`
}
