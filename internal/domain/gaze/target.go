package gaze

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/steadilab/steadi/internal/domain/types"
)

// Default target tracker configuration constants.
const (
	defaultOnTargetRadius = 0.18
	defaultEdgeMargin     = 0.15
	defaultRandomSeed     = 42
)

// TrackerOption applies a configuration option to the TargetTracker.
type TrackerOption func(*TargetTracker)

// WithOnTargetRadius sets the normalized distance below which a gaze
// sample counts as on target.
func WithOnTargetRadius(r float64) TrackerOption {
	return func(t *TargetTracker) {
		if r > 0 {
			t.radius = r
		}
	}
}

// WithEdgeMargin sets how far targets stay away from the screen edges.
func WithEdgeMargin(m float64) TrackerOption {
	return func(t *TargetTracker) {
		if m >= 0 && m < 0.5 {
			t.margin = m
		}
	}
}

// WithRandSource seeds target placement; deterministic by default so
// sessions replay identically in tests.
func WithRandSource(src rand.Source) TrackerOption {
	return func(t *TargetTracker) {
		if src != nil {
			t.rng = rand.New(src) //nolint:gosec // placement only, not security sensitive
		}
	}
}

// TargetTracker measures what fraction of frames the subject's gaze was
// directed at a moving target, independent of smoothness scoring.
//
// The current target is a single-writer value cell: the relocation
// driver writes it, the frame driver reads it atomically, so the
// proximity check always sees a complete position rather than a torn
// update even if the two drivers ever run on different goroutines.
type TargetTracker struct {
	target atomic.Value // types.Point

	radius float64
	margin float64
	rng    *rand.Rand

	onTargetFrames int
	totalFrames    int
}

// NewTargetTracker creates a tracker with a first target already placed.
func NewTargetTracker(opts ...TrackerOption) *TargetTracker {
	t := &TargetTracker{
		radius: defaultOnTargetRadius,
		margin: defaultEdgeMargin,
		rng:    rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic placement
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Relocate()
	return t
}

// Relocate re-randomizes the target position within the margin inset of
// the normalized screen. Called by the relocation driver on its fixed
// interval, never by the frame driver.
func (t *TargetTracker) Relocate() {
	span := 1 - 2*t.margin
	t.target.Store(types.Point{
		X: t.margin + t.rng.Float64()*span,
		Y: t.margin + t.rng.Float64()*span,
	})
}

// Target returns the most recently written target position.
func (t *TargetTracker) Target() types.Point {
	p, _ := t.target.Load().(types.Point)
	return p
}

// Observe classifies one gaze sample against the current target and
// updates the running counters. Only the frame driver calls this.
func (t *TargetTracker) Observe(gazePoint types.Point) bool {
	t.totalFrames++
	on := gazePoint.Dist(t.Target()) < t.radius
	if on {
		t.onTargetFrames++
	}
	return on
}

// Percent returns the end-of-session on-target ratio as a rounded
// percentage, 0 when no frames were observed.
func (t *TargetTracker) Percent() int {
	if t.totalFrames == 0 {
		return 0
	}
	return int(math.Round(float64(t.onTargetFrames) / float64(t.totalFrames) * 100))
}

// Counts exposes the raw counters for reporting.
func (t *TargetTracker) Counts() (onTarget, total int) {
	return t.onTargetFrames, t.totalFrames
}
