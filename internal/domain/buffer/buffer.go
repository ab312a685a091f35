// Package buffer implements the append-only sample buffers owned by a
// task session. A buffer is created empty when tracking starts, mutated
// only by the frame-processing step, and consumed once by final scoring.
//
// Buffers never reject input: raw landmark noise is bounded later by the
// scoring math, not filtered here. An empty buffer is valid and all
// consumers handle it via their minimum-sample thresholds.
package buffer

import "github.com/steadilab/steadi/internal/domain/types"

// PointBuffer holds the ordered raw positions of a motor session.
type PointBuffer struct {
	samples []types.Point
}

// NewPointBuffer creates an empty point buffer.
func NewPointBuffer() *PointBuffer {
	return &PointBuffer{}
}

// Append adds one sample. O(1) amortized.
func (b *PointBuffer) Append(p types.Point) {
	b.samples = append(b.samples, p)
}

// Len returns the number of samples collected so far.
func (b *PointBuffer) Len() int {
	return len(b.samples)
}

// Snapshot returns a copy of all samples collected so far. Future
// appends do not mutate the returned slice.
func (b *PointBuffer) Snapshot() []types.Point {
	out := make([]types.Point, len(b.samples))
	copy(out, b.samples)
	return out
}

// TrailingWindow returns a view of the last n samples, or fewer if not
// yet available. The view aliases the buffer and is only valid until the
// next Append.
func (b *PointBuffer) TrailingWindow(n int) []types.Point {
	if n <= 0 {
		return nil
	}
	if n >= len(b.samples) {
		return b.samples
	}
	return b.samples[len(b.samples)-n:]
}

// DeltaBuffer holds the ordered non-negative movement deltas of an
// ocular session. The delta sequence has length = sample count - 1;
// callers append the distance between each pair of adjacent gaze points.
type DeltaBuffer struct {
	deltas []float64
}

// NewDeltaBuffer creates an empty delta buffer.
func NewDeltaBuffer() *DeltaBuffer {
	return &DeltaBuffer{}
}

// Append adds one delta. O(1) amortized.
func (b *DeltaBuffer) Append(d float64) {
	b.deltas = append(b.deltas, d)
}

// Len returns the number of deltas collected so far.
func (b *DeltaBuffer) Len() int {
	return len(b.deltas)
}

// Snapshot returns a copy of all deltas collected so far.
func (b *DeltaBuffer) Snapshot() []float64 {
	out := make([]float64, len(b.deltas))
	copy(out, b.deltas)
	return out
}

// TrailingWindow returns a view of the last n deltas, or fewer if not
// yet available. The view aliases the buffer and is only valid until the
// next Append.
func (b *DeltaBuffer) TrailingWindow(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n >= len(b.deltas) {
		return b.deltas
	}
	return b.deltas[len(b.deltas)-n:]
}
