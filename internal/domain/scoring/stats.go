package scoring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/steadilab/steadi/internal/domain/types"
)

// clampScore bounds a score to the legal [0,100] range.
func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// round1 rounds to one decimal, the precision of reported scores.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// popVarianceXY returns the per-axis population variances of the points.
func popVarianceXY(pts []types.Point) (vx, vy float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.X
		ys[i] = p.Y
	}
	_, vx = stat.PopMeanVariance(xs, nil)
	_, vy = stat.PopMeanVariance(ys, nil)
	return vx, vy
}

// rms returns the root mean square of the values, 0 for an empty slice.
func rms(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(xs, xs) / float64(len(xs)))
}

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// settleOffset returns the index at which the settled portion of a
// recording of length n starts.
func (p Policy) settleOffset(n int) int {
	off := int(float64(n) * p.SettleFraction)
	if off < p.MinSettleSamples {
		off = p.MinSettleSamples
	}
	if off > n {
		off = n
	}
	return off
}

// worstSegmentAverage partitions n items into fixed-size segments,
// evaluates each with segStat (indices are [start,end)), and returns the
// mean of the worst WorstFraction of segments, where larger statistic
// values are worse. Returns (0, false) when no full segment exists, in
// which case the penalty step is skipped.
func (p Policy) worstSegmentAverage(n int, segStat func(start, end int) float64) (float64, bool) {
	if p.SegmentSize <= 0 || n < p.SegmentSize {
		return 0, false
	}
	segCount := n / p.SegmentSize
	stats := make([]float64, 0, segCount)
	for i := 0; i < segCount; i++ {
		start := i * p.SegmentSize
		stats = append(stats, segStat(start, start+p.SegmentSize))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(stats)))

	worstCount := int(math.Ceil(float64(segCount) * p.WorstFraction))
	if worstCount < 1 {
		worstCount = 1
	}
	return mean(stats[:worstCount]), true
}

// blendWorst folds the worst-segment average into the cumulative
// statistic. A prolonged bad stretch pulls the result down permanently
// instead of being diluted by an otherwise steady recording.
func (p Policy) blendWorst(cumulative, worstAvg float64) float64 {
	return cumulative*(1-p.WorstWeight) + worstAvg*p.WorstWeight
}

// varianceCurve maps a motor positional variance to a score.
func (p Policy) varianceCurve(variance float64) float64 {
	return clampScore(100 - variance*p.VarianceScale)
}

// sigmoidCurve maps an ocular delta RMS to a score, monotonically
// decreasing in movement magnitude.
func (p Policy) sigmoidCurve(rmsDelta float64) float64 {
	return clampScore(100 / (1 + math.Exp(p.SigmoidK*(rmsDelta-p.SigmoidMidpoint))))
}
