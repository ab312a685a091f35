package scoring

import "github.com/steadilab/steadi/internal/domain/types"

// MotorScorer scores raw wrist positions for the motor stability task.
// It is stateless: both scorers are pure functions over the buffer
// contents they are handed, so rescoring an immutable snapshot is
// bit-identical.
type MotorScorer struct {
	policy Policy
}

// Option applies a configuration option to a scorer.
type Option func(*Policy)

// WithPolicy replaces the whole policy.
func WithPolicy(p Policy) Option {
	return func(dst *Policy) { *dst = p }
}

// WithVarianceScale overrides the motor response-curve scale.
func WithVarianceScale(scale float64) Option {
	return func(dst *Policy) {
		if scale > 0 {
			dst.VarianceScale = scale
		}
	}
}

// WithSigmoid overrides the ocular response-curve constants.
func WithSigmoid(k, midpoint float64) Option {
	return func(dst *Policy) {
		if k > 0 && midpoint > 0 {
			dst.SigmoidK = k
			dst.SigmoidMidpoint = midpoint
		}
	}
}

// NewMotorScorer creates a motor scorer with the canonical policy.
func NewMotorScorer(opts ...Option) *MotorScorer {
	p := DefaultMotorPolicy()
	for _, opt := range opts {
		opt(&p)
	}
	return &MotorScorer{policy: p}
}

// Policy returns the scorer's effective policy.
func (s *MotorScorer) Policy() Policy {
	return s.policy
}

// LiveScore produces the frame-by-frame readout from the trailing
// window. Below the minimum sample count it returns the neutral score:
// a near-empty buffer carries no information and must not look alarming.
func (s *MotorScorer) LiveScore(samples []types.Point) float64 {
	if len(samples) < s.policy.MinLiveSamples {
		return NeutralScore
	}
	window := samples
	if len(window) > s.policy.LiveWindow {
		window = window[len(window)-s.policy.LiveWindow:]
	}
	vx, vy := popVarianceXY(window)
	return s.policy.varianceCurve(vx + vy)
}

// MotorFinal is the final-scoring outcome for a motor session. The
// variance components are side outputs for reporting and never feed
// back into the score.
type MotorFinal struct {
	Score       float64
	SampleCount int
	VarianceX   float64
	VarianceY   float64
}

// FinalScore computes the authoritative end-of-session score over the
// complete buffer: settling exclusion, cumulative variance, worst-
// segment blend, response curve.
func (s *MotorScorer) FinalScore(samples []types.Point) MotorFinal {
	out := MotorFinal{SampleCount: len(samples)}
	if len(samples) < s.policy.MinFinalSamples {
		out.Score = NeutralScore
		return out
	}

	settled := samples[s.policy.settleOffset(len(samples)):]
	if len(settled) == 0 {
		out.Score = NeutralScore
		return out
	}

	vx, vy := popVarianceXY(settled)
	out.VarianceX = vx
	out.VarianceY = vy
	cumulative := vx + vy

	penalized := cumulative
	if worst, ok := s.policy.worstSegmentAverage(len(settled), func(start, end int) float64 {
		svx, svy := popVarianceXY(settled[start:end])
		return svx + svy
	}); ok {
		penalized = s.policy.blendWorst(cumulative, worst)
	}

	out.Score = round1(s.policy.varianceCurve(penalized))
	return out
}
