package scoring

// OcularScorer scores gaze-movement deltas for the smooth pursuit task.
// The pipeline operates on the sequence of distances between adjacent
// derived gaze points rather than raw positions.
type OcularScorer struct {
	policy Policy
}

// NewOcularScorer creates an ocular scorer with the canonical policy.
func NewOcularScorer(opts ...Option) *OcularScorer {
	p := DefaultOcularPolicy()
	for _, opt := range opts {
		opt(&p)
	}
	return &OcularScorer{policy: p}
}

// Policy returns the scorer's effective policy.
func (s *OcularScorer) Policy() Policy {
	return s.policy
}

// LiveScore blends the cumulative settled score with a recent-window
// sub-score so a subject who was jittery early and then steadied sees
// their readout recover. The blend is capped at cumulative+RecoveryCap:
// recovery is real but cannot fully erase a bad start.
func (s *OcularScorer) LiveScore(deltas []float64) float64 {
	if len(deltas) < s.policy.MinLiveSamples {
		return NeutralScore
	}

	settled := deltas
	if off := s.policy.settleOffset(len(deltas)); len(deltas)-off >= s.policy.MinLiveSamples {
		settled = deltas[off:]
	}
	cumulative := s.policy.sigmoidCurve(rms(settled))

	recent := settled
	if len(recent) > s.policy.RecentWindow {
		recent = recent[len(recent)-s.policy.RecentWindow:]
	}
	recentScore := s.policy.sigmoidCurve(rms(recent))

	blended := (cumulative + recentScore) / 2
	if limit := cumulative + s.policy.RecoveryCap; blended > limit {
		blended = limit
	}
	return clampScore(blended)
}

// OcularFinal is the final-scoring outcome for an ocular session. The
// delta statistics are side outputs for reporting.
type OcularFinal struct {
	Score      float64
	DeltaCount int
	MeanDelta  float64
	RMSDelta   float64
}

// FinalScore computes the authoritative end-of-session score over the
// complete delta sequence.
func (s *OcularScorer) FinalScore(deltas []float64) OcularFinal {
	out := OcularFinal{DeltaCount: len(deltas)}
	if len(deltas) < s.policy.MinFinalSamples {
		out.Score = NeutralScore
		return out
	}

	settled := deltas[s.policy.settleOffset(len(deltas)):]
	if len(settled) == 0 {
		out.Score = NeutralScore
		return out
	}

	out.MeanDelta = mean(settled)
	out.RMSDelta = rms(settled)
	cumulative := out.RMSDelta

	penalized := cumulative
	if worst, ok := s.policy.worstSegmentAverage(len(settled), func(start, end int) float64 {
		return rms(settled[start:end])
	}); ok {
		penalized = s.policy.blendWorst(cumulative, worst)
	}

	out.Score = round1(s.policy.sigmoidCurve(penalized))
	return out
}

// DiscountForTargetMiss discounts a final score when the subject's gaze
// was on target for less than half the session. A smooth but off-target
// trace is not a meaningful pursuit measurement.
func (s *OcularScorer) DiscountForTargetMiss(score float64, onTargetPercent int) float64 {
	if onTargetPercent >= 50 {
		return score
	}
	factor := 0.6 + float64(onTargetPercent)/50*0.4
	return round1(clampScore(score * factor))
}
