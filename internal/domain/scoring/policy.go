// Package scoring computes stability scores from buffered landmark
// samples. Two scorers exist per task kind: a live scorer tuned for a
// smooth on-screen readout, and a final scorer that adds a settling
// exclusion and a worst-segment penalty so a brief moment of stillness
// cannot game the end-of-session result.
package scoring

// NeutralScore is returned whenever a buffer carries too little signal
// to assess. Neither alarming nor falsely reassuring.
const NeutralScore = 50.0

// Policy bundles every tunable of the scoring pipeline so the motor and
// ocular variants share one parametrized implementation instead of
// duplicated math.
type Policy struct {
	// MinLiveSamples is the minimum buffer length before the live
	// scorer produces anything other than the neutral score.
	MinLiveSamples int

	// LiveWindow is the trailing window the motor live scorer operates
	// on; the full history is deliberately ignored for responsiveness.
	LiveWindow int

	// RecentWindow is the trailing sub-window blended into the ocular
	// live score so recovery after a jittery start is visible.
	RecentWindow int

	// RecoveryCap bounds how far the blended ocular live score may rise
	// above the cumulative score. Recovery is real but cannot fully
	// erase a bad start.
	RecoveryCap float64

	// MinFinalSamples is the raw-sample threshold below which final
	// scoring short-circuits to the neutral score.
	MinFinalSamples int

	// SettleFraction of the recording is discarded before final
	// scoring; it captures the subject orienting to the task rather
	// than sustained performance. MinSettleSamples is the floor.
	SettleFraction   float64
	MinSettleSamples int

	// SegmentSize and WorstFraction drive the worst-segment penalty:
	// the settled sequence is cut into SegmentSize-sample segments and
	// the worst WorstFraction of them is averaged. WorstWeight is the
	// blend weight of that average against the cumulative statistic.
	SegmentSize   int
	WorstFraction float64
	WorstWeight   float64

	// VarianceScale maps motor positional variance onto the 0-100
	// range via score = 100 - variance*VarianceScale.
	VarianceScale float64

	// SigmoidK and SigmoidMidpoint shape the ocular response curve
	// score = 100 / (1 + e^(SigmoidK*(rms-SigmoidMidpoint))).
	SigmoidK        float64
	SigmoidMidpoint float64
}

// DefaultMotorPolicy returns the canonical tuning for the wrist
// stability task.
func DefaultMotorPolicy() Policy {
	return Policy{
		MinLiveSamples:   10,
		LiveWindow:       60,
		MinFinalSamples:  10,
		SettleFraction:   0.15,
		MinSettleSamples: 5,
		SegmentSize:      30,
		WorstFraction:    0.25,
		WorstWeight:      0.3,
		VarianceScale:    80000,
	}
}

// DefaultOcularPolicy returns the canonical tuning for the smooth
// pursuit task.
func DefaultOcularPolicy() Policy {
	return Policy{
		MinLiveSamples:   5,
		RecentWindow:     45,
		RecoveryCap:      5,
		MinFinalSamples:  10,
		SettleFraction:   0.15,
		MinSettleSamples: 5,
		SegmentSize:      30,
		WorstFraction:    0.25,
		WorstWeight:      0.3,
		SigmoidK:         180,
		SigmoidMidpoint:  0.015,
	}
}
