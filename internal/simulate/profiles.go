package simulate

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/types"
)

// Profile names accepted on the command line.
const (
	ProfileSteady   = "steady"
	ProfileTremor   = "tremor"
	ProfileFixation = "fixation"
	ProfileSaccade  = "saccade"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Motion parameters per profile. Coordinates are normalized to the
// unit square, so amplitudes here are fractions of the frame.
const (
	steadyJitter = 0.0004

	tremorAmplitude = 0.02
	tremorHz        = 5.0
	tremorJitter    = 0.001

	fixationJitter = 0.002

	saccadeJitter     = 0.002
	saccadeHoldFrames = 12
)

// Eye geometry used when synthesizing face landmarks.
const (
	eyeCenterX    = 0.5
	eyeCenterY    = 0.5
	eyeCornerSpan = 0.05
	irisSwing     = 0.03
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// jitter returns a random offset in [-scale, scale].
func jitter(scale float64) float64 {
	return (getRandomFloat()*2 - 1) * scale
}

// TaskForProfile maps a movement profile to the task kind it exercises.
func TaskForProfile(profile string) (types.TaskKind, error) {
	switch profile {
	case ProfileSteady, ProfileTremor:
		return types.TaskMotor, nil
	case ProfileFixation, ProfileSaccade:
		return types.TaskOcular, nil
	default:
		return "", fmt.Errorf("unknown profile: %q", profile)
	}
}

// frameGenerator returns the per-frame payload builder for a profile.
// The frame rate is needed so oscillation frequency lands at the right
// wall-clock rate regardless of how fast frames are pushed.
func frameGenerator(profile string, frameRate int) (frameFunc, error) {
	switch profile {
	case ProfileSteady:
		return steadyHandFrame, nil
	case ProfileTremor:
		return tremorHandFrame(frameRate), nil
	case ProfileFixation:
		return fixationFaceFrame, nil
	case ProfileSaccade:
		return saccadeFaceFrame, nil
	default:
		return nil, fmt.Errorf("unknown profile: %q", profile)
	}
}

// steadyHandFrame holds the wrist near the frame center with sub-pixel
// jitter, modeling a healthy hold.
func steadyHandFrame(_ int) model.Frame {
	return model.Frame{
		Hand: &types.Point{
			X: 0.5 + jitter(steadyJitter),
			Y: 0.5 + jitter(steadyJitter),
		},
	}
}

// tremorHandFrame oscillates the wrist sinusoidally at tremor frequency
// on top of baseline jitter.
func tremorHandFrame(frameRate int) frameFunc {
	if frameRate <= 0 {
		frameRate = 1
	}
	return func(index int) model.Frame {
		t := float64(index) / float64(frameRate)
		phase := 2 * math.Pi * tremorHz * t
		return model.Frame{
			Hand: &types.Point{
				X: 0.5 + tremorAmplitude*math.Sin(phase) + jitter(tremorJitter),
				Y: 0.5 + tremorAmplitude*math.Cos(phase) + jitter(tremorJitter),
			},
		}
	}
}

// fixationFaceFrame keeps the iris parked between the eye corners,
// modeling stable gaze.
func fixationFaceFrame(_ int) model.Frame {
	return faceFrame(eyeCenterX+jitter(fixationJitter), eyeCenterY+jitter(fixationJitter))
}

// saccadeFaceFrame snaps the iris to a new position every hold period,
// modeling jumpy gaze that should score poorly.
func saccadeFaceFrame(index int) model.Frame {
	hold := index / saccadeHoldFrames
	// Alternate between the nasal and temporal ends of the swing range.
	offset := irisSwing
	if hold%2 == 0 {
		offset = -irisSwing
	}
	return faceFrame(eyeCenterX+offset+jitter(saccadeJitter), eyeCenterY+jitter(saccadeJitter))
}

// faceFrame builds a full landmark set with the iris at the given point
// and corners straddling the eye center.
func faceFrame(irisX, irisY float64) model.Frame {
	return model.Frame{
		Face: &model.FaceLandmarks{
			IrisCenter:     &types.Point{X: irisX, Y: irisY},
			EyeInnerCorner: &types.Point{X: eyeCenterX - eyeCornerSpan, Y: eyeCenterY},
			EyeOuterCorner: &types.Point{X: eyeCenterX + eyeCornerSpan, Y: eyeCenterY},
			FaceCenter:     &types.Point{X: eyeCenterX, Y: eyeCenterY + 0.1},
		},
	}
}
