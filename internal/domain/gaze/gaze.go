// Package gaze derives a single gaze position from raw face landmarks
// and tracks proximity to a moving on-screen target.
package gaze

import (
	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/types"
)

// boxMargin widens the eye-corner bounding box slightly when validating
// iris positions; iris centers sit fractionally outside the corner line
// on many faces.
const boxMargin = 0.02

// DerivePoint computes the gaze position for one frame.
//
// Preference order: validated iris center (high confidence), eye-corner
// midpoint (medium), face-center heuristic (low). Iris positions that
// fall outside the eye-corner bounding box are rejected as implausible
// (occlusion, reflective glasses) rather than trusted. ok is false when
// no tier has usable landmarks; the caller skips the frame.
func DerivePoint(face *model.FaceLandmarks) (p types.Point, conf types.GazeConfidence, ok bool) {
	if face == nil {
		return types.Point{}, "", false
	}

	if face.IrisCenter != nil && irisPlausible(face) {
		return *face.IrisCenter, types.ConfidenceHigh, true
	}

	if face.EyeInnerCorner != nil && face.EyeOuterCorner != nil {
		mid := types.Point{
			X: (face.EyeInnerCorner.X + face.EyeOuterCorner.X) / 2,
			Y: (face.EyeInnerCorner.Y + face.EyeOuterCorner.Y) / 2,
		}
		return mid, types.ConfidenceMedium, true
	}

	if face.FaceCenter != nil {
		return *face.FaceCenter, types.ConfidenceLow, true
	}

	return types.Point{}, "", false
}

// irisPlausible validates the iris center against the eye-corner
// bounding box. Without both corners the iris cannot be validated and
// is not trusted.
func irisPlausible(face *model.FaceLandmarks) bool {
	if face.EyeInnerCorner == nil || face.EyeOuterCorner == nil {
		return false
	}
	iris := *face.IrisCenter
	minX := min(face.EyeInnerCorner.X, face.EyeOuterCorner.X) - boxMargin
	maxX := max(face.EyeInnerCorner.X, face.EyeOuterCorner.X) + boxMargin
	minY := min(face.EyeInnerCorner.Y, face.EyeOuterCorner.Y) - boxMargin
	maxY := max(face.EyeInnerCorner.Y, face.EyeOuterCorner.Y) + boxMargin
	return iris.X >= minX && iris.X <= maxX && iris.Y >= minY && iris.Y <= maxY
}
