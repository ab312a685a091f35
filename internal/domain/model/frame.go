// Package model contains domain models passed between layers.
package model

import "github.com/steadilab/steadi/internal/domain/types"

// Frame is one detection cycle's worth of landmarks from the external
// landmark source. Every field is optional: the source may produce no
// detection for a given video frame, in which case the session skips the
// frame entirely rather than treating it as zero motion.
type Frame struct {
	// Hand is the wrist-equivalent point for the motor task.
	Hand *types.Point `json:"hand,omitempty"`

	// Face carries the eye/iris landmark set for the ocular task.
	Face *FaceLandmarks `json:"face,omitempty"`
}

// Empty reports whether the frame carries no detection at all.
func (f Frame) Empty() bool {
	return f.Hand == nil && f.Face == nil
}

// FaceLandmarks is the fixed-index subset of face landmarks the engine
// consumes. Individual landmarks may be missing (occlusion, reflective
// glasses); gaze derivation falls through its confidence tiers instead
// of failing.
type FaceLandmarks struct {
	IrisCenter     *types.Point `json:"iris_center,omitempty"`
	EyeInnerCorner *types.Point `json:"eye_inner_corner,omitempty"`
	EyeOuterCorner *types.Point `json:"eye_outer_corner,omitempty"`
	FaceCenter     *types.Point `json:"face_center,omitempty"`
}
