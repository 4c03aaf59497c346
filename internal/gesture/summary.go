// Package gesture turns raw hand landmarks into per-hand summaries and
// debounced gesture events that drive the camera and particle effects.
package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Classification thresholds, in normalized image units.
const (
	// PinchThreshold is the thumb-index tip distance below which a hand pinches.
	PinchThreshold = 0.05
	// FingerMargin is how far a fingertip must sit above its PIP joint to count as extended.
	FingerMargin = 0.02
	// ThumbMargin is how far the thumb tip must sit above the thumb IP joint.
	ThumbMargin = 0.01
	// FistReach is the average fingertip-to-wrist distance below which a hand may be a fist.
	FistReach = 0.18
)

// fingers pairs each non-thumb fingertip with its proximal interphalangeal joint.
var fingers = [4][2]int{
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// HandSummary is the semantic reading of one hand in one detector frame.
type HandSummary struct {
	Palm          detector.Point3D `json:"palm"`
	PinchDistance float64          `json:"pinchDistance"`
	Pinch         bool             `json:"pinch"`
	OpenPalm      bool             `json:"openPalm"`
	Fist          bool             `json:"fist"`
	Extended      int              `json:"extended"`
}

// Summarize classifies a single hand. It holds no state between calls.
func Summarize(h *detector.HandLandmarks) HandSummary {
	p := &h.Points

	s := HandSummary{
		Palm:          h.Centroid(detector.PalmBase[:]),
		PinchDistance: detector.Distance2D(p[detector.ThumbTip], p[detector.IndexTip]),
	}
	s.Pinch = s.PinchDistance < PinchThreshold

	var reach float64
	for _, f := range fingers {
		tip, pip := p[f[0]], p[f[1]]
		if tip.Y < pip.Y-FingerMargin {
			s.Extended++
		}
		reach += detector.Distance2D(tip, p[detector.Wrist])
	}
	reach /= float64(len(fingers))

	thumbExtended := p[detector.ThumbTip].Y < p[detector.ThumbIP].Y-ThumbMargin
	s.OpenPalm = s.Extended >= 3 && thumbExtended
	s.Fist = reach < FistReach && s.Extended <= 1

	return s
}

// Frame is one detector result reduced to hand summaries. Landmarks are kept
// alongside for the skeleton overlay.
type Frame struct {
	Seq       uint64                   `json:"seq"`
	At        time.Time                `json:"at"`
	Hands     []HandSummary            `json:"hands"`
	Landmarks []detector.HandLandmarks `json:"landmarks,omitempty"`
}

// NewFrame summarizes up to detector.MaxHands hands from one detection callback.
func NewFrame(seq uint64, at time.Time, hands []detector.HandLandmarks) Frame {
	hands = detector.Clip(hands, detector.MaxHands)
	f := Frame{
		Seq:       seq,
		At:        at,
		Hands:     make([]HandSummary, len(hands)),
		Landmarks: make([]detector.HandLandmarks, len(hands)),
	}
	for i := range hands {
		f.Hands[i] = Summarize(&hands[i])
	}
	copy(f.Landmarks, hands)
	return f
}
