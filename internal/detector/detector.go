package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrUnavailable is returned when no hand landmark backend can be started.
var ErrUnavailable = errors.New("hand detector unavailable")

// Detector defines the interface for hand detection implementations.
// Implementations are called from a single goroutine and need not be
// safe for concurrent Detect calls.
type Detector interface {
	// Detect analyzes a video frame and returns at most MaxHands landmark sets,
	// ordered as reported by the backend. Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelComplexity selects the MediaPipe landmark model (0 lite, 1 full).
	ModelComplexity int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        MaxHands,
		MinConfidence:   0.6,
		MinTrackingConf: 0.5,
		ModelComplexity: 1,
	}
}

// Clip trims a detection result to at most max hands.
func Clip(hands []HandLandmarks, max int) []HandLandmarks {
	if max <= 0 || max > MaxHands {
		max = MaxHands
	}
	if len(hands) > max {
		return hands[:max]
	}
	return hands
}
