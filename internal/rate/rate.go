// Package rate converts per-frame tuning constants, expressed at a 60 Hz
// reference rate, into frame-rate independent quantities for an arbitrary Δt.
package rate

import (
	"math"
	"time"
)

// Reference is the frame rate at which per-frame constants are tuned.
const Reference = 60.0

// ReferenceDelta is one reference frame in seconds.
const ReferenceDelta = 1.0 / Reference

// Frames returns how many reference frames dt seconds spans.
func Frames(dt float64) float64 {
	return dt * Reference
}

// Decay returns the multiplicative factor that applies factor once per
// reference frame over dt seconds: factor^(dt/ReferenceDelta).
func Decay(factor, dt float64) float64 {
	if dt <= 0 {
		return 1
	}
	return math.Pow(factor, Frames(dt))
}

// Damping is the interpolation weight 1 - base^(dt·Reference) used to move a
// value toward its target. Smaller base converges faster.
func Damping(base, dt float64) float64 {
	return 1 - Decay(base, dt)
}

// Accumulate scales a per-reference-frame increment to dt seconds.
func Accumulate(step, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return step * Frames(dt)
}

// Lerp linearly interpolates from a toward b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampDelta converts an elapsed duration to seconds, capped at max.
// Negative durations (clock adjustments) yield zero.
func ClampDelta(elapsed, max time.Duration) float64 {
	if elapsed < 0 {
		return 0
	}
	if max > 0 && elapsed > max {
		elapsed = max
	}
	return elapsed.Seconds()
}
