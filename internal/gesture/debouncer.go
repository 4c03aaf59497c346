package gesture

import (
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/rate"
)

// DebounceConfig tunes the gesture levels. Factors and steps are per
// reference frame at 60 Hz and are rescaled by the elapsed time of each step.
type DebounceConfig struct {
	ScatterDecay float64
	GravityStep  float64
	GravityDecay float64
}

// DefaultDebounceConfig returns the standard tuning.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		ScatterDecay: 0.92,
		GravityStep:  0.04,
		GravityDecay: 0.92,
	}
}

// Levels are the decaying effect strengths, each in [0,1].
type Levels struct {
	Scatter float64 `json:"scatter"`
	Gravity float64 `json:"gravity"`
}

// Update reports what one debouncer step observed.
type Update struct {
	Hands         int
	PinchDelta    [detector.MaxHands]float64
	HasPinchDelta [detector.MaxHands]bool
	OpenEdge      [detector.MaxHands]bool
	Fist          bool
	Scattered     bool
	Levels        Levels
}

// slot is the previous-frame memory of one hand position.
type slot struct {
	prevPinch    float64
	hasPrevPinch bool
	lastOpen     bool
	lastFist     bool
}

// Debouncer converts per-frame hand summaries into edge-triggered events and
// decaying levels. It is owned by the frame loop and not safe for concurrent use.
type Debouncer struct {
	cfg    DebounceConfig
	slots  [detector.MaxHands]slot
	levels Levels
}

// NewDebouncer creates a Debouncer with zero levels.
func NewDebouncer(cfg DebounceConfig) *Debouncer {
	return &Debouncer{cfg: cfg}
}

// Step advances the debouncer by dt seconds using the hands currently known.
//
// A closing pinch yields a negative PinchDelta. Open palm only fires on the
// frame it becomes true; any such edge resets scatter to 1, otherwise scatter
// decays. A fist in any hand raises gravity toward 1; with no fist gravity decays.
// A vanished hand forgets its slot so its next appearance starts fresh.
func (d *Debouncer) Step(hands []HandSummary, dt float64) Update {
	var u Update
	if len(hands) > detector.MaxHands {
		hands = hands[:detector.MaxHands]
	}
	u.Hands = len(hands)

	for i := range d.slots {
		s := &d.slots[i]
		if i >= len(hands) {
			*s = slot{}
			continue
		}
		h := hands[i]

		if h.Pinch && s.hasPrevPinch {
			u.PinchDelta[i] = h.PinchDistance - s.prevPinch
			u.HasPinchDelta[i] = true
		}
		if h.OpenPalm && !s.lastOpen {
			u.OpenEdge[i] = true
			u.Scattered = true
		}
		if h.Fist {
			u.Fist = true
		}

		s.prevPinch = h.PinchDistance
		s.hasPrevPinch = true
		s.lastOpen = h.OpenPalm
		s.lastFist = h.Fist
	}

	if u.Scattered {
		d.levels.Scatter = 1
	} else {
		d.levels.Scatter *= rate.Decay(d.cfg.ScatterDecay, dt)
	}

	if u.Fist {
		d.levels.Gravity = min(1, d.levels.Gravity+rate.Accumulate(d.cfg.GravityStep, dt))
	} else {
		d.levels.Gravity *= rate.Decay(d.cfg.GravityDecay, dt)
	}

	u.Levels = d.levels
	return u
}

// Levels returns the current effect levels.
func (d *Debouncer) Levels() Levels {
	return d.levels
}

// Reset forgets all per-hand history and zeroes the levels.
func (d *Debouncer) Reset() {
	d.slots = [detector.MaxHands]slot{}
	d.levels = Levels{}
}
