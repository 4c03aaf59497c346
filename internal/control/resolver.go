package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/rate"
)

// Targets is a camera pose in control space: orbit is (pitch, yaw) in radians.
type Targets struct {
	Orbit  mgl64.Vec2
	Pan    mgl64.Vec3
	Roll   float64
	Radius float64
}

// DefaultRest is the pose the camera returns to when no hand steers it.
func DefaultRest() Targets {
	return Targets{
		Orbit:  mgl64.Vec2{0.4, 0.9},
		Radius: 140,
	}
}

// ResolverConfig tunes the hand-to-camera mapping.
type ResolverConfig struct {
	// DeadZone is the band around the screen center mapped to zero, in signed units.
	DeadZone float64

	MaxPitch, MaxYaw         float64
	PanX, PanY               float64
	DualMaxPitch, DualMaxYaw float64
	RollGain                 float64

	// Release is the per-reference-frame factor by which undriven offsets fall back to rest.
	Release float64
	// Follow is the damping base of the desired-to-target stage.
	Follow float64

	ZoomGain             float64
	MinRadius, MaxRadius float64

	Rest Targets
}

// DefaultResolverConfig returns the standard tuning.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		DeadZone:     0.1,
		MaxPitch:     0.8,
		MaxYaw:       1.2,
		PanX:         18,
		PanY:         12,
		DualMaxPitch: 0.9,
		DualMaxYaw:   1.4,
		RollGain:     0.6,
		Release:      0.92,
		Follow:       0.6,
		ZoomGain:     600,
		MinRadius:    60,
		MaxRadius:    260,
		Rest:         DefaultRest(),
	}
}

// Desired holds what the hands currently ask for, as offsets from the rest
// pose for orbit, pan and roll and as an absolute value for radius.
type Desired struct {
	Orbit  mgl64.Vec2
	Pan    mgl64.Vec3
	Roll   float64
	Radius float64
}

// Resolver maps palms to camera targets in two stages: hands set the desired
// offsets, and the published targets follow them with exponential smoothing.
type Resolver struct {
	cfg     ResolverConfig
	desired Desired
	targets Targets
}

// NewResolver creates a Resolver sitting at the configured rest pose.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		cfg:     cfg,
		desired: Desired{Radius: cfg.Rest.Radius},
		targets: cfg.Rest,
	}
}

// Shape maps a normalized screen coordinate in [0,1] to [-1,1] with a dead zone
// around the center; the remainder is stretched to fill the full range.
func Shape(v, deadZone float64) float64 {
	s := rate.Clamp(v*2-1, -1, 1)
	a := math.Abs(s)
	if a <= deadZone {
		return 0
	}
	if deadZone >= 1 {
		return 0
	}
	return math.Copysign((a-deadZone)/(1-deadZone), s)
}

// Resolve folds one frame of hands into the desired offsets and advances the
// smoothed targets by dt seconds.
func (r *Resolver) Resolve(hands []gesture.HandSummary, u gesture.Update, mode Mode, dt float64) Targets {
	if len(hands) > detector.MaxHands {
		hands = hands[:detector.MaxHands]
	}

	var orbitDriven, panDriven, rollDriven bool

	if len(hands) > 0 {
		x := Shape(hands[0].Palm.X, r.cfg.DeadZone)
		y := Shape(hands[0].Palm.Y, r.cfg.DeadZone)
		if mode.Orbits() {
			r.desired.Orbit = mgl64.Vec2{-y * r.cfg.MaxPitch, x * r.cfg.MaxYaw}
			orbitDriven = true
		}
		if mode.Pans() {
			r.desired.Pan = mgl64.Vec3{x * r.cfg.PanX, -y * r.cfg.PanY, 0}
			panDriven = true
		}
	}

	if len(hands) > 1 {
		a, b := hands[0].Palm, hands[1].Palm
		// Order the pair left to right so roll stays within ±π/2.
		if b.X < a.X {
			a, b = b, a
		}
		r.desired.Roll = math.Atan2(b.Y-a.Y, b.X-a.X) * r.cfg.RollGain
		rollDriven = true

		cx := Shape((a.X+b.X)/2, r.cfg.DeadZone)
		cy := Shape((a.Y+b.Y)/2, r.cfg.DeadZone)
		r.desired.Orbit = mgl64.Vec2{-cy * r.cfg.DualMaxPitch, cx * r.cfg.DualMaxYaw}
		orbitDriven = true
	}

	release := rate.Decay(r.cfg.Release, dt)
	if !orbitDriven {
		r.desired.Orbit = r.desired.Orbit.Mul(release)
	}
	if !panDriven {
		r.desired.Pan = r.desired.Pan.Mul(release)
	}
	if !rollDriven {
		r.desired.Roll *= release
	}

	for i := range u.HasPinchDelta {
		if u.HasPinchDelta[i] {
			r.desired.Radius = rate.Clamp(r.desired.Radius-u.PinchDelta[i]*r.cfg.ZoomGain, r.cfg.MinRadius, r.cfg.MaxRadius)
		}
	}

	k := rate.Damping(r.cfg.Follow, dt)
	rest := r.cfg.Rest
	r.targets.Orbit = lerp2(r.targets.Orbit, rest.Orbit.Add(r.desired.Orbit), k)
	r.targets.Pan = lerp3(r.targets.Pan, rest.Pan.Add(r.desired.Pan), k)
	r.targets.Roll = rate.Lerp(r.targets.Roll, rest.Roll+r.desired.Roll, k)
	r.targets.Radius = rate.Lerp(r.targets.Radius, r.desired.Radius, k)

	return r.targets
}

// Desired returns the unsmoothed offsets requested by the most recent hands.
func (r *Resolver) Desired() Desired {
	return r.desired
}

// Targets returns the smoothed targets.
func (r *Resolver) Targets() Targets {
	return r.targets
}

func lerp2(a, b mgl64.Vec2, t float64) mgl64.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

func lerp3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
