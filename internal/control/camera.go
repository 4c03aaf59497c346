package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/rate"
)

// SmootherConfig holds the per-channel damping bases and the projection.
// A base is the fraction of the remaining error left after one reference
// frame; smaller is snappier.
type SmootherConfig struct {
	OrbitBase  float64
	PanBase    float64
	RollBase   float64
	RadiusBase float64

	FovY   float64 // radians
	Aspect float64
	Near   float64
	Far    float64
}

// DefaultSmootherConfig returns the standard tuning: 60° field of view.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		OrbitBase:  0.12,
		PanBase:    0.12,
		RollBase:   0.12,
		RadiusBase: 0.12,
		FovY:       mgl64.DegToRad(60),
		Aspect:     16.0 / 9.0,
		Near:       0.1,
		Far:        2000,
	}
}

// CameraState is the target and current value of every camera channel.
type CameraState struct {
	Target  Targets
	Current Targets
}

// Pose is the camera handed to the renderer.
type Pose struct {
	Position mgl64.Vec3 `json:"position"`
	LookAt   mgl64.Vec3 `json:"lookAt"`
	Up       mgl64.Vec3 `json:"up"`
	FovY     float64    `json:"fovY"`
	Aspect   float64    `json:"aspect"`
	Near     float64    `json:"near"`
	Far      float64    `json:"far"`
}

// View returns the world-to-camera matrix.
func (p Pose) View() mgl64.Mat4 {
	return mgl64.LookAtV(p.Position, p.LookAt, p.Up)
}

// Projection returns the perspective projection matrix.
func (p Pose) Projection() mgl64.Mat4 {
	return mgl64.Perspective(p.FovY, p.Aspect, p.Near, p.Far)
}

// Direction is the unit view direction.
func (p Pose) Direction() mgl64.Vec3 {
	return p.LookAt.Sub(p.Position).Normalize()
}

// Smoother eases the current camera toward its targets each frame.
type Smoother struct {
	cfg   SmootherConfig
	state CameraState
}

// NewSmoother creates a Smoother whose current and target poses both start at rest.
func NewSmoother(cfg SmootherConfig, rest Targets) *Smoother {
	return &Smoother{
		cfg:   cfg,
		state: CameraState{Target: rest, Current: rest},
	}
}

// SetAspect updates the projection aspect ratio; non-positive values are ignored.
func (s *Smoother) SetAspect(aspect float64) {
	if aspect > 0 {
		s.cfg.Aspect = aspect
	}
}

// Step records t as the new target, advances every channel by dt seconds and
// returns the resulting pose.
func (s *Smoother) Step(t Targets, dt float64) Pose {
	s.state.Target = t
	cur := &s.state.Current

	cur.Orbit = lerp2(cur.Orbit, t.Orbit, rate.Damping(s.cfg.OrbitBase, dt))
	cur.Pan = lerp3(cur.Pan, t.Pan, rate.Damping(s.cfg.PanBase, dt))
	cur.Roll = rate.Lerp(cur.Roll, t.Roll, rate.Damping(s.cfg.RollBase, dt))
	cur.Radius = rate.Lerp(cur.Radius, t.Radius, rate.Damping(s.cfg.RadiusBase, dt))

	return s.Pose()
}

// Pose derives the camera from the current spherical coordinates.
func (s *Smoother) Pose() Pose {
	cur := s.state.Current
	phi := math.Pi/2 - cur.Orbit[0]
	theta := cur.Orbit[1]

	offset := mgl64.Vec3{
		math.Sin(phi) * math.Cos(theta),
		math.Cos(phi),
		math.Sin(phi) * math.Sin(theta),
	}.Mul(cur.Radius)

	return Pose{
		Position: cur.Pan.Add(offset),
		LookAt:   cur.Pan,
		Up:       mgl64.Vec3{math.Sin(cur.Roll), math.Cos(cur.Roll), 0},
		FovY:     s.cfg.FovY,
		Aspect:   s.cfg.Aspect,
		Near:     s.cfg.Near,
		Far:      s.cfg.Far,
	}
}

// State returns a copy of the camera state.
func (s *Smoother) State() CameraState {
	return s.state
}
