package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/particles"
	"github.com/ayusman/mudra/internal/rate"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/settings"
)

// Frame loop defaults.
const (
	DefaultRenderFPS = 60
	DefaultMaxDelta  = 50 * time.Millisecond
	// GroupTilt is the fixed tilt of the particle group about X, in radians.
	GroupTilt = -0.3
	// GroupSpin is the particle group's spin about Y, in radians per second.
	GroupSpin = 0.03
)

// DriverConfig tunes the frame loop.
type DriverConfig struct {
	FPS      int
	MaxDelta time.Duration
	Debounce gesture.DebounceConfig
	Resolver control.ResolverConfig
	Smoother control.SmootherConfig
	Follow   float64
}

// DefaultDriverConfig returns the standard frame loop tuning.
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		FPS:      DefaultRenderFPS,
		MaxDelta: DefaultMaxDelta,
		Debounce: gesture.DefaultDebounceConfig(),
		Resolver: control.DefaultResolverConfig(),
		Smoother: control.DefaultSmootherConfig(),
		Follow:   scene.DefaultFollow,
	}
}

// Sink receives every snapshot the loop produces. Snapshot.Particles aliases
// the simulator's buffer and is only valid until Publish returns.
type Sink interface {
	Publish(snap scene.Snapshot)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(scene.Snapshot)

func (f SinkFunc) Publish(snap scene.Snapshot) { f(snap) }

// handSlot is everything the loop remembers about one hand position.
type handSlot struct {
	present bool
	trail   scene.Trail
}

// ControlState is the per-session gesture and camera state, owned by the
// frame loop.
type ControlState struct {
	Input   gesture.Frame
	Update  gesture.Update
	Targets control.Targets
	Pose    control.Pose
	Group   scene.Group

	slots [detector.MaxHands]handSlot
}

// SessionStats are running totals for the current session.
type SessionStats struct {
	Frames   int64
	Grabs    int64
	Scatters int64
}

// DriverOptions wires a Driver. Nil fields get working defaults.
type DriverOptions struct {
	Config   DriverConfig
	Galaxy   *particles.Field
	Registry *scene.Registry
	Settings *settings.Live
	Input    *Latest[gesture.Frame]
	Sink     Sink
	Metrics  *Metrics
	Logger   zerolog.Logger
	Session  string
}

// Driver runs the per-frame simulation: it takes the newest detector result,
// steps the debouncer, resolver, camera, particles and grabber, and emits a
// snapshot for the renderer.
type Driver struct {
	cfg      DriverConfig
	log      zerolog.Logger
	metrics  *Metrics
	input    *Latest[gesture.Frame]
	settings *settings.Live
	sink     Sink
	session  string

	mu        sync.Mutex
	debouncer *gesture.Debouncer
	resolver  *control.Resolver
	smoother  *control.Smoother
	galaxy    *particles.Field
	registry  *scene.Registry
	grabber   *scene.Grabber
	state     ControlState
	preset    string
	frame     uint64
	last      time.Time

	frames   atomic.Int64
	grabs    atomic.Int64
	scatters atomic.Int64
}

// NewDriver creates a Driver.
func NewDriver(opts DriverOptions) *Driver {
	cfg := opts.Config
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultRenderFPS
	}
	if cfg.MaxDelta <= 0 {
		cfg.MaxDelta = DefaultMaxDelta
	}
	if cfg.Follow <= 0 {
		cfg.Follow = scene.DefaultFollow
	}

	d := &Driver{
		cfg:       cfg,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		input:     opts.Input,
		settings:  opts.Settings,
		sink:      opts.Sink,
		session:   opts.Session,
		debouncer: gesture.NewDebouncer(cfg.Debounce),
		resolver:  control.NewResolver(cfg.Resolver),
		smoother:  control.NewSmoother(cfg.Smoother, cfg.Resolver.Rest),
		galaxy:    opts.Galaxy,
		registry:  opts.Registry,
	}
	if d.input == nil {
		d.input = NewLatest[gesture.Frame]()
	}
	if d.settings == nil {
		d.settings = settings.NewLive(settings.Defaults())
	}
	if d.session == "" {
		d.session = uuid.NewString()
	}
	if d.registry == nil {
		d.registry = scene.NewRegistry()
		for _, o := range scene.DefaultObjects() {
			_ = d.registry.Add(o)
		}
	}
	d.grabber = scene.NewGrabber(d.registry, cfg.Follow)
	d.state.Targets = d.resolver.Targets()
	d.state.Pose = d.smoother.Pose()
	d.state.Group.TiltX = GroupTilt
	if d.galaxy != nil {
		d.preset = d.galaxy.Physics().Name
	}
	return d
}

// Input is the mailbox the detection pipeline publishes frames into.
func (d *Driver) Input() *Latest[gesture.Frame] { return d.input }

// Session returns the id stamped on every snapshot.
func (d *Driver) Session() string { return d.session }

// Galaxy returns the simulated particle field, or nil.
func (d *Driver) Galaxy() *particles.Field { return d.galaxy }

// Stats returns the running session totals.
func (d *Driver) Stats() SessionStats {
	return SessionStats{
		Frames:   d.frames.Load(),
		Grabs:    d.grabs.Load(),
		Scatters: d.scatters.Load(),
	}
}

// SetViewport updates the projection aspect ratio reported by the renderer.
func (d *Driver) SetViewport(aspect float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.smoother.SetAspect(aspect)
}

// State returns a copy of the control state after the last tick.
func (d *Driver) State() ControlState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Tick advances the simulation to now and returns the resulting snapshot.
// The elapsed time since the previous tick is clamped to MaxDelta; the first
// tick advances by one frame interval.
func (d *Driver) Tick(now time.Time) scene.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	dt := 1 / float64(d.cfg.FPS)
	if !d.last.IsZero() {
		dt = rate.ClampDelta(now.Sub(d.last), d.cfg.MaxDelta)
	}
	d.last = now

	if f, ok := d.input.TryReceive(); ok {
		d.state.Input = f
	}
	prefs := d.settings.Load()
	d.applyPreset(prefs.Preset)

	var hands []gesture.HandSummary
	if prefs.Enabled {
		hands = d.state.Input.Hands
	}

	u := d.debouncer.Step(hands, dt)
	d.state.Update = u
	if u.Scattered {
		d.scatters.Add(1)
		d.metrics.scatter()
		d.log.Debug().Msg("Scatter triggered")
	}

	d.state.Targets = d.resolver.Resolve(hands, u, prefs.Mode, dt)
	pose := d.smoother.Step(d.state.Targets, dt)
	d.state.Pose = pose

	if d.galaxy != nil {
		d.galaxy.Step(u.Levels, dt)
	}
	d.state.Group.SpinY += GroupSpin * dt

	for i := range d.state.slots {
		d.stepSlot(i, hands, pose, prefs.ShowTrails, dt)
	}

	d.frame++
	d.frames.Add(1)
	return d.snapshot(now, prefs, len(hands))
}

func (d *Driver) stepSlot(i int, hands []gesture.HandSummary, pose control.Pose, trails bool, dt float64) {
	s := &d.state.slots[i]
	var hand *gesture.HandSummary
	if i < len(hands) {
		hand = &hands[i]
	}

	if present := hand != nil; present != s.present {
		s.present = present
		d.log.Debug().Int("slot", i).Bool("present", present).Msg("Hand changed")
	}

	ev := d.grabber.Update(i, hand, pose, dt)
	switch ev.Kind {
	case scene.EventGrab:
		d.grabs.Add(1)
		d.metrics.grab(string(ev.Object))
		d.log.Debug().Int("slot", i).Str("object", string(ev.Object)).Msg("Object grabbed")
	case scene.EventRelease:
		d.log.Debug().Int("slot", i).Str("object", string(ev.Object)).Msg("Object released")
	}

	if hand == nil || !trails {
		s.trail.Hide()
		return
	}
	if p, ok := scene.TrailPoint(pose, hand.Palm.X, hand.Palm.Y); ok {
		s.trail.Push(p)
	}
}

func (d *Driver) applyPreset(name string) {
	if d.galaxy == nil || name == "" || name == d.preset {
		return
	}
	p, err := particles.PresetByName(name)
	if err != nil {
		d.log.Warn().Err(err).Str("preset", name).Msg("Ignoring unknown physics preset")
		d.preset = name
		return
	}
	d.galaxy.SetPhysics(p)
	d.preset = name
	d.log.Info().Str("preset", name).Msg("Physics preset changed")
}

func (d *Driver) snapshot(now time.Time, prefs settings.Settings, hands int) scene.Snapshot {
	snap := scene.Snapshot{
		Session:    d.session,
		Frame:      d.frame,
		Time:       now,
		Camera:     d.state.Pose,
		Mode:       prefs.Mode,
		Group:      d.state.Group,
		Objects:    d.registry.Objects(),
		Held:       []scene.ObjectID{},
		Levels:     d.state.Update.Levels,
		Hint:       scene.Hint(hands),
		ShowNebula: prefs.ShowNebula,
	}
	for _, id := range d.grabber.HeldObjects() {
		if id != "" {
			snap.Held = append(snap.Held, id)
		}
	}
	if prefs.ShowTrails {
		for i := range d.state.slots {
			if d.state.slots[i].trail.Len() > 0 {
				snap.Trails = append(snap.Trails, d.state.slots[i].trail.Points())
			}
		}
	}
	if prefs.ShowLandmarks && hands > 0 {
		snap.Hands = d.state.Input.Landmarks
		snap.Bones = detector.Connections
	}
	if d.galaxy != nil {
		snap.Particles = d.galaxy.Positions()
	}
	return snap
}

// Run ticks at the configured rate until ctx is cancelled, handing every
// snapshot to the sink.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.FPS))
	defer ticker.Stop()

	d.log.Info().Int("fps", d.cfg.FPS).Str("session", d.session).Msg("Frame loop started")
	defer d.log.Info().Msg("Frame loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			start := time.Now()
			snap := d.Tick(now)
			if d.sink != nil {
				d.sink.Publish(snap)
			}
			d.metrics.frame(time.Since(start))
		}
	}
}

// HeldPosition returns the position of the object held in slot.
func (d *Driver) HeldPosition(slot int) (mgl64.Vec3, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.grabber.Held(slot)
	if !ok {
		return mgl64.Vec3{}, false
	}
	obj, ok := d.registry.Get(rec.Object)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return obj.Position, true
}
