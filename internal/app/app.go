// Package app wires the detection pipeline and the frame loop into the
// running application.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/particles"
	"github.com/ayusman/mudra/internal/settings"
	"github.com/ayusman/mudra/internal/store"
)

// Options holds the collaborators of an App. Camera and Detector are built
// from Config when nil.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Settings *settings.Live
	Camera   capture.Camera
	Detector detector.Detector
	Sink     Sink
	Logger   zerolog.Logger
}

// App is the running application: a detection pipeline feeding a frame loop.
type App struct {
	cfg      *config.Config
	store    *store.Store
	settings *settings.Live
	log      zerolog.Logger

	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	preview  *capture.Preview
	metrics  *Metrics
	driver   *Driver
	pipeline *Pipeline
	nebula   *particles.Field

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	session *store.Session
}

// New builds the particle fields, camera, detector and loops.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("app: missing configuration")
	}
	log := opts.Logger
	live := opts.Settings
	if live == nil {
		live = settings.NewLive(settings.Defaults())
	}

	physics, err := particles.PresetByName(live.Load().Preset)
	if err != nil {
		return nil, err
	}
	galaxy, err := particles.NewGalaxy(particles.GalaxyConfig{
		Count:    cfg.Particles.Count,
		Radius:   cfg.Particles.Radius,
		StarSize: particles.DefaultGalaxyConfig().StarSize,
		Arms:     particles.DefaultGalaxyConfig().Arms,
		Seed:     cfg.Particles.Seed,
		Physics:  physics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate galaxy: %w", err)
	}
	nebula, err := particles.NewNebula(particles.NebulaConfig{
		Count:  cfg.Nebula.Count,
		Radius: cfg.Nebula.Radius,
		Arms:   particles.DefaultNebulaConfig().Arms,
		Seed:   cfg.Particles.Seed + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate nebula: %w", err)
	}

	metrics, err := NewMetrics()
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		store:    opts.Store,
		settings: live,
		log:      log,
		camera:   opts.Camera,
		motion:   capture.NewMotionDetector(cfg.Pipeline.MotionThreshold),
		detector: opts.Detector,
		preview:  capture.NewPreview(),
		metrics:  metrics,
		nebula:   nebula,
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.Config{
			Device: cfg.Camera.Device,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
			FPS:    cfg.Pipeline.IdleFPS,
			Mirror: true,
		})
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		dcfg := detector.DefaultConfig()
		dcfg.MaxHands = cfg.Detector.MaxHands
		dcfg.MinConfidence = cfg.Detector.MinConfidence
		dcfg.MinTrackingConf = cfg.Detector.MinTracking
		if mp, err := detector.NewMediaPipeDetector(dcfg, log); err == nil {
			a.detector = mp
			log.Info().Msg("Using MediaPipe hand detection")
		} else {
			log.Warn().Err(err).Msg("MediaPipe not available, using mock detector")
			a.detector = detector.NewMockDetector()
		}
	}

	dcfg := DefaultDriverConfig()
	dcfg.FPS = cfg.Render.FPS
	dcfg.MaxDelta = cfg.Render.MaxDelta
	a.driver = NewDriver(DriverOptions{
		Config:   dcfg,
		Galaxy:   galaxy,
		Settings: live,
		Sink:     opts.Sink,
		Metrics:  metrics,
		Logger:   logging.Component(log, "driver"),
	})

	a.pipeline = NewPipeline(PipelineOptions{
		Camera:   a.camera,
		Motion:   a.motion,
		Detector: a.detector,
		Preview:  a.preview,
		Out:      a.driver.Input(),
		Cadence: capture.Cadence{
			IdleFPS:     cfg.Pipeline.IdleFPS,
			ActiveFPS:   cfg.Pipeline.ActiveFPS,
			IdleTimeout: cfg.Pipeline.IdleTimeout,
		},
		Enabled: a.IsEnabled,
		Metrics: metrics,
		Logger:  logging.Component(log, "pipeline"),
	})

	return a, nil
}

// SetEnabled enables or disables hand control.
func (a *App) SetEnabled(enabled bool) error {
	return a.settings.Update(func(s settings.Settings) settings.Settings {
		s.Enabled = enabled
		return s
	})
}

// IsEnabled returns whether hand control is currently enabled.
func (a *App) IsEnabled() bool {
	return a.settings.Load().Enabled
}

// Running reports whether the loops are started.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// Start opens the camera and starts the detection pipeline and frame loop.
// Without a camera the scene still runs, with no hands ever reported.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.store != nil {
		s := &store.Session{ID: a.driver.Session(), StartedAt: time.Now()}
		if err := a.store.Sessions().Create(s); err != nil {
			a.log.Warn().Err(err).Msg("Failed to record session")
		} else {
			a.session = s
		}
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.driver.Run(ctx)
	}()

	if err := a.camera.Open(); err != nil {
		a.log.Error().Err(err).Msg("Camera unavailable, running without hand input")
		return nil
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.pipeline.Run(ctx)
	}()

	a.log.Info().Str("session", a.driver.Session()).Msg("Detection pipeline started")
	return nil
}

// Stop halts both loops and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel == nil {
		return
	}
	a.cancel()
	a.cancel = nil
	a.wg.Wait()

	if err := a.camera.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Error closing camera")
	}
	a.motion.Reset()

	if a.session != nil {
		stats := a.driver.Stats()
		a.session.Frames = stats.Frames
		a.session.Grabs = stats.Grabs
		a.session.Scatters = stats.Scatters
		if err := a.store.Sessions().Finish(a.session); err != nil {
			a.log.Warn().Err(err).Msg("Failed to finish session")
		}
		a.session = nil
	}

	a.log.Info().Msg("Detection pipeline stopped")
}

// Close stops the app and frees native resources. The App cannot be restarted.
func (a *App) Close() error {
	a.Stop()
	a.motion.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			return fmt.Errorf("failed to close detector: %w", err)
		}
	}
	return nil
}

// Driver returns the frame loop.
func (a *App) Driver() *Driver { return a.driver }

// Pipeline returns the detection pipeline.
func (a *App) Pipeline() *Pipeline { return a.pipeline }

// Preview returns the camera preview used by the MJPEG stream.
func (a *App) Preview() *capture.Preview { return a.preview }

// Nebula returns the static decorative field.
func (a *App) Nebula() *particles.Field { return a.nebula }

// Settings returns the live preferences.
func (a *App) Settings() *settings.Live { return a.settings }

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera { return a.camera }

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector { return a.detector }
