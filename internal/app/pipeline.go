package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Pipeline reads camera frames, gates detection on motion and publishes
// summarized hands into the driver's mailbox.
//
// Pipeline logic:
// 1. Start at the idle rate
// 2. Motion or visible hands switch to the active rate
// 3. Run hand detection only while active
// 4. Publish every detection result, including empty ones
// 5. After the idle timeout with neither, drop back to the idle rate
type Pipeline struct {
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	preview  *capture.Preview
	out      *Latest[gesture.Frame]
	cadence  capture.Cadence
	enabled  func() bool
	metrics  *Metrics
	log      zerolog.Logger

	seq       uint64
	sawHands  bool
	published bool
	lastEmpty bool
}

// PipelineOptions wires a Pipeline.
type PipelineOptions struct {
	Camera   capture.Camera
	Motion   *capture.MotionDetector
	Detector detector.Detector
	Preview  *capture.Preview
	Out      *Latest[gesture.Frame]
	Cadence  capture.Cadence
	Enabled  func() bool
	Metrics  *Metrics
	Logger   zerolog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		camera:   opts.Camera,
		motion:   opts.Motion,
		detector: opts.Detector,
		preview:  opts.Preview,
		out:      opts.Out,
		cadence:  opts.Cadence,
		enabled:  opts.Enabled,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}
	if p.enabled == nil {
		p.enabled = func() bool { return true }
	}
	return p
}

// Process handles one camera frame and returns the rate the camera should
// run at next. The frame stays owned by the caller.
func (p *Pipeline) Process(frame *gocv.Mat, now time.Time) int {
	if p.preview != nil {
		if err := p.preview.Offer(frame); err != nil {
			p.log.Warn().Err(err).Msg("Preview encoding failed")
		}
	}

	if !p.enabled() {
		p.publish(now, nil)
		return p.cadence.IdleFPS
	}

	moving := false
	if p.motion != nil {
		moving, _ = p.motion.Detect(frame)
	}
	fps := p.cadence.Observe(moving || p.sawHands, now)
	if !p.cadence.Active(now) || p.detector == nil {
		return fps
	}

	start := time.Now()
	hands, err := p.detector.Detect(frame)
	if err != nil {
		p.log.Warn().Err(err).Msg("Hand detection failed")
		return fps
	}
	p.metrics.detection(time.Since(start), len(hands))
	p.publish(now, hands)
	p.sawHands = len(hands) > 0
	return fps
}

// publish sends a frame to the driver. Consecutive empty frames are sent once.
func (p *Pipeline) publish(now time.Time, hands []detector.HandLandmarks) {
	empty := len(hands) == 0
	if empty && p.published && p.lastEmpty {
		return
	}
	p.seq++
	p.out.Publish(gesture.NewFrame(p.seq, now, hands))
	p.published = true
	p.lastEmpty = empty
}

// Run reads frames until ctx is cancelled, retuning the camera and its own
// pace whenever the cadence changes.
func (p *Pipeline) Run(ctx context.Context) error {
	fps := p.cadence.IdleFPS
	p.camera.SetFPS(fps)
	ticker := time.NewTicker(capture.Interval(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			frame, err := p.camera.ReadFrame()
			if err != nil {
				p.log.Warn().Err(err).Msg("Error reading frame")
				continue
			}
			next := p.Process(frame, now)
			frame.Close()

			if next != fps {
				p.log.Debug().Int("from", fps).Int("to", next).Msg("Detection rate changed")
				fps = next
				p.camera.SetFPS(fps)
				ticker.Reset(capture.Interval(fps))
			}
		}
	}
}
