package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ayusman/mudra/internal/app"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics are the frame loop and pipeline instruments. They come from the
// global OTel meter and are no-ops unless a provider is installed.
type Metrics struct {
	frameDuration   metric.Float64Histogram
	detectorLatency metric.Float64Histogram
	hands           metric.Int64Counter
	grabs           metric.Int64Counter
	scatters        metric.Int64Counter
}

// NewMetrics creates the instruments.
func NewMetrics() (*Metrics, error) {
	m := meter()
	var (
		mt  Metrics
		err error
	)

	mt.frameDuration, err = m.Float64Histogram(
		"mudra.frame.duration",
		metric.WithDescription("Time spent simulating one frame"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frame duration histogram: %w", err)
	}

	mt.detectorLatency, err = m.Float64Histogram(
		"mudra.detector.latency",
		metric.WithDescription("Hand landmark detection latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating detector latency histogram: %w", err)
	}

	mt.hands, err = m.Int64Counter(
		"mudra.detector.hands",
		metric.WithDescription("Total hands reported by the detector"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hands counter: %w", err)
	}

	mt.grabs, err = m.Int64Counter(
		"mudra.scene.grabs",
		metric.WithDescription("Total objects grabbed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating grab counter: %w", err)
	}

	mt.scatters, err = m.Int64Counter(
		"mudra.gesture.scatters",
		metric.WithDescription("Total open-palm scatter triggers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scatter counter: %w", err)
	}

	return &mt, nil
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (m *Metrics) frame(d time.Duration) {
	if m == nil {
		return
	}
	m.frameDuration.Record(context.Background(), ms(d))
}

func (m *Metrics) detection(d time.Duration, hands int) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.detectorLatency.Record(ctx, ms(d))
	if hands > 0 {
		m.hands.Add(ctx, int64(hands))
	}
}

func (m *Metrics) grab(object string) {
	if m == nil {
		return
	}
	m.grabs.Add(context.Background(), 1, metric.WithAttributes(attribute.String("object", object)))
}

func (m *Metrics) scatter() {
	if m == nil {
		return
	}
	m.scatters.Add(context.Background(), 1)
}
