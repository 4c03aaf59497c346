package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

var testTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

const frame = 1.0 / 60

func summary(h detector.HandLandmarks) HandSummary {
	return Summarize(&h)
}

func TestDebouncer_OpenPalmFiresOncePerHold(t *testing.T) {
	d := NewDebouncer(DefaultDebounceConfig())
	closed := summary(detector.FlatHandLandmarks())
	open := summary(detector.OpenPalmLandmarks())

	seq := []HandSummary{closed, open, open, open, closed}
	var scatter []float64
	for i, h := range seq {
		u := d.Step([]HandSummary{h}, frame)
		if u.Scattered != (i == 1) {
			t.Errorf("frame %d: Scattered = %v, want %v", i, u.Scattered, i == 1)
		}
		scatter = append(scatter, u.Levels.Scatter)
	}

	if scatter[1] != 1.0 {
		t.Fatalf("scatter at transition = %v, want 1.0", scatter[1])
	}
	for i := 2; i < len(scatter); i++ {
		if scatter[i] >= scatter[i-1] {
			t.Errorf("frame %d: scatter %v not below previous %v", i, scatter[i], scatter[i-1])
		}
	}
}

func TestDebouncer_ReopenTriggersAgain(t *testing.T) {
	d := NewDebouncer(DefaultDebounceConfig())
	closed := summary(detector.FlatHandLandmarks())
	open := summary(detector.OpenPalmLandmarks())

	d.Step([]HandSummary{open}, frame)
	d.Step([]HandSummary{closed}, frame)
	u := d.Step([]HandSummary{open}, frame)

	if !u.Scattered || u.Levels.Scatter != 1 {
		t.Errorf("reopening should fire again, got scattered=%v level=%v", u.Scattered, u.Levels.Scatter)
	}
}

func TestDebouncer_GravityWhileFist(t *testing.T) {
	d := NewDebouncer(DefaultDebounceConfig())
	fist := summary(detector.FistLandmarks())
	flat := summary(detector.FlatHandLandmarks())

	prev := 0.0
	for i := 0; i < 60; i++ {
		u := d.Step([]HandSummary{fist}, frame)
		if u.Levels.Gravity < prev {
			t.Fatalf("frame %d: gravity decreased from %v to %v while fist held", i, prev, u.Levels.Gravity)
		}
		if u.Levels.Gravity > 1 {
			t.Fatalf("frame %d: gravity %v exceeds 1", i, u.Levels.Gravity)
		}
		prev = u.Levels.Gravity
	}
	if prev != 1 {
		t.Errorf("gravity after one second of fist = %v, want 1", prev)
	}

	for i := 0; i < 120; i++ {
		u := d.Step([]HandSummary{flat}, frame)
		if u.Levels.Gravity >= prev {
			t.Fatalf("frame %d: gravity %v not below previous %v after release", i, u.Levels.Gravity, prev)
		}
		if u.Levels.Gravity < 0 {
			t.Fatalf("frame %d: gravity negative", i)
		}
		prev = u.Levels.Gravity
	}
}

func TestDebouncer_GravityDecaysWithNoHands(t *testing.T) {
	d := NewDebouncer(DefaultDebounceConfig())
	fist := summary(detector.FistLandmarks())
	for i := 0; i < 10; i++ {
		d.Step([]HandSummary{fist}, frame)
	}
	before := d.Levels().Gravity

	u := d.Step(nil, frame)
	if u.Hands != 0 {
		t.Errorf("Hands = %d, want 0", u.Hands)
	}
	if want := before * 0.92; math.Abs(u.Levels.Gravity-want) > epsilon {
		t.Errorf("gravity = %v, want %v", u.Levels.Gravity, want)
	}
}

func TestDebouncer_FrameRateIndependentGravity(t *testing.T) {
	fist := summary(detector.FistLandmarks())

	run := func(hz int) float64 {
		d := NewDebouncer(DefaultDebounceConfig())
		for i := 0; i < hz/5; i++ {
			d.Step([]HandSummary{fist}, 1/float64(hz))
		}
		return d.Levels().Gravity
	}

	a, b := run(30), run(120)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("gravity after 200ms differs by rate: 30Hz=%v 120Hz=%v", a, b)
	}
}

func TestDebouncer_PinchDelta(t *testing.T) {
	d := NewDebouncer(DefaultDebounceConfig())

	u := d.Step([]HandSummary{summary(detector.PinchWithGap(0.04))}, frame)
	if u.HasPinchDelta[0] {
		t.Fatal("first frame of a hand must not produce a pinch delta")
	}

	u = d.Step([]HandSummary{summary(detector.PinchWithGap(0.02))}, frame)
	if !u.HasPinchDelta[0] {
		t.Fatal("expected a pinch delta on the second pinching frame")
	}
	if math.Abs(u.PinchDelta[0]-(-0.02)) > 1e-6 {
		t.Errorf("PinchDelta = %v, want -0.02 (closing pinch)", u.PinchDelta[0])
	}
}

func TestDebouncer_PinchDeltaAfterHandReappears(t *testing.T) {
	d := NewDebouncer(DefaultDebounceConfig())
	pinch := summary(detector.PinchWithGap(0.03))

	d.Step([]HandSummary{pinch}, frame)
	d.Step(nil, frame)
	u := d.Step([]HandSummary{pinch}, frame)

	if u.HasPinchDelta[0] {
		t.Error("a reappearing hand must skip the zoom delta on its first frame")
	}
}

func TestDebouncer_NoDeltaWithoutPinch(t *testing.T) {
	d := NewDebouncer(DefaultDebounceConfig())
	flat := summary(detector.FlatHandLandmarks())

	d.Step([]HandSummary{flat}, frame)
	u := d.Step([]HandSummary{flat}, frame)
	if u.HasPinchDelta[0] {
		t.Error("pinch delta reported for a non-pinching hand")
	}
}

func TestDebouncer_Reset(t *testing.T) {
	d := NewDebouncer(DefaultDebounceConfig())
	d.Step([]HandSummary{summary(detector.OpenPalmLandmarks())}, frame)

	d.Reset()
	if d.Levels() != (Levels{}) {
		t.Errorf("levels after reset = %+v, want zero", d.Levels())
	}
	u := d.Step([]HandSummary{summary(detector.OpenPalmLandmarks())}, frame)
	if !u.Scattered {
		t.Error("open palm after reset should be a fresh edge")
	}
}
