package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if md.threshold != 1.0 {
		t.Errorf("threshold = %f, want 1.0", md.threshold)
	}
	if md.initialized {
		t.Error("motion detector should not be initialized initially")
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame1 := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame2.Close()
	frame1.SetTo(gocv.NewScalar(0, 0, 0, 0))
	frame2.SetTo(gocv.NewScalar(0, 0, 0, 0))

	detected, changePercent := md.Detect(&frame1)
	if detected || changePercent != 0 {
		t.Errorf("first frame = %v, %f; want no motion", detected, changePercent)
	}

	detected, changePercent = md.Detect(&frame2)
	if detected {
		t.Errorf("identical frames should not detect motion, changePercent = %f", changePercent)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	blackFrame := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer blackFrame.Close()
	blackFrame.SetTo(gocv.NewScalar(0, 0, 0, 0))
	whiteFrame := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer whiteFrame.Close()
	whiteFrame.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&blackFrame)
	detected, changePercent := md.Detect(&whiteFrame)
	if !detected {
		t.Errorf("black to white should detect motion, changePercent = %f", changePercent)
	}
	if changePercent < 50.0 {
		t.Errorf("changePercent = %f, expected > 50%% for black to white transition", changePercent)
	}
}

func TestMotionDetector_SyntheticFramesMove(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frames := SyntheticFrames(2, 640, 480)
	defer closeAll(frames)

	md := NewMotionDetector(0.1)
	defer md.Close()

	md.Detect(frames[0])
	if detected, pct := md.Detect(frames[1]); !detected {
		t.Errorf("moving box not detected, changePercent = %f", pct)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	if !md.initialized {
		t.Error("detector should be initialized after first Detect")
	}

	md.Reset()

	if md.initialized {
		t.Error("detector should not be initialized after Reset")
	}
	if !md.prevGray.Empty() {
		t.Error("prevGray should be empty after Reset")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.threshold)
	}

	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.threshold)
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(1.0)

	// Close multiple times should not panic
	md.Close()
	md.Close()
}

func TestCadence(t *testing.T) {
	c := Cadence{IdleFPS: 2, ActiveFPS: 30, IdleTimeout: 3 * time.Second}
	t0 := time.Unix(1000, 0)

	if fps := c.Observe(false, t0); fps != 2 {
		t.Errorf("quiet start = %d fps, want 2", fps)
	}
	if fps := c.Observe(true, t0); fps != 30 {
		t.Errorf("after motion = %d fps, want 30", fps)
	}
	if fps := c.Observe(false, t0.Add(2*time.Second)); fps != 30 {
		t.Errorf("within timeout = %d fps, want 30", fps)
	}
	if fps := c.Observe(false, t0.Add(3*time.Second)); fps != 2 {
		t.Errorf("after timeout = %d fps, want 2", fps)
	}
}

func TestInterval(t *testing.T) {
	if got := Interval(30); got != time.Second/30 {
		t.Errorf("Interval(30) = %v", got)
	}
	if got := Interval(0); got != time.Second {
		t.Errorf("Interval(0) = %v, want 1s", got)
	}
}
