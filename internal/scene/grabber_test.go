package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

const frame = 1.0 / 60

func pinchAt(x, y float64) *gesture.HandSummary {
	return &gesture.HandSummary{Palm: detector.Point3D{X: x, Y: y}, Pinch: true}
}

func singleBody(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.Add(Object{ID: "ball", Radius: 5, Grabbable: true}); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestGrabber_OffsetPreserved(t *testing.T) {
	r := singleBody(t)
	g := NewGrabber(r, DefaultFollow)
	pose := testPose()
	hand := pinchAt(0.52, 0.49)

	ev := g.Update(0, hand, pose, frame)
	if ev.Kind != EventGrab || ev.Object != "ball" {
		t.Fatalf("event = %+v, want grab of ball", ev)
	}

	rec, ok := g.Held(0)
	if !ok {
		t.Fatal("slot 0 should hold the ball")
	}
	if rec.Offset.Len() == 0 {
		t.Fatal("off-center grab should have a non-zero offset")
	}

	ray, _ := ScreenRay(pose, hand.Palm.X, hand.Palm.Y)
	target, ok := g.Target(0, ray)
	if !ok {
		t.Fatal("Target failed")
	}
	if !near(target, mgl64.Vec3{}, 1e-9) {
		t.Errorf("target right after grab = %v, want the grab position", target)
	}

	for i := 0; i < 10; i++ {
		g.Update(0, hand, pose, frame)
	}
	obj, _ := r.Get("ball")
	if !near(obj.Position, mgl64.Vec3{}, 1e-9) {
		t.Errorf("holding still moved the ball to %v", obj.Position)
	}
}

func TestGrabber_DragFollowsHand(t *testing.T) {
	r := singleBody(t)
	g := NewGrabber(r, DefaultFollow)
	pose := testPose()

	g.Update(0, pinchAt(0.5, 0.5), pose, frame)

	moved := pinchAt(0.6, 0.4)
	ray, _ := ScreenRay(pose, 0.6, 0.4)
	want, _ := g.Target(0, ray)

	for i := 0; i < 120; i++ {
		g.Update(0, moved, pose, frame)
	}

	obj, _ := r.Get("ball")
	if !near(obj.Position, want, 1e-6) {
		t.Errorf("ball at %v, want %v", obj.Position, want)
	}
	// The drag plane faces the camera on +X, so the ball stays at x = 0.
	if obj.Position[0] > 1e-9 || obj.Position[0] < -1e-9 {
		t.Errorf("ball left the drag plane: %v", obj.Position)
	}
	if obj.Position[1] <= 0 {
		t.Errorf("raising the hand should raise the ball: %v", obj.Position)
	}
}

func TestGrabber_ReleaseWhenPinchEnds(t *testing.T) {
	r := singleBody(t)
	g := NewGrabber(r, DefaultFollow)
	pose := testPose()

	g.Update(0, pinchAt(0.5, 0.5), pose, frame)

	open := &gesture.HandSummary{Palm: detector.Point3D{X: 0.5, Y: 0.5}}
	ev := g.Update(0, open, pose, frame)
	if ev.Kind != EventRelease || ev.Object != "ball" {
		t.Errorf("event = %+v, want release of ball", ev)
	}
	if _, ok := g.Held(0); ok {
		t.Error("slot still holds after release")
	}

	if ev := g.Update(0, open, pose, frame); ev.Kind != EventNone {
		t.Errorf("second release event = %v, want none", ev.Kind)
	}
}

func TestGrabber_ReleaseWhenHandVanishes(t *testing.T) {
	r := singleBody(t)
	g := NewGrabber(r, DefaultFollow)
	pose := testPose()

	g.Update(1, pinchAt(0.5, 0.5), pose, frame)
	if ev := g.Update(1, nil, pose, frame); ev.Kind != EventRelease {
		t.Errorf("event = %v, want release", ev.Kind)
	}
}

func TestGrabber_MutualExclusion(t *testing.T) {
	r := singleBody(t)
	g := NewGrabber(r, DefaultFollow)
	pose := testPose()
	hand := pinchAt(0.5, 0.5)

	if ev := g.Update(0, hand, pose, frame); ev.Kind != EventGrab {
		t.Fatalf("slot 0 event = %v, want grab", ev.Kind)
	}
	if ev := g.Update(1, hand, pose, frame); ev.Kind != EventNone {
		t.Errorf("slot 1 event = %v, want none while slot 0 holds the ball", ev.Kind)
	}
	if _, ok := g.Held(1); ok {
		t.Error("two slots hold the same object")
	}

	held := g.HeldObjects()
	if held[0] != "ball" || held[1] != "" {
		t.Errorf("held = %v", held)
	}

	g.Update(0, nil, pose, frame)
	if ev := g.Update(1, hand, pose, frame); ev.Kind != EventGrab {
		t.Errorf("slot 1 event = %v, want grab after slot 0 let go", ev.Kind)
	}
}

func TestGrabber_ParallelRaySkipsFrame(t *testing.T) {
	r := singleBody(t)
	g := NewGrabber(r, DefaultFollow)
	pose := testPose()

	// A drag plane containing the view axis is edge-on to the center ray.
	g.slots[0] = &GrabRecord{
		Object: "ball",
		Plane:  Plane{Point: mgl64.Vec3{}, Normal: mgl64.Vec3{0, 1, 0}},
	}
	r.SetPosition("ball", mgl64.Vec3{1, 2, 3})

	ev := g.Update(0, pinchAt(0.5, 0.5), pose, frame)

	if ev.Kind != EventNone {
		t.Errorf("event = %v, want none", ev.Kind)
	}
	if _, ok := g.Held(0); !ok {
		t.Error("a missed frame must not release the grab")
	}
	obj, _ := r.Get("ball")
	if obj.Position != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("ball moved to %v on a missed frame", obj.Position)
	}
}

func TestGrabber_MissGrabsNothing(t *testing.T) {
	g := NewGrabber(singleBody(t), DefaultFollow)

	if ev := g.Update(0, pinchAt(0.05, 0.05), testPose(), frame); ev.Kind != EventNone {
		t.Errorf("event = %v, want none for a pinch in empty space", ev.Kind)
	}
}

func TestGrabber_SlotOutOfRange(t *testing.T) {
	g := NewGrabber(singleBody(t), DefaultFollow)
	if ev := g.Update(detector.MaxHands, pinchAt(0.5, 0.5), testPose(), frame); ev.Kind != EventNone {
		t.Errorf("event = %v, want none", ev.Kind)
	}
}
