package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestTrail_Ring(t *testing.T) {
	var tr Trail
	for i := 0; i < TrailLength+10; i++ {
		tr.Push(mgl64.Vec3{float64(i), 0, 0})
	}

	pts := tr.Points()
	if len(pts) != TrailLength {
		t.Fatalf("len = %d, want %d", len(pts), TrailLength)
	}
	if pts[0][0] != 10 || pts[len(pts)-1][0] != TrailLength+9 {
		t.Errorf("oldest %v newest %v", pts[0], pts[len(pts)-1])
	}
	for i := 1; i < len(pts); i++ {
		if pts[i][0] != pts[i-1][0]+1 {
			t.Fatalf("points out of order at %d: %v", i, pts)
		}
	}
}

func TestTrail_PartialAndHide(t *testing.T) {
	var tr Trail
	tr.Push(mgl64.Vec3{1, 0, 0})
	tr.Push(mgl64.Vec3{2, 0, 0})

	if pts := tr.Points(); len(pts) != 2 || pts[0][0] != 1 {
		t.Errorf("points = %v", pts)
	}

	tr.Hide()
	if tr.Len() != 0 || len(tr.Points()) != 0 {
		t.Error("hide should empty the trail")
	}

	tr.Push(mgl64.Vec3{3, 0, 0})
	if pts := tr.Points(); len(pts) != 1 || pts[0][0] != 3 {
		t.Errorf("points after hide = %v", pts)
	}
}

func TestTrailPoint_CenterIsLookAt(t *testing.T) {
	pose := testPose()

	p, ok := TrailPoint(pose, 0.5, 0.5)
	if !ok {
		t.Fatal("TrailPoint missed")
	}
	if !near(p, pose.LookAt, 1e-9) {
		t.Errorf("point = %v, want %v", p, pose.LookAt)
	}
}

func TestHint(t *testing.T) {
	tests := map[int]string{
		0: "Show your hands to control the galaxy",
		1: "1 hand detected",
		2: "2 hands detected",
	}
	for n, want := range tests {
		if got := Hint(n); got != want {
			t.Errorf("Hint(%d) = %q, want %q", n, got, want)
		}
	}
}
