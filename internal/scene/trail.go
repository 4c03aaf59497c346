package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/control"
)

// TrailLength is the number of palm positions a trail remembers.
const TrailLength = 60

// Trail is a ring buffer of recent palm positions in world space.
type Trail struct {
	points [TrailLength]mgl64.Vec3
	next   int
	n      int
}

// Push appends a point, overwriting the oldest once full.
func (t *Trail) Push(p mgl64.Vec3) {
	t.points[t.next] = p
	t.next = (t.next + 1) % TrailLength
	if t.n < TrailLength {
		t.n++
	}
}

// Points returns the stored points from oldest to newest.
func (t *Trail) Points() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, t.n)
	start := (t.next - t.n + TrailLength) % TrailLength
	for i := 0; i < t.n; i++ {
		out = append(out, t.points[(start+i)%TrailLength])
	}
	return out
}

// Len returns the number of stored points.
func (t *Trail) Len() int { return t.n }

// Hide empties the trail so a reappearing hand starts a fresh line.
func (t *Trail) Hide() {
	t.next, t.n = 0, 0
}

// TrailPoint projects a normalized screen point onto the plane through the
// camera's look-at point facing the camera.
func TrailPoint(pose control.Pose, x, y float64) (mgl64.Vec3, bool) {
	ray, ok := ScreenRay(pose, x, y)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return IntersectPlane(ray, Plane{Point: pose.LookAt, Normal: pose.Direction()})
}
