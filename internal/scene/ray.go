// Package scene holds the interactive objects around the galaxy and the
// ray casting used to pick and drag them with a pinching hand.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/control"
)

// parallelEpsilon is the smallest |n·d| for which a ray is considered to cross a plane.
const parallelEpsilon = 1e-9

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns the point t units along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Plane is the set of points p with Normal·(p-Point) = 0.
type Plane struct {
	Point  mgl64.Vec3 `json:"point"`
	Normal mgl64.Vec3 `json:"normal"`
}

// ScreenRay casts a ray from the camera through the normalized screen point
// (x, y), with (0,0) the top-left and (1,1) the bottom-right corner.
func ScreenRay(pose control.Pose, x, y float64) (Ray, bool) {
	inv := pose.Projection().Mul4(pose.View()).Inv()
	ndc := mgl64.Vec4{x*2 - 1, -(y*2 - 1), 1, 1}

	far := inv.Mul4x1(ndc)
	if math.Abs(far[3]) < parallelEpsilon {
		return Ray{}, false
	}
	dir := far.Vec3().Mul(1 / far[3]).Sub(pose.Position)
	if dir.Len() < parallelEpsilon {
		return Ray{}, false
	}
	return Ray{Origin: pose.Position, Direction: dir.Normalize()}, true
}

// IntersectPlane returns where the ray crosses the plane. It misses when the
// ray is numerically parallel to the plane or the crossing lies behind the origin.
func IntersectPlane(r Ray, p Plane) (mgl64.Vec3, bool) {
	denom := p.Normal.Dot(r.Direction)
	if math.Abs(denom) < parallelEpsilon {
		return mgl64.Vec3{}, false
	}
	t := p.Normal.Dot(p.Point.Sub(r.Origin)) / denom
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return r.At(t), true
}

// IntersectSphere returns the distance along the ray to the first surface
// crossing at or in front of the origin.
func IntersectSphere(r Ray, center mgl64.Vec3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t >= 0 {
		return t, true
	}
	if t := -b + sq; t >= 0 {
		return t, true
	}
	return 0, false
}
