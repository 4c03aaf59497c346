package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/rate"
)

// DefaultFollow is the damping base of a dragged object chasing the hand.
const DefaultFollow = 0.2

// GrabRecord is one hand's hold on an object. The drag plane faces the
// camera as it was at grab time and passes through the object.
type GrabRecord struct {
	Object ObjectID   `json:"object"`
	Offset mgl64.Vec3 `json:"offset"`
	Plane  Plane      `json:"plane"`
}

// EventKind describes what changed for a slot during an update.
type EventKind int

const (
	EventNone EventKind = iota
	EventGrab
	EventRelease
)

func (k EventKind) String() string {
	switch k {
	case EventGrab:
		return "grab"
	case EventRelease:
		return "release"
	}
	return "none"
}

// Event reports a grab or release.
type Event struct {
	Kind   EventKind
	Slot   int
	Object ObjectID
}

// Grabber keeps at most one GrabRecord per hand slot and never lets two
// slots hold the same object.
type Grabber struct {
	reg    *Registry
	follow float64
	slots  [detector.MaxHands]*GrabRecord
}

// NewGrabber creates a Grabber over the registry's objects.
func NewGrabber(reg *Registry, follow float64) *Grabber {
	return &Grabber{reg: reg, follow: follow}
}

// Update advances one slot by dt seconds. A nil hand or a hand that is not
// pinching releases the slot. A pinch over an object grabs it. While held,
// the object eases toward the hand's point on the drag plane plus the offset
// captured at grab time; frames where the ray misses the plane leave it in place.
func (g *Grabber) Update(slot int, hand *gesture.HandSummary, pose control.Pose, dt float64) Event {
	if slot < 0 || slot >= len(g.slots) {
		return Event{Slot: slot}
	}
	if hand == nil || !hand.Pinch {
		return g.Release(slot)
	}

	ray, ok := ScreenRay(pose, hand.Palm.X, hand.Palm.Y)
	if !ok {
		return Event{Slot: slot}
	}

	rec := g.slots[slot]
	if rec == nil {
		return g.grab(slot, ray, pose)
	}

	obj, ok := g.reg.Get(rec.Object)
	if !ok {
		return g.Release(slot)
	}
	point, ok := IntersectPlane(ray, rec.Plane)
	if !ok {
		return Event{Slot: slot}
	}
	target := point.Add(rec.Offset)
	k := rate.Damping(g.follow, dt)
	obj.Position = obj.Position.Add(target.Sub(obj.Position).Mul(k))
	return Event{Slot: slot}
}

func (g *Grabber) grab(slot int, ray Ray, pose control.Pose) Event {
	hit, ok := g.reg.Pick(ray, func(id ObjectID) bool {
		return g.heldByOther(slot, id)
	})
	if !ok {
		return Event{Slot: slot}
	}
	obj, _ := g.reg.Get(hit.Object)

	plane := Plane{Point: obj.Position, Normal: pose.Direction()}
	point, ok := IntersectPlane(ray, plane)
	if !ok {
		return Event{Slot: slot}
	}

	g.slots[slot] = &GrabRecord{
		Object: obj.ID,
		Offset: obj.Position.Sub(point),
		Plane:  plane,
	}
	return Event{Kind: EventGrab, Slot: slot, Object: obj.ID}
}

func (g *Grabber) heldByOther(slot int, id ObjectID) bool {
	for i, rec := range g.slots {
		if i != slot && rec != nil && rec.Object == id {
			return true
		}
	}
	return false
}

// Target returns where the held object is heading for the given ray.
func (g *Grabber) Target(slot int, ray Ray) (mgl64.Vec3, bool) {
	rec, ok := g.Held(slot)
	if !ok {
		return mgl64.Vec3{}, false
	}
	point, ok := IntersectPlane(ray, rec.Plane)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return point.Add(rec.Offset), true
}

// Held returns the slot's grab, if any.
func (g *Grabber) Held(slot int) (GrabRecord, bool) {
	if slot < 0 || slot >= len(g.slots) || g.slots[slot] == nil {
		return GrabRecord{}, false
	}
	return *g.slots[slot], true
}

// HeldObjects returns the object id held by each slot, empty when free.
func (g *Grabber) HeldObjects() [detector.MaxHands]ObjectID {
	var out [detector.MaxHands]ObjectID
	for i, rec := range g.slots {
		if rec != nil {
			out[i] = rec.Object
		}
	}
	return out
}

// Release clears the slot's grab.
func (g *Grabber) Release(slot int) Event {
	if slot < 0 || slot >= len(g.slots) || g.slots[slot] == nil {
		return Event{Slot: slot}
	}
	id := g.slots[slot].Object
	g.slots[slot] = nil
	return Event{Kind: EventRelease, Slot: slot, Object: id}
}

// ReleaseAll clears every slot.
func (g *Grabber) ReleaseAll() {
	for i := range g.slots {
		g.slots[i] = nil
	}
}
