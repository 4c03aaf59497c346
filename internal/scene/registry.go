package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDuplicateObject is returned when an object id is registered twice.
var ErrDuplicateObject = errors.New("duplicate object id")

// ObjectID identifies an interactive object.
type ObjectID string

// Part is a hit-testable sphere attached to an object at a fixed offset.
// Hitting a part picks the object that owns it.
type Part struct {
	Name   string     `json:"name"`
	Offset mgl64.Vec3 `json:"offset"`
	Radius float64    `json:"radius"`
}

// Object is an interactive body. Its own sphere is centered on Position.
type Object struct {
	ID        ObjectID   `json:"id"`
	Name      string     `json:"name"`
	Texture   string     `json:"texture"`
	Position  mgl64.Vec3 `json:"position"`
	Radius    float64    `json:"radius"`
	Grabbable bool       `json:"grabbable"`
	Parts     []Part     `json:"parts,omitempty"`
}

// primitive is one sphere in the flat hit-test table.
type primitive struct {
	owner  ObjectID
	part   string
	offset mgl64.Vec3
	radius float64
}

// Hit is the result of a successful pick.
type Hit struct {
	Object   ObjectID
	Part     string
	Distance float64
	Point    mgl64.Vec3
}

// Registry owns the interactive objects for a session and maps every
// hit-testable primitive to the object that owns it.
// It is owned by the frame loop and not safe for concurrent use.
type Registry struct {
	objects []*Object
	byID    map[ObjectID]*Object
	prims   []primitive
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[ObjectID]*Object)}
}

// Add registers an object and its parts.
func (r *Registry) Add(o Object) error {
	if o.ID == "" {
		return errors.New("object id is required")
	}
	if _, ok := r.byID[o.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateObject, o.ID)
	}

	obj := o
	obj.Parts = append([]Part(nil), o.Parts...)
	r.objects = append(r.objects, &obj)
	r.byID[obj.ID] = &obj

	r.prims = append(r.prims, primitive{owner: obj.ID, radius: obj.Radius})
	for _, p := range obj.Parts {
		r.prims = append(r.prims, primitive{owner: obj.ID, part: p.Name, offset: p.Offset, radius: p.Radius})
	}
	return nil
}

// Get returns the object with the given id.
func (r *Registry) Get(id ObjectID) (*Object, bool) {
	o, ok := r.byID[id]
	return o, ok
}

// Len returns the number of objects.
func (r *Registry) Len() int { return len(r.objects) }

// Objects returns a copy of every object in registration order.
func (r *Registry) Objects() []Object {
	out := make([]Object, len(r.objects))
	for i, o := range r.objects {
		out[i] = *o
		out[i].Parts = append([]Part(nil), o.Parts...)
	}
	return out
}

// SetPosition moves an object; its parts follow.
func (r *Registry) SetPosition(id ObjectID, p mgl64.Vec3) bool {
	o, ok := r.byID[id]
	if ok {
		o.Position = p
	}
	return ok
}

// Pick returns the nearest grabbable object hit by the ray. Objects for which
// exclude returns true are transparent to the ray.
func (r *Registry) Pick(ray Ray, exclude func(ObjectID) bool) (Hit, bool) {
	var best Hit
	found := false
	for _, p := range r.prims {
		o := r.byID[p.owner]
		if !o.Grabbable || (exclude != nil && exclude(p.owner)) {
			continue
		}
		t, ok := IntersectSphere(ray, o.Position.Add(p.offset), p.radius)
		if !ok || (found && t >= best.Distance) {
			continue
		}
		best = Hit{Object: p.owner, Part: p.part, Distance: t, Point: ray.At(t)}
		found = true
	}
	return best, found
}

// DefaultObjects returns the four planets placed around the galaxy. Earth
// carries its moon as a part.
func DefaultObjects() []Object {
	names := []string{"earth", "mars", "jupiter", "venus"}
	objects := make([]Object, len(names))
	for i, name := range names {
		fi := float64(i)
		objects[i] = Object{
			ID:        ObjectID(name),
			Name:      name,
			Texture:   name + ".jpg",
			Position:  mgl64.Vec3{30 + fi*12, -10 + fi*7, -20 + fi*6},
			Radius:    4 + fi*1.8,
			Grabbable: true,
		}
	}
	objects[0].Parts = []Part{{Name: "moon", Offset: mgl64.Vec3{7, 1.5, 0}, Radius: 1.1}}
	return objects
}
