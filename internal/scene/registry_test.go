package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRegistry_Add(t *testing.T) {
	r := NewRegistry()
	for _, o := range DefaultObjects() {
		if err := r.Add(o); err != nil {
			t.Fatalf("Add(%s): %v", o.ID, err)
		}
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}

	err := r.Add(Object{ID: "earth"})
	if !errors.Is(err, ErrDuplicateObject) {
		t.Errorf("duplicate add error = %v, want ErrDuplicateObject", err)
	}
	if err := r.Add(Object{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestDefaultObjects(t *testing.T) {
	objs := DefaultObjects()
	if len(objs) != 4 {
		t.Fatalf("got %d objects, want 4", len(objs))
	}
	jupiter := objs[2]
	if jupiter.ID != "jupiter" || math.Abs(jupiter.Radius-7.6) > 1e-9 || jupiter.Position != (mgl64.Vec3{54, 4, -8}) {
		t.Errorf("jupiter = %+v", jupiter)
	}
	if len(objs[0].Parts) != 1 || objs[0].Parts[0].Name != "moon" {
		t.Errorf("earth parts = %+v, want a moon", objs[0].Parts)
	}
}

func TestRegistry_PickNearest(t *testing.T) {
	r := NewRegistry()
	r.Add(Object{ID: "far", Position: mgl64.Vec3{-20, 0, 0}, Radius: 3, Grabbable: true})
	r.Add(Object{ID: "near", Position: mgl64.Vec3{20, 0, 0}, Radius: 3, Grabbable: true})

	ray := Ray{Origin: mgl64.Vec3{100, 0, 0}, Direction: mgl64.Vec3{-1, 0, 0}}
	hit, ok := r.Pick(ray, nil)
	if !ok || hit.Object != "near" {
		t.Fatalf("Pick = %+v, %v; want near", hit, ok)
	}
	if !near(hit.Point, mgl64.Vec3{23, 0, 0}, 1e-9) {
		t.Errorf("hit point = %v", hit.Point)
	}

	hit, ok = r.Pick(ray, func(id ObjectID) bool { return id == "near" })
	if !ok || hit.Object != "far" {
		t.Errorf("Pick excluding near = %+v, %v; want far", hit, ok)
	}
}

func TestRegistry_PartResolvesToOwner(t *testing.T) {
	r := NewRegistry()
	r.Add(Object{
		ID:        "earth",
		Radius:    4,
		Grabbable: true,
		Parts:     []Part{{Name: "moon", Offset: mgl64.Vec3{0, 0, -20}, Radius: 1}},
	})

	ray := Ray{Origin: mgl64.Vec3{100, 0, -20}, Direction: mgl64.Vec3{-1, 0, 0}}
	hit, ok := r.Pick(ray, nil)
	if !ok {
		t.Fatal("expected the moon to be hit")
	}
	if hit.Object != "earth" || hit.Part != "moon" {
		t.Errorf("hit = %+v, want earth via moon", hit)
	}

	// Parts follow their owner.
	r.SetPosition("earth", mgl64.Vec3{0, 50, 0})
	if _, ok := r.Pick(ray, nil); ok {
		t.Error("moon should have moved with earth")
	}
}

func TestRegistry_SkipsNonGrabbable(t *testing.T) {
	r := NewRegistry()
	r.Add(Object{ID: "sun", Radius: 10})

	ray := Ray{Origin: mgl64.Vec3{100, 0, 0}, Direction: mgl64.Vec3{-1, 0, 0}}
	if hit, ok := r.Pick(ray, nil); ok {
		t.Errorf("picked non-grabbable %+v", hit)
	}
}

func TestRegistry_ObjectsAreCopies(t *testing.T) {
	r := NewRegistry()
	r.Add(Object{ID: "a", Grabbable: true})

	objs := r.Objects()
	objs[0].Position = mgl64.Vec3{1, 2, 3}

	o, _ := r.Get("a")
	if o.Position != (mgl64.Vec3{}) {
		t.Error("mutating Objects() leaked into the registry")
	}
}
