package scene

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Group is the transform applied to the particle fields. Objects are not
// part of the group: their positions are world coordinates, so a picked
// ray and a dragged position need no group transform.
type Group struct {
	TiltX float64 `json:"tiltX"`
	SpinY float64 `json:"spinY"`
}

// Snapshot is everything the renderer needs to draw one frame. Particle
// positions travel separately as a binary buffer.
type Snapshot struct {
	Session    string                   `json:"session"`
	Frame      uint64                   `json:"frame"`
	Time       time.Time                `json:"time"`
	Camera     control.Pose             `json:"camera"`
	Mode       control.Mode             `json:"mode"`
	Group      Group                    `json:"group"`
	Objects    []Object                 `json:"objects"`
	Held       []ObjectID               `json:"held"`
	Levels     gesture.Levels           `json:"levels"`
	Hint       string                   `json:"hint"`
	Trails     [][]mgl64.Vec3           `json:"trails,omitempty"`
	Hands      []detector.HandLandmarks `json:"hands,omitempty"`
	Bones      [][2]int                 `json:"bones,omitempty"`
	ShowNebula bool                     `json:"showNebula"`
	Particles  []float32                `json:"-"`
}

// Hint is the status line shown over the scene.
func Hint(hands int) string {
	switch {
	case hands <= 0:
		return "Show your hands to control the galaxy"
	case hands == 1:
		return "1 hand detected"
	}
	return fmt.Sprintf("%d hands detected", hands)
}
