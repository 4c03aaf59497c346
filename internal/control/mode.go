// Package control maps hand positions to camera targets and smooths the
// camera toward them.
package control

import "fmt"

// Mode selects which camera channels a single hand steers.
type Mode string

const (
	// ModeOrbit rotates the camera around the galaxy.
	ModeOrbit Mode = "orbit"
	// ModePan slides the camera parallel to the screen.
	ModePan Mode = "pan"
	// ModeHybrid orbits and pans at once.
	ModeHybrid Mode = "hybrid"
)

// Modes lists every interaction mode in menu order.
var Modes = []Mode{ModeOrbit, ModePan, ModeHybrid}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeOrbit, ModePan, ModeHybrid:
		return m, nil
	}
	return "", fmt.Errorf("unknown interaction mode %q", s)
}

// Orbits reports whether the mode drives the orbit channel.
func (m Mode) Orbits() bool { return m == ModeOrbit || m == ModeHybrid }

// Pans reports whether the mode drives the pan channel.
func (m Mode) Pans() bool { return m == ModePan || m == ModeHybrid }
