// Package particles simulates the galaxy point cloud: a fixed set of stars
// with immutable rest positions, perturbed by scatter and a gravity well and
// always relaxing back home.
package particles

import (
	"fmt"
	"sort"
)

// Physics tunes the field. Drag and Relax are per reference frame at 60 Hz.
type Physics struct {
	Name string `json:"name"`

	// Strength is the gravity constant K in level·K/(r²+Softening).
	Strength  float64 `json:"strength"`
	Softening float64 `json:"softening"`

	// Drag is the fraction of velocity kept per reference frame.
	Drag float64 `json:"drag"`
	// Relax is the fraction of the offset from rest removed per reference frame.
	Relax float64 `json:"relax"`

	// ScatterAmplitude is the full width of the per-axis jitter at level 1.
	ScatterAmplitude float64 `json:"scatterAmplitude"`

	// Threshold is the level below which an effect is skipped.
	Threshold float64 `json:"threshold"`
}

// Classic reproduces the browser galaxy. Its drag, relaxation and scatter
// width are the original per-frame values. The original pull was
// 12·level·r/(r²+20) along the offset vector; as an inverse-square pull
// K/(r²+ε) along the unit vector, K = 12·50 matches it at r = 50 and beyond
// falls off as 1/r² instead of 1/r. ε is raised from 20 to 100, which caps
// the pull at the origin at K/ε = 6 instead of 30.
func Classic() Physics {
	return Physics{
		Name:             "classic",
		Strength:         600,
		Softening:        100,
		Drag:             0.985,
		Relax:            0.002,
		ScatterAmplitude: 0.4,
		Threshold:        0.001,
	}
}

// Soft is a gentler tuning of our own with no counterpart in the browser
// version: weaker and wider pull, stronger drag and a faster return to rest.
func Soft() Physics {
	return Physics{
		Name:             "soft",
		Strength:         400,
		Softening:        150,
		Drag:             0.96,
		Relax:            0.008,
		ScatterAmplitude: 0.4,
		Threshold:        0.001,
	}
}

var presets = map[string]func() Physics{
	"classic": Classic,
	"soft":    Soft,
}

// PresetByName looks up a named tuning.
func PresetByName(name string) (Physics, error) {
	p, ok := presets[name]
	if !ok {
		return Physics{}, fmt.Errorf("unknown physics preset %q", name)
	}
	return p(), nil
}

// PresetNames lists the available tunings in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the tuning keeps the field bounded.
func (p Physics) Validate() error {
	switch {
	case p.Drag < 0 || p.Drag >= 1:
		return fmt.Errorf("drag %v must be in [0,1)", p.Drag)
	case p.Relax <= 0 || p.Relax > 1:
		return fmt.Errorf("relax %v must be in (0,1]", p.Relax)
	case p.Softening <= 0:
		return fmt.Errorf("softening %v must be positive", p.Softening)
	case p.Strength < 0:
		return fmt.Errorf("strength %v must not be negative", p.Strength)
	}
	return nil
}
