package particles

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// GalaxyConfig shapes the spiral galaxy.
type GalaxyConfig struct {
	Count    int
	Radius   float64
	StarSize float64
	Arms     int
	Seed     uint64
	Physics  Physics
}

// DefaultGalaxyConfig returns a 12000 star, four-armed galaxy of radius 220.
func DefaultGalaxyConfig() GalaxyConfig {
	return GalaxyConfig{
		Count:    12000,
		Radius:   220,
		StarSize: 1.2,
		Arms:     4,
		Seed:     1,
		Physics:  Classic(),
	}
}

const (
	coreFraction    = 0.2
	coreScale       = 0.15
	diskScale       = 0.08
	armSpread       = 0.4
	spiralTightness = 3.5
)

// NewGalaxy generates a seeded spiral galaxy: a spherical core holding a
// fifth of the stars and a thin disk wound into spiral arms.
func NewGalaxy(cfg GalaxyConfig) (*Field, error) {
	if cfg.Count < 0 || cfg.Radius <= 0 || cfg.Arms <= 0 {
		return nil, fmt.Errorf("invalid galaxy: count=%d radius=%v arms=%d", cfg.Count, cfg.Radius, cfg.Arms)
	}
	if err := cfg.Physics.Validate(); err != nil {
		return nil, fmt.Errorf("galaxy physics: %w", err)
	}

	f := newField(cfg.Count, cfg.Seed, cfg.Physics)
	rng := rand.New(rand.NewPCG(cfg.Seed, 0x6761_6c61_7879))

	maxR := cfg.Radius
	coreR := maxR * coreScale
	thickness := maxR * diskScale

	for i := 0; i < cfg.Count; i++ {
		var x, y, z float64
		inCore := rng.Float64() < coreFraction

		if inCore {
			r := math.Pow(rng.Float64(), 1.5) * coreR
			theta := rng.Float64() * 2 * math.Pi
			phi := math.Acos(2*rng.Float64() - 1)
			x = r * math.Sin(phi) * math.Cos(theta)
			y = r * math.Cos(phi)
			z = r * math.Sin(phi) * math.Sin(theta)
		} else {
			r := coreR + math.Pow(rng.Float64(), 0.6)*(maxR-coreR)
			arm := rng.IntN(cfg.Arms)
			angle := float64(arm)*2*math.Pi/float64(cfg.Arms) +
				r/maxR*spiralTightness +
				(rng.Float64()-0.5)*armSpread
			x = r * math.Cos(angle)
			z = r * math.Sin(angle)
			y = (rng.Float64() - 0.5) * thickness * math.Exp(-r/(maxR*0.5))
		}
		f.set(i, x, y, z)

		var h, s, l float64
		switch planar := math.Hypot(x, z) / maxR; {
		case inCore:
			h, s, l = 0.1+rng.Float64()*0.05, 0.7+rng.Float64()*0.2, 0.75+rng.Float64()*0.15
		case planar < 0.4:
			h, s, l = 0.15+rng.Float64()*0.1, 0.6+rng.Float64()*0.2, 0.7+rng.Float64()*0.2
		default:
			h, s, l = 0.55+rng.Float64()*0.15, 0.5+rng.Float64()*0.3, 0.75+rng.Float64()*0.2
		}
		cr, cg, cb := hslToRGB(h, s, l)
		f.setColor(i, cr, cg, cb)

		size := cfg.StarSize * (0.5 + rng.Float64()*1.5)
		if inCore {
			size *= 1.4
		}
		f.sizes[i] = float32(size)
	}
	return f, nil
}
