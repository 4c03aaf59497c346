package particles

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// NebulaConfig shapes the decorative background cloud.
type NebulaConfig struct {
	Count  int
	Radius float64
	Arms   int
	Seed   uint64
}

// DefaultNebulaConfig returns a 3200 particle cloud of radius 180.
func DefaultNebulaConfig() NebulaConfig {
	return NebulaConfig{Count: 3200, Radius: 180, Arms: 4, Seed: 2}
}

// NewNebula generates a loose, dim spiral. It is never stepped.
func NewNebula(cfg NebulaConfig) (*Field, error) {
	if cfg.Count < 0 || cfg.Radius <= 0 || cfg.Arms <= 0 {
		return nil, fmt.Errorf("invalid nebula: count=%d radius=%v arms=%d", cfg.Count, cfg.Radius, cfg.Arms)
	}

	f := newField(cfg.Count, cfg.Seed, Classic())
	rng := rand.New(rand.NewPCG(cfg.Seed, 0x6e65_6275_6c61))
	thickness := cfg.Radius * 0.15

	for i := 0; i < cfg.Count; i++ {
		r := math.Pow(rng.Float64(), 0.8) * cfg.Radius
		arm := rng.IntN(cfg.Arms)
		angle := float64(arm)*2*math.Pi/float64(cfg.Arms) +
			r/cfg.Radius*spiralTightness +
			(rng.Float64()-0.5)*0.6

		x := r*math.Cos(angle) + (rng.Float64()-0.5)*15
		z := r*math.Sin(angle) + (rng.Float64()-0.5)*15
		y := (rng.Float64() - 0.5) * thickness * math.Exp(-r/(cfg.Radius*0.4))
		f.set(i, x, y, z)

		dist := r / cfg.Radius
		cr, cg, cb := hslToRGB(0.7+rng.Float64()*0.2-dist*0.1, 0.5+rng.Float64()*0.3, 0.3+rng.Float64()*0.3)
		f.setColor(i, cr, cg, cb)
		f.sizes[i] = float32(2 + rng.Float64()*3)
	}
	return f, nil
}
