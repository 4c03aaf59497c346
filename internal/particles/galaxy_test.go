package particles

import (
	"math"
	"testing"
)

func TestNewGalaxy_Shape(t *testing.T) {
	cfg := DefaultGalaxyConfig()
	f, err := NewGalaxy(cfg)
	if err != nil {
		t.Fatalf("NewGalaxy: %v", err)
	}
	if f.Len() != cfg.Count {
		t.Fatalf("Len() = %d, want %d", f.Len(), cfg.Count)
	}
	if len(f.Positions()) != cfg.Count*3 || len(f.Colors()) != cfg.Count*3 || len(f.Sizes()) != cfg.Count {
		t.Fatal("buffer lengths do not match the particle count")
	}

	core := 0
	pos := f.Positions()
	for i := 0; i < f.Len(); i++ {
		x, y, z := float64(pos[i*3]), float64(pos[i*3+1]), float64(pos[i*3+2])
		if planar := math.Hypot(x, z); planar > cfg.Radius+1e-3 {
			t.Fatalf("star %d at planar radius %v beyond %v", i, planar, cfg.Radius)
		}
		if math.Abs(y) > cfg.Radius*coreScale {
			t.Fatalf("star %d height %v above the core", i, y)
		}
		if math.Sqrt(x*x+y*y+z*z) <= cfg.Radius*coreScale {
			core++
		}
	}

	// Arms start at the core radius, so roughly a fifth of stars sit inside it.
	if frac := float64(core) / float64(f.Len()); frac < 0.15 || frac > 0.25 {
		t.Errorf("core fraction = %v, want about %v", frac, coreFraction)
	}

	for i, c := range f.Colors() {
		if c < 0 || c > 1 {
			t.Fatalf("color component %d = %v out of range", i, c)
		}
	}
	for i, s := range f.Sizes() {
		if s < float32(cfg.StarSize*0.5) || s > float32(cfg.StarSize*2*1.4) {
			t.Fatalf("size %d = %v out of range", i, s)
		}
	}
}

func TestNewGalaxy_Seeded(t *testing.T) {
	cfg := DefaultGalaxyConfig()
	cfg.Count = 1000

	a, _ := NewGalaxy(cfg)
	b, _ := NewGalaxy(cfg)
	cfg.Seed++
	c, _ := NewGalaxy(cfg)

	same, differs := true, false
	for i := range a.Positions() {
		if a.Positions()[i] != b.Positions()[i] {
			same = false
		}
		if a.Positions()[i] != c.Positions()[i] {
			differs = true
		}
	}
	if !same {
		t.Error("same seed produced different galaxies")
	}
	if !differs {
		t.Error("different seeds produced identical galaxies")
	}
}

func TestNewGalaxy_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GalaxyConfig)
	}{
		{"negative count", func(c *GalaxyConfig) { c.Count = -1 }},
		{"zero radius", func(c *GalaxyConfig) { c.Radius = 0 }},
		{"no arms", func(c *GalaxyConfig) { c.Arms = 0 }},
		{"drag of one", func(c *GalaxyConfig) { c.Physics.Drag = 1 }},
		{"no relaxation", func(c *GalaxyConfig) { c.Physics.Relax = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGalaxyConfig()
			tt.mutate(&cfg)
			if _, err := NewGalaxy(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewNebula(t *testing.T) {
	cfg := DefaultNebulaConfig()
	f, err := NewNebula(cfg)
	if err != nil {
		t.Fatalf("NewNebula: %v", err)
	}
	if f.Len() != 3200 {
		t.Errorf("Len() = %d, want 3200", f.Len())
	}
	for i, s := range f.Sizes() {
		if s < 2 || s > 5 {
			t.Fatalf("size %d = %v, want [2,5]", i, s)
		}
	}
}

func TestPresetByName(t *testing.T) {
	for _, name := range PresetNames() {
		p, err := PresetByName(name)
		if err != nil {
			t.Fatalf("PresetByName(%q): %v", name, err)
		}
		if p.Name != name {
			t.Errorf("preset name = %q, want %q", p.Name, name)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}

	if _, err := PresetByName("galactic"); err == nil {
		t.Error("expected error for unknown preset")
	}

	classic, soft := Classic(), Soft()
	if soft.Drag >= classic.Drag || soft.Relax <= classic.Relax {
		t.Error("soft should damp harder and relax faster than classic")
	}
}

func TestClassic_MatchesBrowserPull(t *testing.T) {
	p := Classic()
	if p.Drag != 0.985 || p.Relax != 0.002 || p.ScatterAmplitude != 0.4 {
		t.Errorf("classic = %+v, want drag 0.985, relax 0.002, scatter 0.4", p)
	}

	// The browser pull was 12·r/(r²+20); the inverse-square form should
	// agree with it at the matching radius.
	const r = 50.0
	browser := 12 * r / (r*r + 20)
	got := p.Strength / (r*r + p.Softening)
	if math.Abs(got-browser)/browser > 0.05 {
		t.Errorf("pull at r=%v = %v, want within 5%% of %v", r, got, browser)
	}
	if peak := p.Strength / p.Softening; peak > 10 {
		t.Errorf("pull at the origin = %v, want bounded by the softening", peak)
	}
}

func TestHSLToRGB(t *testing.T) {
	tests := []struct {
		h, s, l float64
		r, g, b float64
	}{
		{0, 1, 0.5, 1, 0, 0},
		{1.0 / 3, 1, 0.5, 0, 1, 0},
		{2.0 / 3, 1, 0.5, 0, 0, 1},
		{0.5, 0, 0.3, 0.3, 0.3, 0.3},
		{1, 1, 0.5, 1, 0, 0},
	}

	for _, tt := range tests {
		r, g, b := hslToRGB(tt.h, tt.s, tt.l)
		if math.Abs(r-tt.r) > 1e-9 || math.Abs(g-tt.g) > 1e-9 || math.Abs(b-tt.b) > 1e-9 {
			t.Errorf("hslToRGB(%v,%v,%v) = %v,%v,%v want %v,%v,%v", tt.h, tt.s, tt.l, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}
