package particles

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/rate"
)

// chunkSize is the number of particles one worker advances per step.
const chunkSize = 4096

type chunk struct {
	lo, hi int
	rng    *rand.Rand
}

// Field is a fixed-size particle set. Positions are simulated in float64 and
// mirrored into a float32 buffer that the renderer reads after each Step.
// A Field is owned by the frame loop and not safe for concurrent use.
type Field struct {
	n int

	pos  []float64
	base []float64
	vel  []float64

	out    []float32
	colors []float32
	sizes  []float32

	physics Physics
	chunks  []chunk
}

func newField(n int, seed uint64, physics Physics) *Field {
	f := &Field{
		n:       n,
		pos:     make([]float64, n*3),
		base:    make([]float64, n*3),
		vel:     make([]float64, n*3),
		out:     make([]float32, n*3),
		colors:  make([]float32, n*3),
		sizes:   make([]float32, n),
		physics: physics,
	}
	for lo, c := 0, uint64(0); lo < n; lo, c = lo+chunkSize, c+1 {
		f.chunks = append(f.chunks, chunk{
			lo:  lo,
			hi:  min(lo+chunkSize, n),
			rng: rand.New(rand.NewPCG(seed, c)),
		})
	}
	return f
}

// set places particle i at its rest position.
func (f *Field) set(i int, x, y, z float64) {
	j := i * 3
	f.base[j], f.base[j+1], f.base[j+2] = x, y, z
	f.pos[j], f.pos[j+1], f.pos[j+2] = x, y, z
	f.out[j], f.out[j+1], f.out[j+2] = float32(x), float32(y), float32(z)
}

func (f *Field) setColor(i int, r, g, b float64) {
	j := i * 3
	f.colors[j], f.colors[j+1], f.colors[j+2] = float32(r), float32(g), float32(b)
}

// Len returns the particle count.
func (f *Field) Len() int { return f.n }

// Positions returns the xyz buffer, rewritten in place by every Step.
func (f *Field) Positions() []float32 { return f.out }

// Colors returns the per-particle rgb buffer. It never changes.
func (f *Field) Colors() []float32 { return f.colors }

// Sizes returns the per-particle point size. It never changes.
func (f *Field) Sizes() []float32 { return f.sizes }

// Physics returns the active tuning.
func (f *Field) Physics() Physics { return f.physics }

// SetPhysics swaps the tuning; particles keep their current motion.
func (f *Field) SetPhysics(p Physics) { f.physics = p }

// Reset puts every particle back at rest.
func (f *Field) Reset() {
	copy(f.pos, f.base)
	clear(f.vel)
	for i, v := range f.base {
		f.out[i] = float32(v)
	}
}

// MaxDisplacement returns the largest distance of any particle from its rest position.
func (f *Field) MaxDisplacement() float64 {
	var worst float64
	for j := 0; j < len(f.pos); j += 3 {
		dx := f.pos[j] - f.base[j]
		dy := f.pos[j+1] - f.base[j+1]
		dz := f.pos[j+2] - f.base[j+2]
		worst = max(worst, dx*dx+dy*dy+dz*dz)
	}
	return math.Sqrt(worst)
}

// stepParams are the per-step constants shared by every chunk.
type stepParams struct {
	frames    float64
	scatter   bool
	jitter    float64
	gravity   bool
	pull      float64
	softening float64
	dt        float64
	drag      float64
	relax     float64
}

// Step advances the field by dt seconds. Scatter jitters positions while its
// level is above the threshold, gravity pulls toward the origin while its
// level is above the threshold, and velocity drag and relaxation toward rest
// run on every step.
func (f *Field) Step(levels gesture.Levels, dt float64) {
	if dt <= 0 || f.n == 0 {
		return
	}
	p := f.physics
	frames := rate.Frames(dt)
	params := stepParams{
		frames:  frames,
		scatter: levels.Scatter > p.Threshold,
		// Uniform jitter variance scales with elapsed frames so the random
		// walk spreads at the same speed at any frame rate.
		jitter:    p.ScatterAmplitude * levels.Scatter * math.Sqrt(frames),
		gravity:   levels.Gravity > p.Threshold,
		pull:      levels.Gravity * p.Strength,
		softening: p.Softening,
		dt:        dt,
		drag:      rate.Decay(p.Drag, dt),
		relax:     rate.Damping(1-p.Relax, dt),
	}

	if len(f.chunks) == 1 {
		f.stepChunk(f.chunks[0], params)
		return
	}

	var wg sync.WaitGroup
	for _, c := range f.chunks {
		wg.Add(1)
		go func(c chunk) {
			defer wg.Done()
			f.stepChunk(c, params)
		}(c)
	}
	wg.Wait()
}

func (f *Field) stepChunk(c chunk, p stepParams) {
	for i := c.lo; i < c.hi; i++ {
		j := i * 3
		x, y, z := f.pos[j], f.pos[j+1], f.pos[j+2]
		vx, vy, vz := f.vel[j], f.vel[j+1], f.vel[j+2]

		if p.scatter {
			x += (c.rng.Float64() - 0.5) * p.jitter
			y += (c.rng.Float64() - 0.5) * p.jitter
			z += (c.rng.Float64() - 0.5) * p.jitter
		}

		if p.gravity {
			d2 := x*x + y*y + z*z
			if d := math.Sqrt(d2); d > 0 {
				a := p.pull / (d2 + p.softening) / d * p.dt
				vx -= x * a
				vy -= y * a
				vz -= z * a
			}
		}

		vx *= p.drag
		vy *= p.drag
		vz *= p.drag

		x += vx * p.frames
		y += vy * p.frames
		z += vz * p.frames

		x += (f.base[j] - x) * p.relax
		y += (f.base[j+1] - y) * p.relax
		z += (f.base[j+2] - z) * p.relax

		f.pos[j], f.pos[j+1], f.pos[j+2] = x, y, z
		f.vel[j], f.vel[j+1], f.vel[j+2] = vx, vy, vz
		f.out[j], f.out[j+1], f.out[j+2] = float32(x), float32(y), float32(z)
	}
}
