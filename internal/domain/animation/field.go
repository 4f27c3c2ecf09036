package animation

import (
	"math"
	"math/rand/v2"
)

// Field defaults.
const (
	DefaultParticles = 100
	DefaultWidth     = 800
	DefaultHeight    = 400
	Opacity          = 0.6

	minSize    = 2
	sizeSpread = 5
	minSpeed   = 0.1
	speedRange = 0.5
	// Per-axis displacement is uniform in [-drift/2, drift/2] times severity.
	drift = 1.5
)

// Particle is one simulated blood cell. Speed is carried for rendering only;
// displacement does not depend on it.
type Particle struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Speed float64 `json:"speed"`
}

// Radius is the drawn radius at severity s.
func (p Particle) Radius(s float64) float64 {
	return p.Size * (1 + s)
}

// Field is a fixed set of particles on a toroidal canvas. It is not safe for
// concurrent use.
type Field struct {
	Width     float64
	Height    float64
	Particles []Particle
	rng       *rand.Rand
}

// NewField spawns n particles uniformly over a w x h canvas. A nil rng uses a
// randomly seeded source.
func NewField(n int, w, h float64, rng *rand.Rand) *Field {
	if n < 0 {
		n = 0
	}
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // visual noise only
	}
	f := &Field{Width: w, Height: h, Particles: make([]Particle, n), rng: rng}
	for i := range f.Particles {
		f.Particles[i] = Particle{
			X:     rng.Float64() * w,
			Y:     rng.Float64() * h,
			Size:  rng.Float64()*sizeSpread + minSize,
			Speed: rng.Float64()*speedRange + minSpeed,
		}
	}
	return f
}

// Step moves every particle by an independent random delta scaled by severity
// and wraps positions back onto the canvas.
func (f *Field) Step(severity float64) {
	for i := range f.Particles {
		p := &f.Particles[i]
		p.X = wrap(p.X+(f.rng.Float64()-0.5)*severity*drift, f.Width)
		p.Y = wrap(p.Y+(f.rng.Float64()-0.5)*severity*drift, f.Height)
	}
}

// wrap maps v into [0, size).
func wrap(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	if v >= size {
		v = 0
	}
	return v
}
