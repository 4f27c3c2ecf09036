package animation

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eblviz/pkg/logger"
	"github.com/okian/eblviz/pkg/metrics"
)

// DefaultInterval is one frame at roughly 60 fps.
const DefaultInterval = 16 * time.Millisecond

// FrameParticle is a particle as drawn: position and radius.
type FrameParticle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Frame is a point-in-time picture of the field.
type Frame struct {
	Generation string          `json:"generation"`
	Frame      uint64          `json:"frame"`
	Running    bool            `json:"running"`
	Estimate   float64         `json:"estimate"`
	Severity   float64         `json:"severity"`
	Background string          `json:"background"`
	Fill       string          `json:"fill"`
	Opacity    float64         `json:"opacity"`
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Particles  []FrameParticle `json:"particles"`
}

// Animator owns the particle field and at most one running frame loop.
type Animator struct {
	// loopMu serializes Update and Stop so loops never overlap.
	loopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.RWMutex
	field      *Field
	estimate   float64
	severity   float64
	frames     uint64
	generation string

	particles int
	width     float64
	height    float64
	rng       *rand.Rand
	palette   Palette
	scale     float64
	interval  time.Duration
	logger    logger.Logger
}

// New builds an idle animator. Call Update to start the loop.
func New(opts ...Option) *Animator {
	a := &Animator{
		particles: DefaultParticles,
		width:     DefaultWidth,
		height:    DefaultHeight,
		palette:   DefaultPalette(),
		scale:     DefaultSeverityScale,
		interval:  DefaultInterval,
		logger:    logger.Get().Named("animation"),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.field = NewField(a.particles, a.width, a.height, a.rng)
	metrics.UpdateAnimationParticles(len(a.field.Particles))
	return a
}

// Update applies a new estimate and restarts the frame loop. The previous loop
// is cancelled and has exited before the replacement starts. The loop outlives
// ctx's cancellation; use Stop to end it.
func (a *Animator) Update(ctx context.Context, est float64) string {
	a.loopMu.Lock()
	defer a.loopMu.Unlock()

	a.stopLocked()

	gen := uuid.NewString()
	sev := Severity(est, a.scale)

	a.mu.Lock()
	a.estimate = est
	a.severity = sev
	a.generation = gen
	a.mu.Unlock()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	metrics.UpdateAnimationSeverity(sev)
	metrics.RecordAnimationLoopStarted()
	a.logger.Debug(ctx, "animation loop started",
		logger.String("generation", gen),
		logger.Float64("estimate", est),
		logger.Float64("severity", sev),
	)

	go a.run(loopCtx, done)
	return gen
}

// Stop cancels the running loop, if any, and waits for it to exit.
func (a *Animator) Stop() {
	a.loopMu.Lock()
	defer a.loopMu.Unlock()
	a.stopLocked()
}

func (a *Animator) stopLocked() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil
	metrics.RecordAnimationLoopStopped()
}

// Running reports whether a loop is active.
func (a *Animator) Running() bool {
	a.loopMu.Lock()
	defer a.loopMu.Unlock()
	return a.cancel != nil
}

func (a *Animator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.step()
		}
	}
}

func (a *Animator) step() {
	a.mu.Lock()
	a.field.Step(a.severity)
	a.frames++
	a.mu.Unlock()
	metrics.RecordAnimationFrame()
}

// Snapshot copies the current field into a drawable frame.
func (a *Animator) Snapshot() Frame {
	running := a.Running()

	a.mu.RLock()
	defer a.mu.RUnlock()

	ps := make([]FrameParticle, len(a.field.Particles))
	for i, p := range a.field.Particles {
		ps[i] = FrameParticle{X: p.X, Y: p.Y, R: p.Radius(a.severity)}
	}
	return Frame{
		Generation: a.generation,
		Frame:      a.frames,
		Running:    running,
		Estimate:   a.estimate,
		Severity:   a.severity,
		Background: Hex(a.palette.Background(a.severity)),
		Fill:       Hex(a.palette.Particle(a.severity)),
		Opacity:    Opacity,
		Width:      a.field.Width,
		Height:     a.field.Height,
		Particles:  ps,
	}
}

// Option configures an Animator.
type Option func(*Animator)

// WithInterval sets the frame period.
func WithInterval(d time.Duration) Option {
	return func(a *Animator) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithCanvas sets the particle count and canvas size.
func WithCanvas(particles int, width, height float64) Option {
	return func(a *Animator) {
		if particles >= 0 {
			a.particles = particles
		}
		if width > 0 {
			a.width = width
		}
		if height > 0 {
			a.height = height
		}
	}
}

// WithSeverityScale sets the estimate at which severity reaches 1.
func WithSeverityScale(scale float64) Option {
	return func(a *Animator) {
		if scale > 0 {
			a.scale = scale
		}
	}
}

// WithPalette overrides the color ramps.
func WithPalette(p Palette) Option {
	return func(a *Animator) {
		a.palette = p
	}
}

// WithRand seeds the field from rng.
func WithRand(rng *rand.Rand) Option {
	return func(a *Animator) {
		a.rng = rng
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Animator) {
		if l != nil {
			a.logger = l
		}
	}
}
