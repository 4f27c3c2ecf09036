// Package animation drives the particle field whose color and drift follow the
// animation estimate.
package animation

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DefaultSeverityScale is the estimate at which severity saturates.
const DefaultSeverityScale = 1000

// Severity normalizes an estimate to [0,1]. Non-finite or negative estimates
// map to 0.
func Severity(est, scale float64) float64 {
	if scale <= 0 {
		scale = DefaultSeverityScale
	}
	if math.IsNaN(est) || est <= 0 {
		return 0
	}
	return math.Min(est/scale, 1)
}

// Palette holds the low and high colors blended by severity.
type Palette struct {
	BackgroundLow  drawing.Color
	BackgroundHigh drawing.Color
	ParticleLow    drawing.Color
	ParticleHigh   drawing.Color
}

// DefaultPalette fades the background from pale pink to red and the particles
// from red to dark red.
func DefaultPalette() Palette {
	return Palette{
		BackgroundLow:  drawing.ColorFromHex("ffdddd"),
		BackgroundHigh: drawing.ColorFromHex("ff0000"),
		ParticleLow:    drawing.ColorFromHex("ff0000"),
		ParticleHigh:   drawing.ColorFromHex("8b0000"),
	}
}

// Background returns the background color at severity s.
func (p Palette) Background(s float64) drawing.Color {
	return Lerp(p.BackgroundLow, p.BackgroundHigh, s)
}

// Particle returns the particle fill at severity s.
func (p Palette) Particle(s float64) drawing.Color {
	return Lerp(p.ParticleLow, p.ParticleHigh, s)
}

// Lerp interpolates each RGB channel linearly. t is clamped to [0,1].
func Lerp(a, b drawing.Color, t float64) drawing.Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: mix(a.A, b.A),
	}
}

// Hex formats a color as #rrggbb.
func Hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
