package render

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/eblviz/internal/domain/animation"
)

// FrameSVG writes an animation frame as an SVG document to w: the background
// colored by severity and one circle per particle.
func FrameSVG(w io.Writer, f animation.Frame) error {
	width, height := f.Width, f.Height
	if width <= 0 {
		width = animation.DefaultWidth
	}
	if height <= 0 {
		height = animation.DefaultHeight
	}

	r, err := chart.SVG(px(width), px(height))
	if err != nil {
		return fmt.Errorf("render: svg: %w", err)
	}

	palette := animation.DefaultPalette()
	opacity := f.Opacity
	if opacity <= 0 {
		opacity = animation.Opacity
	}

	r.ResetStyle()
	r.SetFillColor(color(f.Background, palette.BackgroundLow))
	rect(r, 0, 0, width, height)
	r.Fill()

	fill := color(f.Fill, palette.ParticleLow).WithAlpha(alpha(opacity))
	for _, p := range f.Particles {
		rad, ok := radius(p.R)
		if !ok {
			continue
		}
		r.ResetStyle()
		r.SetFillColor(fill)
		r.Circle(rad, px(p.X), px(p.Y))
	}

	if err := r.Save(w); err != nil {
		return fmt.Errorf("render: save: %w", err)
	}
	return nil
}

// radius rounds r to whole pixels, since the SVG renderer truncates radii to
// integers. Positive radii below half a pixel are drawn at 1px; non-positive
// and NaN radii are not drawn.
func radius(r float64) (float64, bool) {
	if !(r > 0) {
		return 0, false
	}
	return math.Max(1, math.Round(r)), true
}

// color parses a #rrggbb string, falling back to def when it is malformed.
func color(hex string, def drawing.Color) drawing.Color {
	if len(hex) != 7 || hex[0] != '#' {
		return def
	}
	return drawing.ColorFromHex(hex)
}
