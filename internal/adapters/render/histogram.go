// Package render paints histogram layouts and animation frames as SVG.
package render

import (
	"fmt"
	"html"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/eblviz/internal/domain/histogram"
)

// Histogram styling.
var (
	BarColor    = drawing.ColorFromHex("4682b4").WithAlpha(alpha(0.7))
	MarkerColor = drawing.ColorRed
	AxisColor   = chart.DefaultAxisColor
	TextColor   = chart.DefaultTextColor
	MarkerDash  = []float64{4, 4}
)

const (
	fontSize     = 8
	titleSize    = 9
	tickLength   = 6
	markerStroke = 2
	xTitleOffset = 35
	yTitleOffset = 45
	tickLabelGap = 9
)

// HistogramSVG writes the layout as an SVG document to w.
func HistogramSVG(w io.Writer, l histogram.Layout) error {
	r, err := chart.SVG(px(l.Width), px(l.Height))
	if err != nil {
		return fmt.Errorf("render: svg: %w", err)
	}

	for _, b := range l.Bars {
		if b.Height <= 0 {
			continue
		}
		r.ResetStyle()
		r.SetFillColor(BarColor)
		rect(r, b.X, b.Y, b.Width, b.Height)
		r.Fill()
	}

	drawXAxis(r, l)
	drawYAxis(r, l)

	if m := l.Marker; m != nil {
		r.ResetStyle()
		r.SetStrokeColor(MarkerColor)
		r.SetStrokeWidth(markerStroke)
		r.SetStrokeDashArray(MarkerDash)
		r.MoveTo(px(m.X), px(m.Y1))
		r.LineTo(px(m.X), px(m.Y2))
		r.Stroke()

		r.ResetStyle()
		r.SetFontColor(MarkerColor)
		r.SetFontSize(fontSize)
		r.Text(html.EscapeString(m.Label), px(m.LabelX), px(m.LabelY))
	}

	if err := r.Save(w); err != nil {
		return fmt.Errorf("render: save: %w", err)
	}
	return nil
}

func drawXAxis(r chart.Renderer, l histogram.Layout) {
	y := l.Height - l.Margin.Bottom
	line(r, l.Margin.Left, y, l.Width-l.Margin.Right, y)
	for _, t := range l.XTicks {
		line(r, t.Pos, y, t.Pos, y+tickLength)
		text(r, t.Label, t.Pos, y+tickLength+tickLabelGap, fontSize)
	}
	text(r, l.XTitle, l.Margin.Left+(l.Width-l.Margin.Left-l.Margin.Right)/2, y+xTitleOffset, titleSize)
}

func drawYAxis(r chart.Renderer, l histogram.Layout) {
	x := l.Margin.Left
	line(r, x, l.Margin.Top, x, l.Height-l.Margin.Bottom)
	for _, t := range l.YTicks {
		line(r, x-tickLength, t.Pos, x, t.Pos)
		text(r, t.Label, x-tickLength-tickLabelGap*2, t.Pos, fontSize)
	}
	r.SetTextRotation(-math.Pi / 2)
	text(r, l.YTitle, x-yTitleOffset, l.Margin.Top+(l.Height-l.Margin.Top-l.Margin.Bottom)/2, titleSize)
	r.ClearTextRotation()
}

func line(r chart.Renderer, x1, y1, x2, y2 float64) {
	r.ResetStyle()
	r.SetStrokeColor(AxisColor)
	r.SetStrokeWidth(1)
	r.MoveTo(px(x1), px(y1))
	r.LineTo(px(x2), px(y2))
	r.Stroke()
}

func text(r chart.Renderer, body string, x, y, size float64) {
	r.ResetStyle()
	r.SetFontColor(TextColor)
	r.SetFontSize(size)
	r.Text(html.EscapeString(body), px(x), px(y))
}

func rect(r chart.Renderer, x, y, w, h float64) {
	r.MoveTo(px(x), px(y))
	r.LineTo(px(x+w), px(y))
	r.LineTo(px(x+w), px(y+h))
	r.LineTo(px(x), px(y+h))
	r.Close()
}

func px(v float64) int {
	return int(math.Round(v))
}

func alpha(opacity float64) uint8 {
	return uint8(math.Round(opacity * 255))
}
