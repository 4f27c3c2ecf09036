package histogram

import (
	"fmt"
	"math"
	"time"
)

// Policy selects how the x-axis domain is derived.
type Policy string

const (
	// PolicyDataset uses [0, max observed value].
	PolicyDataset Policy = "dataset"
	// PolicyFixed uses [0, Options.FixedMax] regardless of the data.
	PolicyFixed Policy = "fixed"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyDataset, PolicyFixed:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Default chart geometry.
const (
	DefaultWidth    = 600
	DefaultHeight   = 400
	DefaultFixedMax = 1500
	maxXTicks       = 10
	yTicks          = 10
	markerLabelDX   = 5
	markerLabelDY   = 10
)

// Margin is the space around the plot area in pixels.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DefaultMargin leaves room for the axes and their titles.
var DefaultMargin = Margin{Top: 20, Right: 20, Bottom: 40, Left: 60}

// Options controls binning and geometry.
type Options struct {
	BinWidth float64
	Policy   Policy
	FixedMax float64
	Width    float64
	Height   float64
	Margin   Margin
}

// DefaultOptions returns the dataset-domain 600x400 chart with 100 mL bins.
func DefaultOptions() Options {
	return Options{
		BinWidth: DefaultBinWidth,
		Policy:   PolicyDataset,
		FixedMax: DefaultFixedMax,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Margin:   DefaultMargin,
	}
}

// Bar is a bin placed in pixel space.
type Bar struct {
	Bin
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Marker is the dashed reference line at the estimate and its label.
type Marker struct {
	Value  float64 `json:"value"`
	X      float64 `json:"x"`
	Y1     float64 `json:"y1"`
	Y2     float64 `json:"y2"`
	Label  string  `json:"label"`
	LabelX float64 `json:"label_x"`
	LabelY float64 `json:"label_y"`
}

// Layout is a complete, self-contained drawing of one histogram render.
type Layout struct {
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Margin    Margin    `json:"margin"`
	Policy    Policy    `json:"policy"`
	BinWidth  float64   `json:"bin_width"`
	XScale    Scale     `json:"x_scale"`
	YScale    Scale     `json:"y_scale"`
	Bins      []Bin     `json:"bins"`
	Bars      []Bar     `json:"bars"`
	XTicks    []Tick    `json:"x_ticks"`
	YTicks    []Tick    `json:"y_ticks"`
	XTitle    string    `json:"x_title"`
	YTitle    string    `json:"y_title"`
	Marker    *Marker   `json:"marker,omitempty"`
	Estimate  float64   `json:"-"`
	Generated time.Time `json:"generated"`
}

// NewLayout bins values and places bars, axes and the estimate marker.
// The marker is omitted when est is not a finite number.
func NewLayout(values []float64, est float64, labelFn func(float64) string, opts Options) (Layout, error) {
	if len(values) == 0 {
		return Layout{}, ErrNoData
	}
	opts = withDefaults(opts)

	dataMax := Max(values)
	if n := BinCount(dataMax, opts.BinWidth); n > MaxBins {
		return Layout{}, fmt.Errorf("%w: max %g at bin width %g needs %g bins, limit %d",
			ErrTooManyBins, dataMax, opts.BinWidth, n, MaxBins)
	}
	bins := BucketTo(values, dataMax, opts.BinWidth)

	var domainMax float64
	switch opts.Policy {
	case PolicyFixed:
		domainMax = opts.FixedMax
	case PolicyDataset:
		domainMax = dataMax
		if domainMax <= 0 {
			domainMax = bins[len(bins)-1].X1
		}
	default:
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, opts.Policy)
	}

	m := opts.Margin
	plotBottom := opts.Height - m.Bottom
	xs := Scale{D0: 0, D1: domainMax, R0: m.Left, R1: opts.Width - m.Right}
	ys := Scale{D0: 0, D1: float64(MaxCount(bins)), R0: plotBottom, R1: m.Top}

	bars := make([]Bar, len(bins))
	for i, b := range bins {
		x0 := xs.Map(b.X0)
		x1 := xs.Map(math.Min(b.X1, domainMax))
		y := ys.Map(float64(b.Count))
		bars[i] = Bar{
			Bin:    b,
			X:      x0,
			Y:      y,
			Width:  math.Max(1, x1-x0-1),
			Height: plotBottom - y,
		}
	}

	xTickCount := int(math.Min(maxXTicks, domainMax/opts.BinWidth))
	if xTickCount < 1 {
		xTickCount = 1
	}

	l := Layout{
		Width:     opts.Width,
		Height:    opts.Height,
		Margin:    m,
		Policy:    opts.Policy,
		BinWidth:  opts.BinWidth,
		XScale:    xs,
		YScale:    ys,
		Bins:      bins,
		Bars:      bars,
		XTicks:    xs.Ticks(xTickCount, formatMilliliters),
		YTicks:    ys.Ticks(yTicks, nil),
		XTitle:    "Blood Loss (mL)",
		YTitle:    "Number of Patients",
		Estimate:  est,
		Generated: time.Now().UTC(),
	}

	if !math.IsNaN(est) && !math.IsInf(est, 0) {
		if labelFn == nil {
			labelFn = defaultLabel
		}
		x := xs.Map(est)
		l.Marker = &Marker{
			Value:  est,
			X:      x,
			Y1:     m.Top,
			Y2:     plotBottom,
			Label:  labelFn(est),
			LabelX: x + markerLabelDX,
			LabelY: m.Top + markerLabelDY,
		}
	}
	return l, nil
}

func defaultLabel(v float64) string {
	return fmt.Sprintf("%.1f mL", v)
}

func withDefaults(o Options) Options {
	d := DefaultOptions()
	if o.BinWidth <= 0 {
		o.BinWidth = d.BinWidth
	}
	if o.Policy == "" {
		o.Policy = d.Policy
	}
	if o.FixedMax <= 0 {
		o.FixedMax = d.FixedMax
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Margin == (Margin{}) {
		o.Margin = d.Margin
	}
	return o
}
