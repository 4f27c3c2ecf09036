package histogram

import (
	"math"
	"strconv"
)

// Scale maps a continuous domain [D0, D1] linearly onto a pixel range [R0, R1].
// Values outside the domain are extrapolated, not clamped.
type Scale struct {
	D0 float64 `json:"d0"`
	D1 float64 `json:"d1"`
	R0 float64 `json:"r0"`
	R1 float64 `json:"r1"`
}

// Map converts a domain value to a pixel position.
func (s Scale) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return s.R0
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Tick is an axis tick: its domain value, pixel position and text.
type Tick struct {
	Value float64 `json:"value"`
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickStep returns a 1-2-5 step covering [lo, hi] in about count ticks.
func tickStep(lo, hi float64, count int) float64 {
	if count < 1 || hi <= lo {
		return 0
	}
	raw := (hi - lo) / float64(count)
	power := math.Floor(math.Log10(raw))
	mag := math.Pow(10, power)
	err := raw / mag
	switch {
	case err >= e10:
		return 10 * mag
	case err >= e5:
		return 5 * mag
	case err >= e2:
		return 2 * mag
	}
	return mag
}

// Ticks returns about count round ticks within the scale domain.
func (s Scale) Ticks(count int, format func(float64) string) []Tick {
	if format == nil {
		format = formatNumber
	}
	lo, hi := math.Min(s.D0, s.D1), math.Max(s.D0, s.D1)
	step := tickStep(lo, hi, count)
	if step == 0 {
		return []Tick{{Value: lo, Pos: s.Map(lo), Label: format(lo)}}
	}
	start := math.Ceil(lo / step)
	stop := math.Floor(hi / step)
	ticks := make([]Tick, 0, int(stop-start)+1)
	// Fractional steps accumulate float error; round to the step's precision.
	prec := 1.0
	if step < 1 {
		prec = math.Pow(10, math.Ceil(-math.Log10(step)))
	}
	for i := start; i <= stop; i++ {
		v := math.Round(i*step*prec) / prec
		ticks = append(ticks, Tick{Value: v, Pos: s.Map(v), Label: format(v)})
	}
	return ticks
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMilliliters(v float64) string {
	return formatNumber(v) + " mL"
}
