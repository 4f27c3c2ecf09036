// Package histogram buckets dataset values into fixed-width bins and lays the
// resulting chart out in pixel space.
package histogram

import (
	"math"
)

// DefaultBinWidth is the bin width in dataset units (mL).
const DefaultBinWidth = 100

// Bin is the interval [X0, X1) with the number of values that fell in it.
// The last bin of a histogram is closed on the right.
type Bin struct {
	X0    float64 `json:"x0"`
	X1    float64 `json:"x1"`
	Count int     `json:"count"`
}

// MaxBins bounds the bin count of one histogram.
const MaxBins = 10_000

// BinCount returns how many bins of width are needed to reach max, before
// any capping. It is computed in float64 so huge ratios cannot overflow.
func BinCount(max, width float64) float64 {
	width = binWidth(width)
	if !(max > 0) || math.IsInf(max, 1) {
		return 1
	}
	return math.Max(1, math.Ceil(max/width))
}

// Edges returns 0, width, 2*width, ... up to and including the first edge
// that is >= max. There is always at least one bin and never more than
// MaxBins; past the cap the remaining values collect in the last bin.
func Edges(max, width float64) []float64 {
	width = binWidth(width)
	n := int(math.Min(BinCount(max, width), MaxBins))
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = float64(i) * width
	}
	return edges
}

func binWidth(width float64) float64 {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		return DefaultBinWidth
	}
	return width
}

// Bucket bins values over the edges derived from their own maximum.
func Bucket(values []float64, width float64) []Bin {
	return BucketTo(values, Max(values), width)
}

// BucketTo bins values over Edges(max, width). Values below zero land in the
// first bin and values past the last edge land in the last bin, so the counts
// always add up to the number of finite values. Non-finite values are skipped.
func BucketTo(values []float64, max, width float64) []Bin {
	edges := Edges(max, width)
	bins := make([]Bin, len(edges)-1)
	for i := range bins {
		bins[i] = Bin{X0: edges[i], X1: edges[i+1]}
	}
	step := edges[1] - edges[0]
	last := len(bins) - 1
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		i := int(math.Floor(v / step))
		switch {
		case i < 0:
			i = 0
		case i > last:
			i = last
		}
		bins[i].Count++
	}
	return bins
}

// Max returns the largest finite value, or 0 when there is none.
func Max(values []float64) float64 {
	max := 0.0
	seen := false
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !seen || v > max {
			max = v
			seen = true
		}
	}
	return max
}

// MaxCount returns the largest bin count.
func MaxCount(bins []Bin) int {
	max := 0
	for _, b := range bins {
		if b.Count > max {
			max = b.Count
		}
	}
	return max
}

// Total returns the sum of all bin counts.
func Total(bins []Bin) int {
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	return total
}
