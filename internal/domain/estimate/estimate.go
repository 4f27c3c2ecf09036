// Package estimate computes the weighted-sum blood-loss estimate from a dosage vector.
package estimate

import (
	"fmt"
	"maps"

	"github.com/okian/eblviz/internal/domain/dosage"
)

// DefaultBase is the estimate with every dose at zero, in mL.
const DefaultBase = 300

// Table names.
const (
	TablePrediction = "prediction"
	TableAnimation  = "animation"
)

// Table is a fixed base offset plus one linear weight per drug.
type Table struct {
	Name    string
	Base    float64
	Weights map[dosage.Drug]float64
}

// PredictionTable returns the weights behind the predicted blood loss marker.
func PredictionTable() Table {
	return Table{
		Name: TablePrediction,
		Base: DefaultBase,
		Weights: map[dosage.Drug]float64{
			dosage.Propofol:   2.0,
			dosage.Midazolam:  1.5,
			dosage.Fentanyl:   3.0,
			dosage.Rocuronium: 2.5,
			dosage.Vecuronium: 2.2,
		},
	}
}

// AnimationTable returns the weights behind the animation intensity.
func AnimationTable() Table {
	return Table{
		Name: TableAnimation,
		Base: DefaultBase,
		Weights: map[dosage.Drug]float64{
			dosage.Propofol:   1.8,
			dosage.Midazolam:  1.2,
			dosage.Fentanyl:   2.5,
			dosage.Rocuronium: 2.0,
			dosage.Vecuronium: 1.7,
		},
	}
}

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithBase overrides the base offset.
func WithBase(base float64) Option {
	return func(e *Estimator) {
		e.table.Base = base
	}
}

// WithWeightsFromConfig overrides weights from a config map keyed by drug id.
// Unknown drugs and non-positive weights are ignored so the estimate stays
// non-decreasing in every dose.
func WithWeightsFromConfig(weights map[string]float64) Option {
	return func(e *Estimator) {
		for key, w := range weights {
			d, err := dosage.ParseDrug(key)
			if err != nil || w <= 0 {
				continue
			}
			e.table.Weights[d] = w
		}
	}
}

// Estimator maps a dosage vector to an estimate with one weight table.
type Estimator struct {
	table Table
}

// New creates an Estimator starting from table and applying opts.
func New(table Table, opts ...Option) *Estimator {
	e := &Estimator{table: Table{
		Name:    table.Name,
		Base:    table.Base,
		Weights: maps.Clone(table.Weights),
	}}
	if e.table.Weights == nil {
		e.table.Weights = make(map[dosage.Drug]float64, len(dosage.Drugs))
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns base + Σ dose×weight. The result is neither rounded nor clamped.
func (e *Estimator) Estimate(v dosage.Vector) float64 {
	total := e.table.Base
	for _, d := range dosage.Drugs {
		total += float64(v.Dose(d)) * e.table.Weights[d]
	}
	return total
}

// Table returns a copy of the weight table in use.
func (e *Estimator) Table() Table {
	return Table{Name: e.table.Name, Base: e.table.Base, Weights: maps.Clone(e.table.Weights)}
}

// Name returns the table name.
func (e *Estimator) Name() string {
	return e.table.Name
}

// WeightSum returns the sum of all drug weights.
func (e *Estimator) WeightSum() float64 {
	var sum float64
	for _, d := range dosage.Drugs {
		sum += e.table.Weights[d]
	}
	return sum
}

// Label formats an estimate the way the chart marker shows it.
func Label(est float64) string {
	return fmt.Sprintf("Predicted Blood Loss: %.1f mL", est)
}
