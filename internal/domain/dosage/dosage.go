// Package dosage models the five anesthesia drug doses set by the page sliders.
package dosage

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Slider bounds shared by every drug.
const (
	MinDose     = 0
	MaxDose     = 100
	Step        = 1
	DefaultDose = 50
)

// Drug identifies one of the five fixed drugs.
type Drug string

const (
	Propofol   Drug = "ppf"
	Midazolam  Drug = "mdz"
	Fentanyl   Drug = "ftn"
	Rocuronium Drug = "rocu"
	Vecuronium Drug = "vecu"
)

// Drugs lists every drug in slider order.
var Drugs = []Drug{Propofol, Midazolam, Fentanyl, Rocuronium, Vecuronium}

var displayNames = map[Drug]string{
	Propofol:   "Propofol (PPF)",
	Midazolam:  "Midazolam (MDZ)",
	Fentanyl:   "Fentanyl (FTN)",
	Rocuronium: "Rocuronium (ROCU)",
	Vecuronium: "Vecuronium (VECU)",
}

// Name returns the human-readable drug name.
func (d Drug) Name() string {
	if n, ok := displayNames[d]; ok {
		return n
	}
	return string(d)
}

// Valid reports whether d is one of the five known drugs.
func (d Drug) Valid() bool {
	_, ok := displayNames[d]
	return ok
}

// Form key prefixes of the two slider groups.
const (
	PredictionPrefix = "intraop_"
	AnimationPrefix  = "anim_"
)

// ParseDrug accepts the bare id ("ppf") and the form keys of both slider
// groups ("intraop_ppf", "anim_ppf").
func ParseDrug(s string) (Drug, error) {
	return ParseGroupDrug("", s)
}

// ParseGroupDrug is ParseDrug restricted to the form keys of g. The bare id is
// accepted for every group; an empty g accepts both prefixes.
func ParseGroupDrug(g Group, s string) (Drug, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, PredictionPrefix):
		if g == GroupAnimation {
			return "", fmt.Errorf("%w: %q in %s group", ErrUnknownDrug, s, g)
		}
		s = strings.TrimPrefix(s, PredictionPrefix)
	case strings.HasPrefix(s, AnimationPrefix):
		if g == GroupPrediction {
			return "", fmt.Errorf("%w: %q in %s group", ErrUnknownDrug, s, g)
		}
		s = strings.TrimPrefix(s, AnimationPrefix)
	}
	d := Drug(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDrug, s)
	}
	return d, nil
}

// Vector holds one dose per drug. The zero value is all doses at 0.
type Vector struct {
	Propofol   int `json:"ppf"`
	Midazolam  int `json:"mdz"`
	Fentanyl   int `json:"ftn"`
	Rocuronium int `json:"rocu"`
	Vecuronium int `json:"vecu"`
}

// New builds a Vector, rejecting any dose outside [MinDose, MaxDose].
func New(ppf, mdz, ftn, rocu, vecu int) (Vector, error) {
	v := Vector{Propofol: ppf, Midazolam: mdz, Fentanyl: ftn, Rocuronium: rocu, Vecuronium: vecu}
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}
	return v, nil
}

// Uniform returns a Vector with every drug at dose, validated.
func Uniform(dose int) (Vector, error) {
	return New(dose, dose, dose, dose, dose)
}

// Default returns the slider defaults.
func Default() Vector {
	return Vector{
		Propofol:   DefaultDose,
		Midazolam:  DefaultDose,
		Fentanyl:   DefaultDose,
		Rocuronium: DefaultDose,
		Vecuronium: DefaultDose,
	}
}

// Validate checks every dose against the slider bounds.
func (v Vector) Validate() error {
	for _, d := range Drugs {
		if err := checkDose(d, v.Dose(d)); err != nil {
			return err
		}
	}
	return nil
}

func checkDose(d Drug, dose int) error {
	if dose < MinDose || dose > MaxDose {
		return fmt.Errorf("%w: %s=%d not in [%d,%d]", ErrOutOfRange, d, dose, MinDose, MaxDose)
	}
	return nil
}

// Dose returns the dose of d, or 0 for an unknown drug.
func (v Vector) Dose(d Drug) int {
	switch d {
	case Propofol:
		return v.Propofol
	case Midazolam:
		return v.Midazolam
	case Fentanyl:
		return v.Fentanyl
	case Rocuronium:
		return v.Rocuronium
	case Vecuronium:
		return v.Vecuronium
	}
	return 0
}

// With returns a copy of v with d set to dose.
func (v Vector) With(d Drug, dose int) (Vector, error) {
	if !d.Valid() {
		return v, fmt.Errorf("%w: %q", ErrUnknownDrug, d)
	}
	if err := checkDose(d, dose); err != nil {
		return v, err
	}
	switch d {
	case Propofol:
		v.Propofol = dose
	case Midazolam:
		v.Midazolam = dose
	case Fentanyl:
		v.Fentanyl = dose
	case Rocuronium:
		v.Rocuronium = dose
	case Vecuronium:
		v.Vecuronium = dose
	}
	return v, nil
}

// Map returns the doses keyed by drug.
func (v Vector) Map() map[Drug]int {
	m := make(map[Drug]int, len(Drugs))
	for _, d := range Drugs {
		m[d] = v.Dose(d)
	}
	return m
}

// FromMap builds a Vector from drug-keyed doses (any accepted key form).
// Drugs missing from m keep the slider default.
func FromMap(m map[string]int) (Vector, error) {
	return FromGroupMap("", m)
}

// FromGroupMap is FromMap restricted to the form keys of g. Keys are read in
// sorted order and a drug named by two keys is rejected, so the result never
// depends on map iteration order.
func FromGroupMap(g Group, m map[string]int) (Vector, error) {
	v := Default()
	seen := make(map[Drug]string, len(m))
	for _, key := range slices.Sorted(maps.Keys(m)) {
		d, err := ParseGroupDrug(g, key)
		if err != nil {
			return Vector{}, err
		}
		if prev, ok := seen[d]; ok {
			return Vector{}, fmt.Errorf("%w: %q and %q", ErrDuplicateDrug, prev, key)
		}
		seen[d] = key
		if v, err = v.With(d, m[key]); err != nil {
			return Vector{}, err
		}
	}
	return v, nil
}
