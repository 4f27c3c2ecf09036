package dosage

// Group identifies one of the two slider groups on the page.
type Group string

const (
	GroupPrediction Group = "prediction"
	GroupAnimation  Group = "animation"
)

// Slider describes one range input of a group.
type Slider struct {
	ID      string `json:"id"`
	Drug    Drug   `json:"drug"`
	Label   string `json:"label"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Step    int    `json:"step"`
	Default int    `json:"default"`
}

// Sliders returns the slider set of a group. Prediction sliders use the
// dataset column names as ids and labels; animation sliders use drug names.
func Sliders(g Group) []Slider {
	out := make([]Slider, 0, len(Drugs))
	for _, d := range Drugs {
		s := Slider{Drug: d, Min: MinDose, Max: MaxDose, Step: Step, Default: DefaultDose}
		switch g {
		case GroupAnimation:
			s.ID = "anim_" + string(d)
			s.Label = d.Name()
		default:
			s.ID = "intraop_" + string(d)
			s.Label = s.ID + " (mg)"
		}
		out = append(out, s)
	}
	return out
}
