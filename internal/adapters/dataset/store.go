package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Store is the immutable dataset context: records loaded once plus the
// extracted measurement values.
type Store struct {
	field   string
	records []Record
	values  []float64
	max     float64
	dropped int
}

// NewStore keeps the records whose field holds a finite number. It returns
// ErrEmpty when none do.
func NewStore(records []Record, field string) (*Store, error) {
	if field == "" {
		field = DefaultField
	}
	s := &Store{field: field}
	for _, r := range records {
		v, ok := Value(r, field)
		if !ok {
			s.dropped++
			continue
		}
		if len(s.values) == 0 || v > s.max {
			s.max = v
		}
		s.records = append(s.records, r)
		s.values = append(s.values, v)
	}
	if len(s.values) == 0 {
		return nil, ErrEmpty
	}
	return s, nil
}

// Value extracts a finite number from r[field]. Numeric strings are accepted.
func Value(r Record, field string) (float64, bool) {
	var v float64
	switch x := r[field].(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Field is the name of the measured field.
func (s *Store) Field() string { return s.field }

// Len is the number of usable records.
func (s *Store) Len() int { return len(s.values) }

// Dropped is the number of records rejected at load.
func (s *Store) Dropped() int { return s.dropped }

// Max is the largest observed value.
func (s *Store) Max() float64 { return s.max }

// Values returns a copy of the measurement values in load order.
func (s *Store) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Records returns a copy of the usable records.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
