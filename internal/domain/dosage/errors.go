package dosage

import "errors"

// Sentinel kinds for dosage errors.
var (
	ErrOutOfRange    = errors.New("dose out of range")
	ErrUnknownDrug   = errors.New("unknown drug")
	ErrDuplicateDrug = errors.New("drug given more than once")
)
