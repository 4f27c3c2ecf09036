package histogram

import "errors"

// Sentinel kinds for histogram errors.
var (
	ErrNoData        = errors.New("histogram: no data")
	ErrUnknownPolicy = errors.New("histogram: unknown x-domain policy")
	ErrTooManyBins   = errors.New("histogram: too many bins")
)
