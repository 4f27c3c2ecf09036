package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrConfigure = errors.New("metrics configure failed")
)
