package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	// ErrSource covers fetch, query and decode failures.
	ErrSource = errors.New("dataset: source failed")
	// ErrEmpty means the payload held no usable records.
	ErrEmpty = errors.New("dataset: empty")
	// ErrUnsupportedDriver is returned for unknown database drivers.
	ErrUnsupportedDriver = errors.New("dataset: unsupported driver")
)
