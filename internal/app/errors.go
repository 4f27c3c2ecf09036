package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNoDataset means the dataset failed to load or was empty; charts
	// depending on it cannot be drawn.
	ErrNoDataset = errors.New("service: dataset not loaded")
	// ErrNoSource means no dataset source was configured.
	ErrNoSource = errors.New("service: no dataset source")
	// ErrNotStarted is returned before Start has run.
	ErrNotStarted = errors.New("service: not started")
)
