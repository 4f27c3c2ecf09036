// Package loadcheck drives a running service with random slider updates and
// verifies the estimates, histogram and animation loop it reports back.
package loadcheck

import (
	"time"

	"github.com/okian/eblviz/internal/domain/dosage"
	"github.com/okian/eblviz/internal/domain/estimate"
)

// Config holds configuration for one load check run
type Config struct {
	BaseURL    string        // Base URL of the service
	NumVectors int           // Number of dosage vectors per slider group
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed for the vector generator; 0 picks one from the clock
	OutputFile string        // Output file for the generated vectors; empty skips saving
	Verbose    bool          // Enable verbose logging

	// Estimators must match the weight tables the service runs with.
	Prediction *estimate.Estimator
	Animation  *estimate.Estimator
}

// Submission is one slider update sent to the service.
type Submission struct {
	Group  dosage.Group   `json:"group"`
	Doses  dosage.Vector  `json:"doses"`
	Body   map[string]int `json:"body"`
	Result string         `json:"result,omitempty"`
}

// doseReply is the shared shape of the prediction and animation replies.
type doseReply struct {
	Doses      dosage.Vector `json:"doses"`
	Estimate   float64       `json:"estimate"`
	Generation string        `json:"generation,omitempty"`
}

// Stats holds run statistics
type Stats struct {
	VectorsGenerated int
	Submitted        int
	Matched          int // reply carried the submitted doses
	Superseded       int // a concurrent update landed first; only the estimate was checked
	Failed           int
	Mismatched       int // estimate differs from base + Σ dose×weight
	DatasetRecords   int
	HistogramTotal   int
	Generation       string
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
