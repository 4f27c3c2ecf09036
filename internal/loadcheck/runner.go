package loadcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/eblviz/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete load check and returns its statistics. The
// error joins every verification failure.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadcheck")

	log.Info(ctx, "starting load check",
		logger.String("baseURL", config.BaseURL),
		logger.Int("vectors", config.NumVectors),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	if config.Workers < 1 {
		config.Workers = 1
	}
	client := newHTTPClient(config.BaseURL, config.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	subs, err := generateSubmissions(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("vector generation failed: %w", err)
	}

	submitAll(ctx, config, client, subs, stats)

	verifyErr := verifyResults(ctx, config, client, subs, stats)

	if config.OutputFile != "" {
		if err := saveSubmissions(ctx, config.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save vectors to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, fmt.Errorf("result verification failed: %w", verifyErr)
	}
	log.Info(ctx, "load check completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	if err := client.getJSON(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	return nil
}

// saveSubmissions writes the generated vectors and their results as JSON.
func saveSubmissions(ctx context.Context, filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vectors: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "vectors saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var matchRate, perSecond float64
	if stats.Submitted > 0 {
		matchRate = float64(stats.Matched+stats.Superseded) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("vectorsGenerated", stats.VectorsGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("matched", stats.Matched),
		logger.Int("superseded", stats.Superseded),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("failed", stats.Failed),
		logger.Int("datasetRecords", stats.DatasetRecords),
		logger.Int("histogramTotal", stats.HistogramTotal),
		logger.String("generation", stats.Generation),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", matchRate),
		logger.Float64("vectorsPerSecond", perSecond))
}
