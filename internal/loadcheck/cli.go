package loadcheck

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/eblviz/internal/config"
	"github.com/okian/eblviz/internal/domain/estimate"
	"github.com/okian/eblviz/pkg/logger"
)

// SetupLogging sends logs to stdout and, when logFile is set, to that file
// as well. The returned closer releases the file.
func SetupLogging(logFile string, format logger.Format, verbose bool) (io.Closer, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.InitWith(w, format); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closer, nil
}

// EstimatorsFromConfig builds the two estimators from the same configuration
// layers the service loads, so expected estimates follow its weight tables.
func EstimatorsFromConfig(ctx context.Context) (prediction, animation *estimate.Estimator, err error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	prediction = estimate.New(estimate.PredictionTable(),
		estimate.WithBase(cfg.PredictionBase),
		estimate.WithWeightsFromConfig(cfg.PredictionWeights),
	)
	animation = estimate.New(estimate.AnimationTable(),
		estimate.WithBase(cfg.AnimationBase),
		estimate.WithWeightsFromConfig(cfg.AnimationWeights),
	)
	return prediction, animation, nil
}

// ShowHelp prints usage information for the load check tool.
func ShowHelp() {
	os.Stdout.WriteString(`EBL Load Check
==============

Posts random slider vectors to a running service and verifies what it reports.

Checks:
  - every reply estimate equals base + sum(dose x weight) for the reply doses
  - histogram bin counts add up to the /health_data record count
  - the histogram marker sits at the prediction estimate
  - /stats shows one running animation loop of the current generation

Weights and bases are read from the same EBLVIZ_CONFIG file and EBLVIZ_ env
vars the service uses.

Usage:
  go run ./cmd/load-check [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -vectors int
        Number of dosage vectors per slider group (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -seed uint
        Generator seed, 0 for a clock seed (default 0)
  -output string
        Output file for generated vectors (default: not saved)
  -log string
        Log file for run output (default: stdout only)
  -verbose
        Log every submission
  -help
        Show this help message

Examples:
  # Check with default settings
  go run ./cmd/load-check

  # Reproduce a run serially
  go run ./cmd/load-check -workers 1 -seed 42 -vectors 200
`)
}
