package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/eblviz/internal/loadcheck"
	"github.com/okian/eblviz/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumVectors = 1000
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numVectors = flag.Int("vectors", defaultNumVectors, "Number of dosage vectors per slider group")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 0, "Generator seed, 0 for a clock seed")
		outputFile = flag.String("output", "", "Output file for generated vectors")
		logFile    = flag.String("log", "", "Log file for run output")
		logFormat  = flag.String("log-format", "text", "Log format: text or json")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadcheck.ShowHelp()
		return
	}

	closer, err := loadcheck.SetupLogging(*logFile, logger.ParseFormat(*logFormat), *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	prediction, animation, err := loadcheck.EstimatorsFromConfig(ctx)
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &loadcheck.Config{
		BaseURL:    *baseURL,
		NumVectors: *numVectors,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		OutputFile: *outputFile,
		Verbose:    *verbose,
		Prediction: prediction,
		Animation:  animation,
	}

	if _, err := loadcheck.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Load check failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
