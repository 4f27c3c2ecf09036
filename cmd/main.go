package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/eblviz/internal/adapters/dataset"
	"github.com/okian/eblviz/internal/adapters/http/api"
	"github.com/okian/eblviz/internal/adapters/http/swagger"
	service "github.com/okian/eblviz/internal/app"
	"github.com/okian/eblviz/internal/config"
	"github.com/okian/eblviz/internal/domain/animation"
	"github.com/okian/eblviz/internal/domain/estimate"
	"github.com/okian/eblviz/internal/domain/histogram"
	"github.com/okian/eblviz/pkg/logger"
	"github.com/okian/eblviz/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// We collect our own system metrics on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		os.Stderr.WriteString("eblviz: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if logger.ParseFormat(cfg.LogFormat) != logger.FormatText {
		if err := logger.InitWith(os.Stdout, logger.ParseFormat(cfg.LogFormat)); err != nil {
			return err
		}
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := metrics.Configure(metricsOptions(cfg)...); err != nil {
		return err
	}

	src, db, err := newSource(ctx, cfg)
	if err != nil {
		// The page still serves both slider groups without a dataset.
		loggerInstance.Error(ctx, "error opening the dataset source",
			logger.String("source", cfg.DatasetSource), logger.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	opts, err := serviceOptions(cfg, src)
	if err != nil {
		return err
	}
	svc := service.New(append(opts, service.WithLogger(loggerInstance.Named("service")))...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
		return err
	}
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// newHandler registers the docs and API routes and wraps them in the
// middleware chain.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return api.Chain(mux, cfg.CORSAllowedOrigins)
}

// newSource builds the configured dataset source. The returned *sql.DB is
// non-nil only for the sql source and must be closed by the caller.
func newSource(ctx context.Context, cfg *config.Config) (dataset.Source, *sql.DB, error) {
	switch cfg.DatasetSource {
	case config.SourceFile:
		return dataset.NewFileSource(cfg.DatasetPath), nil, nil
	case config.SourceHTTP:
		return dataset.NewHTTPSource(cfg.DatasetURL, datasetTimeout(cfg)), nil, nil
	case config.SourceSQL:
		openCtx, cancel := context.WithTimeout(ctx, datasetTimeout(cfg))
		defer cancel()
		db, err := dataset.Open(openCtx, cfg.DatasetDriver, cfg.DatasetDSN)
		if err != nil {
			return nil, nil, err
		}
		return dataset.NewSQLSource(db, cfg.DatasetQuery, cfg.ValueField), db, nil
	}
	return nil, nil, config.ErrInvalidConfig
}

func datasetTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.DatasetTimeoutMS) * time.Millisecond
}

// serviceOptions translates configuration into service options.
func serviceOptions(cfg *config.Config, src dataset.Source) ([]service.Option, error) {
	policy, err := histogram.ParsePolicy(cfg.XDomain)
	if err != nil {
		return nil, err
	}
	hist := histogram.DefaultOptions()
	hist.BinWidth = cfg.BinWidth
	hist.Policy = policy
	hist.FixedMax = cfg.XDomainFixedMax
	hist.Width = float64(cfg.ChartWidth)
	hist.Height = float64(cfg.ChartHeight)

	opts := []service.Option{
		service.WithPredictionEstimator(estimate.New(estimate.PredictionTable(),
			estimate.WithBase(cfg.PredictionBase),
			estimate.WithWeightsFromConfig(cfg.PredictionWeights),
		)),
		service.WithAnimationEstimator(estimate.New(estimate.AnimationTable(),
			estimate.WithBase(cfg.AnimationBase),
			estimate.WithWeightsFromConfig(cfg.AnimationWeights),
		)),
		service.WithHistogramOptions(hist),
		service.WithSeverityScale(cfg.SeverityScale),
		service.WithDatasetTimeout(datasetTimeout(cfg)),
		service.WithAnimationOptions(
			animation.WithInterval(time.Duration(cfg.FrameIntervalMS)*time.Millisecond),
			animation.WithCanvas(cfg.ParticleCount, float64(cfg.CanvasWidth), float64(cfg.CanvasHeight)),
		),
	}
	if src != nil {
		opts = append(opts, service.WithDatasetSource(src, cfg.ValueField))
	}
	return opts, nil
}

// metricsOptions translates the metrics_* keys into manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithCustomLabels(cfg.MetricsLabels),
		metrics.WithHistogramBuckets(cfg.MetricsBucketsMS),
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average pause across all collections so far.
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
