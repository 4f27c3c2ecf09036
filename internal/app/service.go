// Package service wires the estimators, the dataset context, the histogram
// renderer and the animation loop behind the HTTP API.
package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/okian/eblviz/internal/adapters/dataset"
	"github.com/okian/eblviz/internal/domain/animation"
	"github.com/okian/eblviz/internal/domain/dosage"
	"github.com/okian/eblviz/internal/domain/estimate"
	"github.com/okian/eblviz/internal/domain/histogram"
	"github.com/okian/eblviz/pkg/logger"
	"github.com/okian/eblviz/pkg/metrics"
)

const defaultLoadTimeout = 10 * time.Second

// Prediction is the current prediction slider group and its estimate.
type Prediction struct {
	Doses    dosage.Vector `json:"doses"`
	Estimate float64       `json:"estimate"`
	Label    string        `json:"label"`
}

// Animation is the current animation slider group and its loop state.
type Animation struct {
	Doses      dosage.Vector `json:"doses"`
	Estimate   float64       `json:"estimate"`
	Severity   float64       `json:"severity"`
	Generation string        `json:"generation"`
}

// Service holds the process-wide dosage vectors and the dataset context.
// Estimates are always recomputed from the stored vectors.
type Service struct {
	mu sync.RWMutex

	// Core components
	prediction *estimate.Estimator
	intensity  *estimate.Estimator
	animator   *animation.Animator
	source     dataset.Source
	store      *dataset.Store

	// Configuration
	field       string
	histOpts    histogram.Options
	animOpts    []animation.Option
	scale       float64
	loadTimeout time.Duration

	// State
	predDoses  dosage.Vector
	animDoses  dosage.Vector
	generation string
	loadErr    error
	started    bool
	startedAt  time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPredictionEstimator sets the estimator behind the histogram marker.
func WithPredictionEstimator(e *estimate.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.prediction = e
		}
	}
}

// WithAnimationEstimator sets the estimator behind the animation intensity.
func WithAnimationEstimator(e *estimate.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.intensity = e
		}
	}
}

// WithDatasetSource sets where records are loaded from and which field is
// plotted.
func WithDatasetSource(src dataset.Source, field string) Option {
	return func(s *Service) {
		s.source = src
		if field != "" {
			s.field = field
		}
	}
}

// WithDatasetTimeout bounds the startup load.
func WithDatasetTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithHistogramOptions sets bin width, domain policy and chart geometry.
func WithHistogramOptions(o histogram.Options) Option {
	return func(s *Service) {
		s.histOpts = o
	}
}

// WithAnimationOptions passes options through to the animator.
func WithAnimationOptions(opts ...animation.Option) Option {
	return func(s *Service) {
		s.animOpts = append(s.animOpts, opts...)
	}
}

// WithSeverityScale sets the animation estimate at which severity saturates.
func WithSeverityScale(scale float64) Option {
	return func(s *Service) {
		if scale > 0 {
			s.scale = scale
			s.animOpts = append(s.animOpts, animation.WithSeverityScale(scale))
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service with both slider groups at their defaults.
func New(opts ...Option) *Service {
	s := &Service{
		prediction:  estimate.New(estimate.PredictionTable()),
		intensity:   estimate.New(estimate.AnimationTable()),
		field:       dataset.DefaultField,
		histOpts:    histogram.DefaultOptions(),
		scale:       animation.DefaultSeverityScale,
		loadTimeout: defaultLoadTimeout,
		predDoses:   dosage.Default(),
		animDoses:   dosage.Default(),
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the dataset and starts the animation loop. A dataset failure
// is logged and leaves the service running without a dataset.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting eblviz service...")

	s.loadDataset(ctx)

	animOpts := append([]animation.Option{animation.WithLogger(s.logger.Named("animation"))}, s.animOpts...)
	s.animator = animation.New(animOpts...)
	s.restartAnimation(ctx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "eblviz service started",
		logger.Bool("datasetLoaded", s.store != nil),
		logger.String("xDomain", string(s.histOpts.Policy)),
	)
	return nil
}

func (s *Service) loadDataset(ctx context.Context) {
	if s.source == nil {
		s.loadErr = ErrNoSource
		s.logger.Warn(ctx, "no dataset source configured")
		return
	}

	start := time.Now()
	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	records, err := s.source.Load(loadCtx)
	metrics.RecordDatasetLoadDuration(float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.loadErr = err
		metrics.RecordDatasetLoadError("source")
		metrics.RecordErrorByType("dataset_load", "high")
		s.logger.Error(ctx, "error loading the data",
			logger.String("source", s.source.Name()),
			logger.Error(err),
		)
		return
	}

	store, err := dataset.NewStore(records, s.field)
	if err != nil {
		s.loadErr = err
		metrics.RecordDatasetLoadError("empty")
		metrics.RecordErrorByType("dataset_empty", "high")
		s.logger.Error(ctx, "no data loaded or data is empty",
			logger.String("source", s.source.Name()),
			logger.Int("records", len(records)),
		)
		return
	}

	s.store = store
	s.loadErr = nil
	metrics.UpdateDatasetRecords(store.Len(), store.Dropped())
	s.logger.Info(ctx, "dataset loaded",
		logger.String("source", s.source.Name()),
		logger.String("field", store.Field()),
		logger.Int("records", store.Len()),
		logger.Int("dropped", store.Dropped()),
		logger.Float64("max", store.Max()),
	)
}

// Stop cancels the animation loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping eblviz service...")

	if s.animator != nil {
		s.animator.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "eblviz service stopped")
}

// SetPrediction replaces the prediction dosage vector.
func (s *Service) SetPrediction(ctx context.Context, v dosage.Vector) (Prediction, error) {
	if err := v.Validate(); err != nil {
		return Prediction{}, err
	}

	s.mu.Lock()
	s.predDoses = v
	s.mu.Unlock()

	s.logDebug(ctx, "prediction doses updated", logger.Any("doses", v))
	return s.Prediction(ctx)
}

// Prediction returns the prediction doses with a freshly computed estimate.
func (s *Service) Prediction(_ context.Context) (Prediction, error) {
	s.mu.RLock()
	v := s.predDoses
	s.mu.RUnlock()

	est := s.prediction.Estimate(v)
	metrics.RecordEstimate(s.prediction.Name(), est)
	return Prediction{Doses: v, Estimate: est, Label: estimate.Label(est)}, nil
}

// Histogram lays out the dataset with the current prediction marker.
func (s *Service) Histogram(ctx context.Context) (histogram.Layout, error) {
	s.mu.RLock()
	store := s.store
	opts := s.histOpts
	s.mu.RUnlock()

	if store == nil {
		return histogram.Layout{}, ErrNoDataset
	}

	p, err := s.Prediction(ctx)
	if err != nil {
		return histogram.Layout{}, err
	}

	l, err := histogram.NewLayout(store.Values(), p.Estimate, estimate.Label, opts)
	if err != nil {
		return histogram.Layout{}, err
	}
	if l.Marker == nil {
		metrics.RecordMarkerSkipped()
	}
	return l, nil
}

// SetAnimation replaces the animation dosage vector and restarts the loop.
func (s *Service) SetAnimation(ctx context.Context, v dosage.Vector) (Animation, error) {
	if err := v.Validate(); err != nil {
		return Animation{}, err
	}

	s.mu.Lock()
	s.animDoses = v
	if s.started {
		s.restartAnimation(ctx)
	}
	s.mu.Unlock()

	s.logDebug(ctx, "animation doses updated", logger.Any("doses", v))
	return s.Animation(ctx)
}

// Animation returns the animation doses and the current loop generation.
func (s *Service) Animation(_ context.Context) (Animation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	est := s.animationEstimate()
	return Animation{
		Doses:      s.animDoses,
		Estimate:   est,
		Severity:   animation.Severity(est, s.severityScale()),
		Generation: s.generation,
	}, nil
}

// Frame snapshots the particle field.
func (s *Service) Frame(_ context.Context) (animation.Frame, error) {
	s.mu.RLock()
	a := s.animator
	s.mu.RUnlock()

	if a == nil {
		return animation.Frame{}, ErrNotStarted
	}
	return a.Snapshot(), nil
}

// Dataset returns the loaded records.
func (s *Service) Dataset(_ context.Context) ([]dataset.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.store == nil {
		return nil, ErrNoDataset
	}
	return s.store.Records(), nil
}

// DatasetError returns the startup load failure, if any.
func (s *Service) DatasetError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	predEst := s.prediction.Estimate(s.predDoses)
	animEst := s.animationEstimate()
	stats := map[string]interface{}{
		"started":            s.started,
		"datasetLoaded":      s.store != nil,
		"xDomain":            string(s.histOpts.Policy),
		"binWidth":           s.histOpts.BinWidth,
		"predictionEstimate": predEst,
		"animationEstimate":  animEst,
		"animationSeverity":  animation.Severity(animEst, s.severityScale()),
	}

	if s.store != nil {
		stats["datasetRecords"] = s.store.Len()
		stats["datasetDropped"] = s.store.Dropped()
		stats["datasetMax"] = s.store.Max()
	}
	if s.loadErr != nil && !errors.Is(s.loadErr, ErrNoSource) {
		stats["datasetError"] = s.loadErr.Error()
	}

	if s.started {
		f := s.animator.Snapshot()
		stats["animationFrames"] = f.Frame
		stats["animationRunning"] = f.Running
		stats["animationGeneration"] = f.Generation
		stats["uptimeSeconds"] = math.Round(time.Since(s.startedAt).Seconds())
	}

	return stats
}

// animationEstimate must be called with s.mu held.
func (s *Service) animationEstimate() float64 {
	return s.intensity.Estimate(s.animDoses)
}

// restartAnimation must be called with s.mu held.
func (s *Service) restartAnimation(ctx context.Context) {
	est := s.animationEstimate()
	metrics.RecordEstimate(s.intensity.Name(), est)
	s.generation = s.animator.Update(ctx, est)
}

func (s *Service) severityScale() float64 {
	return s.scale
}

func (s *Service) logDebug(ctx context.Context, msg string, fields ...logger.Field) {
	if s.logger != nil {
		s.logger.Debug(ctx, msg, fields...)
	}
}
