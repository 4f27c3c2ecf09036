// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and EBLVIZ_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"slices"
	"strings"
)

// Dataset source kinds.
const (
	SourceFile = "file"
	SourceHTTP = "http"
	SourceSQL  = "sql"
)

// X-axis domain policies for the histogram.
const (
	DomainDataset = "dataset"
	DomainFixed   = "fixed"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// CORSAllowedOrigins lists origins allowed to call the API from a browser.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// DatasetSource is one of file, http or sql.
	DatasetSource string `koanf:"dataset_source"`
	DatasetPath   string `koanf:"dataset_path"`
	DatasetURL    string `koanf:"dataset_url"`
	// DatasetDriver is sqlite or postgres.
	DatasetDriver string `koanf:"dataset_driver"`
	DatasetDSN    string `koanf:"dataset_dsn"`
	// DatasetQuery must select a single numeric column.
	DatasetQuery string `koanf:"dataset_query"`
	// DatasetTimeoutMS bounds the startup load.
	DatasetTimeoutMS int `koanf:"dataset_timeout_ms"`
	// ValueField names the numeric record field plotted by the histogram.
	ValueField string `koanf:"value_field"`

	// BinWidth is the histogram bin width in dataset units.
	BinWidth float64 `koanf:"bin_width"`
	// XDomain selects the x-axis domain policy: dataset or fixed.
	XDomain string `koanf:"x_domain"`
	// XDomainFixedMax is the upper bound used by the fixed policy.
	XDomainFixedMax float64 `koanf:"x_domain_fixed_max"`
	ChartWidth      int     `koanf:"chart_width"`
	ChartHeight     int     `koanf:"chart_height"`

	PredictionBase    float64            `koanf:"prediction_base"`
	PredictionWeights map[string]float64 `koanf:"prediction_weights"`
	AnimationBase     float64            `koanf:"animation_base"`
	AnimationWeights  map[string]float64 `koanf:"animation_weights"`

	// SeverityScale divides the animation estimate before clamping to [0,1].
	SeverityScale   float64 `koanf:"severity_scale"`
	ParticleCount   int     `koanf:"particle_count"`
	CanvasWidth     int     `koanf:"canvas_width"`
	CanvasHeight    int     `koanf:"canvas_height"`
	FrameIntervalMS int     `koanf:"frame_interval_ms"`

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsLabels are constant labels attached to every metric, e.g. site or ward.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
	// MetricsBucketsMS overrides the latency histogram buckets, in milliseconds.
	MetricsBucketsMS []float64 `koanf:"metrics_buckets_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		CORSAllowedOrigins: []string{"*"},
		DatasetSource:      SourceFile,
		DatasetPath:        "health_data.json",
		DatasetDriver:      "sqlite",
		DatasetQuery:       "SELECT intraop_ebl FROM cases",
		DatasetTimeoutMS:   10_000,
		ValueField:         "intraop_ebl",
		BinWidth:           100,
		XDomain:            DomainDataset,
		XDomainFixedMax:    1500,
		ChartWidth:         600,
		ChartHeight:        400,
		PredictionBase:     300,
		PredictionWeights: map[string]float64{
			"ppf": 2.0, "mdz": 1.5, "ftn": 3.0, "rocu": 2.5, "vecu": 2.2,
		},
		AnimationBase: 300,
		AnimationWeights: map[string]float64{
			"ppf": 1.8, "mdz": 1.2, "ftn": 2.5, "rocu": 2.0, "vecu": 1.7,
		},
		SeverityScale:   1000,
		ParticleCount:   100,
		CanvasWidth:     800,
		CanvasHeight:    400,
		FrameIntervalMS: 16,

		MetricsNamespace: "eblviz",
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BinWidth <= 0:
		return fmt.Errorf("%w: bin_width must be positive", ErrInvalidConfig)
	case c.ChartWidth <= 0 || c.ChartHeight <= 0:
		return fmt.Errorf("%w: chart dimensions must be positive", ErrInvalidConfig)
	case c.CanvasWidth <= 0 || c.CanvasHeight <= 0:
		return fmt.Errorf("%w: canvas dimensions must be positive", ErrInvalidConfig)
	case c.FrameIntervalMS <= 0:
		return fmt.Errorf("%w: frame_interval_ms must be positive", ErrInvalidConfig)
	case c.SeverityScale <= 0:
		return fmt.Errorf("%w: severity_scale must be positive", ErrInvalidConfig)
	case c.ParticleCount < 0:
		return fmt.Errorf("%w: particle_count must not be negative", ErrInvalidConfig)
	case strings.TrimSpace(c.ValueField) == "":
		return fmt.Errorf("%w: value_field must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.MetricsNamespace) == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	if !slices.IsSorted(c.MetricsBucketsMS) {
		return fmt.Errorf("%w: metrics_buckets_ms must be increasing", ErrInvalidConfig)
	}

	switch c.XDomain {
	case DomainDataset:
	case DomainFixed:
		if c.XDomainFixedMax <= 0 {
			return fmt.Errorf("%w: x_domain_fixed_max must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown x_domain %q", ErrInvalidConfig, c.XDomain)
	}

	switch c.DatasetSource {
	case SourceFile:
		if c.DatasetPath == "" {
			return fmt.Errorf("%w: dataset_path is required for file source", ErrInvalidConfig)
		}
	case SourceHTTP:
		if c.DatasetURL == "" {
			return fmt.Errorf("%w: dataset_url is required for http source", ErrInvalidConfig)
		}
	case SourceSQL:
		if c.DatasetDriver == "" || c.DatasetQuery == "" {
			return fmt.Errorf("%w: dataset_driver and dataset_query are required for sql source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown dataset_source %q", ErrInvalidConfig, c.DatasetSource)
	}
	return nil
}
