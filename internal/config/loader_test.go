package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/eblviz/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.BinWidth, convey.ShouldEqual, 100)
				convey.So(cfg.XDomain, convey.ShouldEqual, "dataset")
				convey.So(cfg.FrameIntervalMS, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("EBLVIZ_ADDR", ":8080")
			_ = os.Setenv("EBLVIZ_BIN_WIDTH", "50")
			_ = os.Setenv("EBLVIZ_X_DOMAIN", "fixed")
			_ = os.Setenv("EBLVIZ_PARTICLE_COUNT", "20")
			_ = os.Setenv("EBLVIZ_CORS_ALLOWED_ORIGINS", "http://localhost:3000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BinWidth, convey.ShouldEqual, 50)
				convey.So(cfg.XDomain, convey.ShouldEqual, config.DomainFixed)
				convey.So(cfg.ParticleCount, convey.ShouldEqual, 20)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"http://localhost:3000"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
dataset_path: /data/cases.json
x_domain: fixed
x_domain_fixed_max: 2000
prediction_weights:
  ftn: 4.0
animation_base: 250
metrics_namespace: clinic
metrics_labels:
  site: or1
metrics_buckets_ms: [1, 10, 100]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("EBLVIZ_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DatasetPath, convey.ShouldEqual, "/data/cases.json")
				convey.So(cfg.XDomainFixedMax, convey.ShouldEqual, 2000)
				convey.So(cfg.PredictionWeights["ftn"], convey.ShouldEqual, 4.0)
				convey.So(cfg.PredictionWeights["ppf"], convey.ShouldEqual, 2.0)
				convey.So(cfg.AnimationBase, convey.ShouldEqual, 250)
				convey.So(cfg.PredictionBase, convey.ShouldEqual, 300)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "clinic")
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"site": "or1"})
				convey.So(cfg.MetricsBucketsMS, convey.ShouldResemble, []float64{1, 10, 100})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nbin_width: 25\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("EBLVIZ_CONFIG", tmpFile)
			_ = os.Setenv("EBLVIZ_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BinWidth, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("EBLVIZ_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("EBLVIZ_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("EBLVIZ_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("EBLVIZ_BIN_WIDTH", "wide")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When selecting the sql dataset source from env", func() {
			_ = os.Setenv("EBLVIZ_DATASET_SOURCE", "sql")
			_ = os.Setenv("EBLVIZ_DATASET_DRIVER", "pgx")
			_ = os.Setenv("EBLVIZ_DATASET_DSN", "postgres://localhost/cases")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the source settings are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DatasetSource, convey.ShouldEqual, config.SourceSQL)
				convey.So(cfg.DatasetDriver, convey.ShouldEqual, "pgx")
				convey.So(cfg.DatasetDSN, convey.ShouldEqual, "postgres://localhost/cases")
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"EBLVIZ_CONFIG",
		"EBLVIZ_ADDR",
		"EBLVIZ_BIN_WIDTH",
		"EBLVIZ_X_DOMAIN",
		"EBLVIZ_PARTICLE_COUNT",
		"EBLVIZ_CORS_ALLOWED_ORIGINS",
		"EBLVIZ_DATASET_SOURCE",
		"EBLVIZ_DATASET_DRIVER",
		"EBLVIZ_DATASET_DSN",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "eblviz-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
