package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "eblviz")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("viz"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.estimatesComputed.WithLabelValues("prediction").Inc()

			Convey("Then collectors carry the namespace, subsystem and constant labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "test_viz_estimates_computed_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "eblviz")
				So(manager.subsystem, ShouldEqual, "")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording an estimate", func() {
			before := testutil.ToFloat64(globalManager.estimatesComputed.WithLabelValues("prediction"))
			RecordEstimate("prediction", 860)

			Convey("Then the counter grows and the value gauge is set", func() {
				So(testutil.ToFloat64(globalManager.estimatesComputed.WithLabelValues("prediction")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.estimateValue.WithLabelValues("prediction")), ShouldEqual, 860)
			})
		})

		Convey("When animation loops start and stop", func() {
			active := testutil.ToFloat64(globalManager.animationLoopsActive)
			RecordAnimationLoopStarted()
			RecordAnimationLoopStarted()
			RecordAnimationLoopStopped()

			Convey("Then the active gauge tracks the difference", func() {
				So(testutil.ToFloat64(globalManager.animationLoopsActive), ShouldEqual, active+1)
				RecordAnimationLoopStopped()
			})
		})

		Convey("When recording dataset and render metrics", func() {
			So(func() {
				UpdateDatasetRecords(120, 3)
				RecordDatasetLoadError("empty")
				RecordDatasetLoadDuration(12.5)
				RecordHistogramRender("svg", 3.2, 15)
				RecordMarkerSkipped()
				RecordAnimationFrame()
				UpdateAnimationSeverity(0.86)
				UpdateAnimationParticles(100)
			}, ShouldNotPanic)

			Convey("Then gauges reflect the latest values", func() {
				So(testutil.ToFloat64(globalManager.datasetRecords), ShouldEqual, 120)
				So(testutil.ToFloat64(globalManager.datasetDropped), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.histogramBins), ShouldEqual, 15)
				So(testutil.ToFloat64(globalManager.animationSeverity), ShouldEqual, 0.86)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			So(func() {
				RecordHTTPRequest("prediction", "POST", "200")
				RecordHTTPRequestDuration("prediction", "POST", "200", 4)
				RecordErrorByEndpoint("histogram", "GET", "server_error")
				RecordErrorByType("server_error", "high")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then they are exposed on the custom registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "eblviz_http_requests_total")
				So(joined, ShouldContainSubstring, "eblviz_system_goroutine_count")
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.animationFrames)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordAnimationFrame()
				}
			}()
		}
		wg.Wait()

		Convey("Then no increments are lost", func() {
			So(testutil.ToFloat64(globalManager.animationFrames), ShouldEqual, before+1000)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Reset(func() { _ = Configure() })

		Convey("When it is reconfigured with a namespace and labels", func() {
			So(Configure(WithNamespace("clinic"), WithCustomLabels(map[string]string{"site": "or1"})), ShouldBeNil)
			RecordEstimate("prediction", 860)

			Convey("Then the registry exposes only the renamed collectors", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				So(names, ShouldContain, "clinic_estimates_computed_total")
				So(names, ShouldNotContain, "eblviz_estimates_computed_total")
			})
		})

		Convey("When a reserved label name is given", func() {
			before := GetRegistry()
			err := Configure(WithCustomLabels(map[string]string{"__host": "a"}))

			Convey("Then it fails and the current registry stays", func() {
				So(err, ShouldWrap, ErrConfigure)
				So(GetRegistry(), ShouldEqual, before)
			})
		})
	})
}
