package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithMetricPrefix("x"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordOperation("quantiles", 3)

			Convey("Then names and labels follow the options", func() {
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_x_operations_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording figure builds", func() {
			m.RecordFigure("summary", 12, 3.5, nil)
			m.RecordFigure("summary", 0, 1, errors.New("boom"))

			Convey("Then successes and failures are counted apart", func() {
				So(testutil.ToFloat64(m.figureBuilds.WithLabelValues("summary", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.figureBuilds.WithLabelValues("summary", "error")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.figureTraces.WithLabelValues("summary")), ShouldEqual, 12)
			})
		})

		Convey("When recording operations", func() {
			m.RecordOperation("normalize", 10)
			m.RecordOperation("normalize", 5)
			m.RecordOperationError("normalize", "zero_best_value")

			Convey("Then calls and records are accumulated", func() {
				So(testutil.ToFloat64(m.operations.WithLabelValues("normalize")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.operationRecords.WithLabelValues("normalize")), ShouldEqual, 15)
				So(testutil.ToFloat64(m.operationErrors.WithLabelValues("normalize", "zero_best_value")), ShouldEqual, 1)
			})
		})

		Convey("When recording dataset loads", func() {
			m.RecordDatasetLoad(100, 7, 2, nil)
			m.RecordDatasetLoad(0, 0, 1, errors.New("bad file"))

			Convey("Then a failed load keeps the previous gauges", func() {
				So(testutil.ToFloat64(m.datasetRecords), ShouldEqual, 100)
				So(testutil.ToFloat64(m.datasetColumns), ShouldEqual, 7)
				So(testutil.ToFloat64(m.datasetReloads.WithLabelValues("error")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.datasetLastLoadUnix), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When recording HTTP metrics", func() {
			m.RecordHTTPRequest("/api/columns", "GET", "200", 1.2)
			m.RecordErrorByEndpoint("/api/quantiles", "POST", "missing_field")
			m.RecordSchemaRejection("quantiles")

			Convey("Then counters are incremented", func() {
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/columns", "GET", "200")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.errorsByEndpoint.WithLabelValues("/api/quantiles", "POST", "missing_field")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.schemaRejections.WithLabelValues("quantiles")), ShouldEqual, 1)
			})
		})

		Convey("When recording system metrics", func() {
			m.UpdateSystem(1<<20, 12)
			So(testutil.ToFloat64(m.systemMemoryUsage), ShouldEqual, 1<<20)
			So(testutil.ToFloat64(m.systemGoroutineCount), ShouldEqual, 12)
		})
	})

	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithEnabled(false))

		Convey("When recording", func() {
			m.RecordOperation("quantiles", 1)

			Convey("Then nothing is observed", func() {
				So(testutil.ToFloat64(m.operations.WithLabelValues("quantiles")), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalRegistry(t *testing.T) {
	Convey("Given the global helpers", t, func() {
		So(func() {
			RecordFigure("bands", 4, 1, nil)
			RecordOperation("quantiles", 2)
			RecordOperationError("quantiles", "empty_group")
			RecordDatasetLoad(1, 1, 1, nil)
			RecordHTTPRequest("/stats", "GET", "200", 0.3)
			RecordErrorByEndpoint("/stats", "GET", "internal")
			RecordSchemaRejection("normalize")
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(3)
			RecordSystemGCPauseTime(0.2)
		}, ShouldNotPanic)

		Convey("Then the custom registry exposes them", func() {
			n, err := testutil.GatherAndCount(GetRegistry())
			So(err, ShouldBeNil)
			So(n, ShouldBeGreaterThan, 0)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "tdiag_diagnostics_figure_builds_total")
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}
