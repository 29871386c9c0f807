package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/transformdiag/internal/config"
	"github.com/okian/transformdiag/pkg/logger"
	"github.com/okian/transformdiag/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

const diagCSV = `target,target_config,transform,chain,log_scale,estimate,bfmi
dirichlet,N3,ALR,1,true,mean,0.8
dirichlet,N3,ILR,1,true,mean,0.9
`

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diag.csv")
	if err := os.WriteFile(path, []byte(diagCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		ctx := context.Background()

		convey.Convey("When configuration comes from the environment", func() {
			t.Setenv("TDIAG_ADDR", ":8080")
			t.Setenv("TDIAG_DATA_PATH", writeCSV(t))
			t.Setenv("TDIAG_LOWER_IS_BETTER", "bfmi")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the service and routes come up", func() {
				svc, err := newService(cfg, logger.Get())
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				defer svc.Stop()

				mux := newMux(ctx, cfg, svc, logger.Get())

				convey.So(get(mux, "/").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get(mux, "/api-docs").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get(mux, "/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get(mux, "/healthz").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get(mux, "/api/columns").Code, convey.ShouldEqual, http.StatusOK)

				w := get(mux, "/api/figures/summary?column=bfmi&normalized=true")
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "bfmi_normalized")
			})
		})

		convey.Convey("When no dataset is configured", func() {
			cfg := config.New(ctx)
			svc, err := newService(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then figure routes answer 503", func() {
				mux := newMux(ctx, cfg, svc, logger.Get())
				convey.So(get(mux, "/api/figures/summary?column=bfmi").Code, convey.ShouldEqual, http.StatusServiceUnavailable)
				convey.So(get(mux, "/api/columns").Code, convey.ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		convey.Convey("When polarity lists conflict", func() {
			cfg := config.New(ctx)
			cfg.LowerIsBetter = []string{"bfmi"}
			cfg.HigherIsBetter = []string{"bfmi"}

			convey.Convey("Then the service is not built", func() {
				svc, err := newService(cfg, logger.Get())
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(svc, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the configured address is empty", func() {
			t.Setenv("TDIAG_ADDR", "")

			convey.Convey("Then run fails before serving", func() {
				convey.So(run(ctx), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("When the context expires", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating once", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When creating a manager on a private registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
