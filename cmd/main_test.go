package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/comprank/internal/config"
	"github.com/okian/comprank/pkg/logger"
	"github.com/okian/comprank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("COMPRANK_ADDR", ":8080")
			t.Setenv("COMPRANK_REFRESH_TIMEOUT_MS", "1000")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RefreshTimeout(), convey.ShouldEqual, time.Second)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a configuration pointing at a pool file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "comps.json")
		data := `[
			{"name":"Sorcerers","champions":["Ahri","Lux"],"base_power":1.0},
			{"name":"Brawlers","champions":["Vi","Sett"],"base_power":1.2}
		]`
		convey.So(os.WriteFile(path, []byte(data), 0o600), convey.ShouldBeNil)

		cfg := config.New()
		cfg.CompsPath = path
		cfg.WatchPool = false
		cfg.RefreshCommand = "true"
		cfg.RefreshDir = dir

		convey.Convey("When wiring the service and HTTP server", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			svc := buildService(cfg, logger.Nop())
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			srv := newHTTPServer(ctx, cfg, svc)

			convey.Convey("Then the write timeout covers a meta refresh", func() {
				convey.So(srv.WriteTimeout, convey.ShouldBeGreaterThan, cfg.RefreshTimeout())
				convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
			})

			convey.Convey("And best-comps ranks the configured pool", func() {
				req := httptest.NewRequest(http.MethodPost, "/best-comps",
					strings.NewReader(`{"my_units":["Ahri","Lux"],"enemy_units":[]}`))
				w := httptest.NewRecorder()
				srv.Handler.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldStartWith, `[{"name":"Sorcerers","score":1.6}`)
			})

			convey.Convey("And a malformed lobby is a counted bad request", func() {
				before := svc.GetStats()["rankingErrors"].(int64)
				req := httptest.NewRequest(http.MethodPost, "/best-comps",
					strings.NewReader(`{"my_units":["Ahri"],"enemy_units":[]}}`))
				w := httptest.NewRecorder()
				srv.Handler.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"code":"bad_request"`)
				convey.So(svc.GetStats()["rankingErrors"], convey.ShouldEqual, before+1)
			})

			convey.Convey("And the docs routes are registered", func() {
				req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				srv.Handler.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			t.Setenv("COMPRANK_ADDR", "")

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := buildService(config.New(), logger.Nop())

			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics update", func() {
			svc := buildService(config.New(), logger.Nop())

			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})
		})
	})
}
