package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/peri/internal/adapters/repository"
	app "github.com/okian/peri/internal/app"
	"github.com/okian/peri/internal/config"
	"github.com/okian/peri/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("PERI_ADDR", ":8080")
			_ = os.Setenv("PERI_QUEUE_SIZE", "1000")
			_ = os.Setenv("PERI_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("PERI_ADDR")
				_ = os.Unsetenv("PERI_QUEUE_SIZE")
				_ = os.Unsetenv("PERI_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("PERI_STORE", "mongo")
			defer func() { _ = os.Unsetenv("PERI_STORE") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When the memory store is selected", func() {
			store, err := openStore(ctx, cfg, logger.Nop())

			convey.Convey("Then an in-memory store is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.Backend(), convey.ShouldEqual, repository.BackendMemory)
			})
		})

		convey.Convey("When redis is selected and reachable", func() {
			mr := miniredis.RunT(t)
			cfg.Store = config.StoreRedis
			cfg.RedisAddr = mr.Addr()
			store, err := openStore(ctx, cfg, logger.Nop())

			convey.Convey("Then a redis store is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.Backend(), convey.ShouldEqual, repository.BackendRedis)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When redis is selected and unreachable", func() {
			mr := miniredis.RunT(t)
			cfg.Store = config.StoreRedis
			cfg.RedisAddr = mr.Addr()
			mr.Close()
			_, err := openStore(ctx, cfg, logger.Nop())

			convey.Convey("Then opening fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the application mux", t, func() {
		ctx := context.Background()
		svc := app.New()
		mux := newMux(ctx, svc)

		for _, path := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
			path := path
			convey.Convey("Then GET "+path+" is served", func() {
				req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		}

		convey.Convey("Then the business routes are registered", func() {
			req := httptest.NewRequest(http.MethodPost, "/users/u1/sessions", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the metrics updaters run until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			svc := app.New()

			convey.Convey("Then they return without panicking", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
				convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When metrics are refreshed directly", func() {
			svc := app.New()

			convey.Convey("Then nothing panics", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a config on a free port", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 1

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			err := run(ctx, cfg, logger.Nop())

			convey.Convey("Then run shuts down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}
