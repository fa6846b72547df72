package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/sideline/internal/config"
	"github.com/okian/sideline/pkg/logger"
	"github.com/okian/sideline/pkg/metrics"
)

func TestNewService(t *testing.T) {
	convey.Convey("Given a loaded configuration", t, func() {
		_ = os.Setenv("SIDELINE_PLAYER_NAMES", "Ada,Bo,Cy,Di,Ed")
		defer func() { _ = os.Unsetenv("SIDELINE_PLAYER_NAMES") }()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When mail is not configured", func() {
			svc := newService(cfg, logger.Discard())

			convey.Convey("Then the session has no mail capability", func() {
				convey.So(svc.MailAvailable(), convey.ShouldBeFalse)
			})

			convey.Convey("And the roster uses the configured names", func() {
				convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
				defer svc.Stop()
				snap, err := svc.Snapshot(context.Background())
				convey.So(err, convey.ShouldBeNil)
				_, ok := snap.PlayerByName("Cy")
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When mail is configured", func() {
			cfg.SMTPHost = "smtp.example.com"
			cfg.MailFrom = "coach@example.com"
			cfg.MailTo = []string{"team@example.com"}
			cfg.SMTPUsername = "coach"

			svc := newService(cfg, logger.Discard())
			convey.So(svc.MailAvailable(), convey.ShouldBeTrue)
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given the wired HTTP handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.CORSOrigins = []string{"https://touchline.example"}
		svc := newService(cfg, logger.Discard())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc, logger.Discard())

		convey.Convey("Then API, docs and metrics routes are served", func() {
			for _, path := range []string{"/session", "/labels", "/report", "/stats", "/healthz", "/openapi.yaml", "/api-docs"} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then allowed origins get CORS headers", func() {
			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			req.Header.Set("Origin", "https://touchline.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://touchline.example")
		})

		convey.Convey("Then other origins do not", func() {
			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			req.Header.Set("Origin", "https://elsewhere.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldBeEmpty)
		})

		convey.Convey("Then the stream rejects non-websocket requests", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStreamConfig(t *testing.T) {
	convey.Convey("Given an origin allow-list", t, func() {
		cfg := config.New()
		cfg.CORSOrigins = []string{"https://a.example"}
		check := streamConfig(cfg).CheckOrigin

		req := func(origin string) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if origin != "" {
				r.Header.Set("Origin", origin)
			}
			return r
		}

		convey.So(check(req("https://a.example")), convey.ShouldBeTrue)
		convey.So(check(req("")), convey.ShouldBeTrue)
		convey.So(check(req("https://b.example")), convey.ShouldBeFalse)

		convey.Convey("And a wildcard allows everything", func() {
			cfg.CORSOrigins = []string{"*"}
			convey.So(streamConfig(cfg).CheckOrigin(req("https://b.example")), convey.ShouldBeTrue)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		done := make(chan struct{})
		go func() {
			startSystemMetricsUpdater(ctx, time.Millisecond)
			close(done)
		}()
		<-done
	})
}

func TestConfigureMetrics(t *testing.T) {
	convey.Convey("Given metrics settings", t, func() {
		defer configureMetrics(config.New())

		convey.Convey("When metrics are disabled with a custom interval", func() {
			cfg := config.New()
			cfg.MetricsEnabled = false
			cfg.MetricsRefreshInterval = 3 * time.Second
			interval, enabled := configureMetrics(cfg)

			convey.Convey("Then the global manager follows them", func() {
				convey.So(enabled, convey.ShouldBeFalse)
				convey.So(interval, convey.ShouldEqual, 3*time.Second)
				convey.So(metrics.Enabled(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the defaults are applied", func() {
			interval, enabled := configureMetrics(config.New())

			convey.Convey("Then recording is on at the default interval", func() {
				convey.So(enabled, convey.ShouldBeTrue)
				convey.So(interval, convey.ShouldEqual, 10*time.Second)
			})
		})
	})
}
