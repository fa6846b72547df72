package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/okian/sideline/internal/adapters/http/api"
	"github.com/okian/sideline/internal/adapters/http/stream"
	"github.com/okian/sideline/internal/adapters/http/swagger"
	app "github.com/okian/sideline/internal/app"
	"github.com/okian/sideline/internal/config"
	"github.com/okian/sideline/internal/report"
	"github.com/okian/sideline/pkg/logger"
	"github.com/okian/sideline/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start session", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	if interval, enabled := configureMetrics(cfg); enabled {
		go startSystemMetricsUpdater(ctx, interval)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService builds the session from configuration.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	opts := []app.Option{
		app.WithLogger(log.Named("session")),
		app.WithQueueSize(cfg.CommandQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithSurfaceHeight(cfg.SurfaceHeight),
		app.WithPlayerNames(cfg.PlayerNames),
	}
	if cfg.MailEnabled() {
		var mailOpts []report.SMTPOption
		if cfg.SMTPUsername != "" {
			mailOpts = append(mailOpts, report.WithAuth(cfg.SMTPUsername, cfg.SMTPPassword))
		}
		opts = append(opts, app.WithMailer(report.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom, cfg.MailTo, mailOpts...)))
	}
	return app.New(opts...)
}

// newHandler wires API, stream and docs routes behind CORS. Cleartext
// HTTP/2 is accepted alongside HTTP/1.1.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	api.NewServer(svc, svc).Register(ctx, mux)

	ws := stream.NewHandler(svc,
		stream.WithLogger(log.Named("stream")),
		stream.WithConfig(streamConfig(cfg)),
	)
	mux.Handle("GET /ws", api.Instrument("ws", ws))

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
		},
		AllowedOrigins: cfg.CORSOrigins,
		AllowedHeaders: []string{"Content-Type", api.CommandIDHeader},
	})
	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

// streamConfig lets websocket origins follow the CORS allow-list.
func streamConfig(cfg *config.Config) stream.Config {
	sc := stream.DefaultConfig()
	allowed := mapset.NewSet(cfg.CORSOrigins...)
	sc.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed.Contains("*") || allowed.Contains(origin)
	}
	return sc
}

// configureMetrics applies the metrics settings and returns the sampling
// interval and whether recording is on.
func configureMetrics(cfg *config.Config) (time.Duration, bool) {
	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsRefreshInterval),
	)
	return metrics.RefreshInterval(), metrics.Enabled()
}

// startSystemMetricsUpdater samples system metrics every interval until ctx ends.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
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
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
