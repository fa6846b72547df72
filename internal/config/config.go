// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load(ctx) layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"time"

	"github.com/okian/sideline/internal/domain/roster"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CommandQueueSize bounds the in-memory command queue.
	CommandQueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many command ids are remembered for retries.
	DedupeSize int `koanf:"dedupe_size"`

	// SurfaceHeight is the initial playing-surface height; the field/bench
	// boundary starts at half of it until the surface reports a layout.
	SurfaceHeight float64 `koanf:"surface_height"`

	// PlayerNames seeds the roster, in display order.
	PlayerNames []string `koanf:"player_names"`

	// CORSOrigins lists origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshInterval is how often system gauges are sampled.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`

	// Mail settings for sending the match report. Mail is unavailable
	// unless SMTPHost, MailFrom and MailTo are set.
	SMTPHost     string   `koanf:"smtp_host"`
	SMTPPort     int      `koanf:"smtp_port"`
	SMTPUsername string   `koanf:"smtp_username"`
	SMTPPassword string   `koanf:"smtp_password"`
	MailFrom     string   `koanf:"mail_from"`
	MailTo       []string `koanf:"mail_to"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		CommandQueueSize: 1024,
		DedupeSize:       4096,
		SurfaceHeight:    800,
		PlayerNames:      append([]string(nil), roster.DefaultNames...),
		CORSOrigins:      []string{"*"},
		MetricsEnabled:   true,
		SMTPPort:         587,

		MetricsRefreshInterval: 10 * time.Second,
	}
}
