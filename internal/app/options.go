package service

import (
	"github.com/jonboulle/clockwork"

	"github.com/okian/sideline/internal/report"
	"github.com/okian/sideline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the maximum number of pending commands.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many command ids are remembered. Zero or less
// keeps every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source for the match clock ticks.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clk = c
		}
	}
}

// WithSurfaceHeight sets the initial surface height; the field/bench
// boundary starts at half of it.
func WithSurfaceHeight(height float64) Option {
	return func(s *Service) {
		if height > 0 {
			s.surfaceHeight = height
		}
	}
}

// WithPlayerNames seeds the roster with the given names.
func WithPlayerNames(names []string) Option {
	return func(s *Service) {
		if len(names) > 0 {
			s.playerNames = append([]string(nil), names...)
		}
	}
}

// WithMailer sets the mail capability used by SendReport.
func WithMailer(m report.Mailer) Option {
	return func(s *Service) {
		if m != nil {
			s.mailer = m
		}
	}
}
