package repository

import (
	"time"

	"github.com/placementcell/eligibility/pkg/logger"
)

// Default connection pool settings.
const (
	defaultMaxOpenConns    = 20
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute
)

type gormSettings struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	logLevel        string
	tracing         bool
	autoMigrate     bool
	log             logger.Logger
}

// Option applies a configuration option to the GormStore.
type Option func(*gormSettings)

// WithMaxOpenConns caps open connections.
func WithMaxOpenConns(n int) Option {
	return func(s *gormSettings) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns caps idle connections.
func WithMaxIdleConns(n int) Option {
	return func(s *gormSettings) {
		if n >= 0 {
			s.maxIdleConns = n
		}
	}
}

// WithConnMaxLifetime sets how long a connection may be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(s *gormSettings) {
		if d > 0 {
			s.connMaxLifetime = d
		}
	}
}

// WithLogLevel sets the gorm SQL log level: silent, error, warn or info.
func WithLogLevel(level string) Option {
	return func(s *gormSettings) {
		s.logLevel = level
	}
}

// WithTracing toggles the OpenTelemetry span per statement.
func WithTracing(enabled bool) Option {
	return func(s *gormSettings) {
		s.tracing = enabled
	}
}

// WithAutoMigrate toggles schema migration on open.
func WithAutoMigrate(enabled bool) Option {
	return func(s *gormSettings) {
		s.autoMigrate = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *gormSettings) {
		if l != nil {
			s.log = l
		}
	}
}
