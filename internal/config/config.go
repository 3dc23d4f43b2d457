// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and PLACEMENT_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects json or console output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence driver: memory or mysql.
	Store string `koanf:"store"`
	// SeedFile optionally points at a YAML fixture file loaded at startup.
	SeedFile string `koanf:"seed_file"`

	// MySQLDSN is the go-sql-driver DSN used when Store is mysql.
	MySQLDSN                    string `koanf:"mysql_dsn"`
	MySQLMaxOpenConns           int    `koanf:"mysql_max_open_conns"`
	MySQLMaxIdleConns           int    `koanf:"mysql_max_idle_conns"`
	MySQLConnMaxLifetimeMinutes int    `koanf:"mysql_conn_max_lifetime_minutes"`
	// MySQLLogLevel is the gorm logger level: silent, error, warn, info.
	MySQLLogLevel string `koanf:"mysql_log_level"`
	// MySQLAutoMigrate creates or updates tables on startup.
	MySQLAutoMigrate bool `koanf:"mysql_auto_migrate"`
	// MySQLTracing installs OpenTelemetry spans on every query.
	MySQLTracing bool `koanf:"mysql_tracing"`

	// EventQueueSize bounds the in-memory decision-event queue.
	EventQueueSize int `koanf:"event_queue_size"`
	// EventWorkers sets the number of publisher workers.
	EventWorkers int `koanf:"event_workers"`

	// AMQPURL enables RabbitMQ publishing of decision events when set.
	AMQPURL        string `koanf:"amqp_url"`
	AMQPExchange   string `koanf:"amqp_exchange"`
	AMQPRoutingKey string `koanf:"amqp_routing_key"`

	// SweepTimeoutSeconds bounds one re-evaluation sweep; 0 means no limit.
	SweepTimeoutSeconds int `koanf:"sweep_timeout_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                    "info",
		LogFormat:                   "json",
		Addr:                        ":9080",
		Store:                       StoreMemory,
		MySQLMaxOpenConns:           20,
		MySQLMaxIdleConns:           10,
		MySQLConnMaxLifetimeMinutes: 30,
		MySQLLogLevel:               "warn",
		MySQLAutoMigrate:            true,
		EventQueueSize:              10_000,
		EventWorkers:                4,
		AMQPExchange:                "placement.decisions",
		AMQPRoutingKey:              "application.decision",
		SweepTimeoutSeconds:         300,
	}
}

// Validate checks option ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.Store != StoreMemory && c.Store != StoreMySQL:
		return invalid(fmt.Sprintf("store must be %q or %q, got %q", StoreMemory, StoreMySQL, c.Store))
	case c.Store == StoreMySQL && strings.TrimSpace(c.MySQLDSN) == "":
		return invalid("mysql_dsn is required when store is mysql")
	case c.EventQueueSize < 1:
		return invalid("event_queue_size must be positive")
	case c.EventWorkers < 0:
		return invalid("event_workers must not be negative")
	case c.SweepTimeoutSeconds < 0:
		return invalid("sweep_timeout_seconds must not be negative")
	case c.MySQLMaxOpenConns < 0 || c.MySQLMaxIdleConns < 0 || c.MySQLConnMaxLifetimeMinutes < 0:
		return invalid("mysql pool settings must not be negative")
	}
	return nil
}

// SweepTimeout returns the sweep deadline as a duration.
func (c *Config) SweepTimeout() time.Duration {
	return time.Duration(c.SweepTimeoutSeconds) * time.Second
}

// ConnMaxLifetime returns the pooled connection lifetime.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.MySQLConnMaxLifetimeMinutes) * time.Minute
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
