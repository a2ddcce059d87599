// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package config

import "time"

// Database drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Event transports.
const (
	TransportNATS   = "nats"
	TransportMemory = "memory"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Cluster  ClusterConfig  `koanf:"cluster"`
	Hotspot  HotspotConfig  `koanf:"hotspot"`
	Perf     PerfConfig     `koanf:"perf"`
	Events   EventsConfig   `koanf:"events"`
	Tracing  TracingConfig  `koanf:"tracing"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig holds record store settings.
type DatabaseConfig struct {
	Driver       string        `koanf:"driver"`    // duckdb, sqlite or memory
	Path         string        `koanf:"path"`      // Empty opens an in-memory database
	SeedPath     string        `koanf:"seed_path"` // Optional GeoJSON file loaded at startup
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads"` // DuckDB threads (0 = use NumCPU)
	MaxOpenConns int           `koanf:"max_open_conns"`
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// Circuit breaker around every store call
	BreakerEnabled     bool          `koanf:"breaker_enabled"`
	BreakerThreshold   uint32        `koanf:"breaker_threshold"` // Consecutive failures before opening
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`   // Open duration before half-open probe
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
}

// CacheConfig holds cluster result cache settings.
type CacheConfig struct {
	TTL            time.Duration `koanf:"ttl"`
	MaxEntries     int           `koanf:"max_entries"`
	KeyPrecision   int           `koanf:"key_precision"`   // Decimal places the viewport is rounded to
	ComputeTimeout time.Duration `koanf:"compute_timeout"` // Bound on a coalesced computation
}

// ClusterConfig holds clustering grid settings.
type ClusterConfig struct {
	BaseCellSize float64 `koanf:"base_cell_size"` // Degrees per cell at min zoom
	MinZoom      int     `koanf:"min_zoom"`
	DefaultZoom  int     `koanf:"default_zoom"`
}

// HotspotConfig holds hotspot aggregation settings.
type HotspotConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Interval         time.Duration `koanf:"interval"`
	RefreshTimeout   time.Duration `koanf:"refresh_timeout"`
	RefreshOnStartup bool          `koanf:"refresh_on_startup"`
	RetryInterval    time.Duration `koanf:"retry_interval"` // Minimum spacing of retries after a failed refresh
	CellLevel        int           `koanf:"cell_level"` // S2 cell level of a hotspot bucket
	DefaultLimit     int           `koanf:"default_limit"`
	MaxLimit         int           `koanf:"max_limit"`
	CheckpointPath   string        `koanf:"checkpoint_path"` // Badger directory; empty disables checkpoints
}

// PerfConfig holds performance monitor settings.
type PerfConfig struct {
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
	RequestBudget      time.Duration `koanf:"request_budget"`
	WindowSize         int           `koanf:"window_size"`
	SlowQueryHistory   int           `koanf:"slow_query_history"`
}

// EventsConfig holds cache invalidation event settings.
type EventsConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Transport        string        `koanf:"transport"` // nats or memory
	URL              string        `koanf:"url"`
	EmbeddedNATS     bool          `koanf:"embedded_nats"`
	StoreDir         string        `koanf:"store_dir"`
	Topic            string        `koanf:"topic"`
	QueueGroup       string        `koanf:"queue_group"`
	DurableName      string        `koanf:"durable_name"`
	SubscribersCount int           `koanf:"subscribers_count"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	ServiceName string  `koanf:"service_name"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// SecurityConfig holds HTTP edge protection settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}
