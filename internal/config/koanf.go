// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geodiscovery/config.yaml",
	"/etc/geodiscovery/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:             DriverDuckDB,
			Path:               "/data/geodiscovery.duckdb",
			SeedPath:           "",
			MaxMemory:          "1GB",
			Threads:            0, // 0 = use runtime.NumCPU()
			MaxOpenConns:       0, // 0 = use runtime.NumCPU()
			QueryTimeout:       2 * time.Second,
			BreakerEnabled:     true,
			BreakerThreshold:   5,
			BreakerTimeout:     30 * time.Second,
			BreakerMaxRequests: 1,
			BreakerInterval:    time.Minute,
		},
		Cache: CacheConfig{
			TTL:            60 * time.Second,
			MaxEntries:     10000,
			KeyPrecision:   3,
			ComputeTimeout: 5 * time.Second,
		},
		Cluster: ClusterConfig{
			BaseCellSize: 10.0,
			MinZoom:      1,
			DefaultZoom:  12,
		},
		Hotspot: HotspotConfig{
			Enabled:          true,
			Interval:         15 * time.Minute,
			RefreshTimeout:   2 * time.Minute,
			RefreshOnStartup: true,
			RetryInterval:    30 * time.Second,
			CellLevel:        10, // ~10km cells
			DefaultLimit:     50,
			MaxLimit:         500,
			CheckpointPath:   "",
		},
		Perf: PerfConfig{
			SlowQueryThreshold: 200 * time.Millisecond,
			RequestBudget:      time.Second,
			WindowSize:         1000,
			SlowQueryHistory:   50,
		},
		Events: EventsConfig{
			Enabled:          false,
			Transport:        TransportNATS,
			URL:              "nats://127.0.0.1:4222",
			EmbeddedNATS:     false,
			StoreDir:         "/data/nats/jetstream",
			Topic:            "business.changed",
			QueueGroup:       "geodiscovery",
			DurableName:      "cache-invalidator",
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     10 * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "geodiscovery",
			SampleRatio: 1.0,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while YAML already yields slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths, for example:
//   - HTTP_PORT -> server.port
//   - DATABASE_DRIVER -> database.driver
//   - CACHE_TTL -> cache.ttl
//
// Unknown variables map to "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":        "server.port",
		"http_host":        "server.host",
		"http_timeout":     "server.timeout",
		"shutdown_timeout": "server.shutdown_timeout",
		"environment":      "server.environment",

		// Database mappings
		"database_driver":            "database.driver",
		"database_path":              "database.path",
		"duckdb_path":                "database.path",
		"database_seed_path":         "database.seed_path",
		"duckdb_max_memory":          "database.max_memory",
		"duckdb_threads":             "database.threads",
		"database_max_open_conns":    "database.max_open_conns",
		"database_query_timeout":     "database.query_timeout",
		"database_breaker_enabled":   "database.breaker_enabled",
		"database_breaker_threshold": "database.breaker_threshold",
		"database_breaker_timeout":   "database.breaker_timeout",

		// Cache mappings
		"cache_ttl":             "cache.ttl",
		"cache_max_entries":     "cache.max_entries",
		"cache_key_precision":   "cache.key_precision",
		"cache_compute_timeout": "cache.compute_timeout",

		// Clustering mappings
		"cluster_base_cell_size": "cluster.base_cell_size",
		"cluster_default_zoom":   "cluster.default_zoom",

		// Hotspot mappings
		"hotspot_enabled":            "hotspot.enabled",
		"hotspot_interval":           "hotspot.interval",
		"hotspot_refresh_timeout":    "hotspot.refresh_timeout",
		"hotspot_refresh_on_startup": "hotspot.refresh_on_startup",
		"hotspot_retry_interval":     "hotspot.retry_interval",
		"hotspot_cell_level":         "hotspot.cell_level",
		"hotspot_default_limit":      "hotspot.default_limit",
		"hotspot_max_limit":          "hotspot.max_limit",
		"hotspot_checkpoint_path":    "hotspot.checkpoint_path",

		// Performance mappings
		"slow_query_threshold": "perf.slow_query_threshold",
		"request_budget":       "perf.request_budget",
		"perf_window_size":     "perf.window_size",
		"perf_slow_history":    "perf.slow_query_history",

		// Events mappings
		"events_enabled":    "events.enabled",
		"events_transport":  "events.transport",
		"events_topic":      "events.topic",
		"nats_url":          "events.url",
		"nats_embedded":     "events.embedded_nats",
		"nats_store_dir":    "events.store_dir",
		"nats_queue_group":  "events.queue_group",
		"nats_durable_name": "events.durable_name",
		"nats_subscribers":  "events.subscribers_count",

		// Tracing mappings
		"tracing_enabled":      "tracing.enabled",
		"tracing_service_name": "tracing.service_name",
		"tracing_sample_ratio": "tracing.sample_ratio",

		// Security mappings
		"cors_origins":        "security.cors_origins",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	return ""
}
