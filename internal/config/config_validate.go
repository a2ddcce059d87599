// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateCache,
		c.validateCluster,
		c.validateHotspot,
		c.validatePerf,
		c.validateEvents,
		c.validateTracing,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of duckdb, sqlite, memory; got %q", c.Database.Driver)
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DATABASE_QUERY_TIMEOUT must be positive")
	}
	if c.Database.BreakerEnabled && c.Database.BreakerThreshold == 0 {
		return fmt.Errorf("DATABASE_BREAKER_THRESHOLD must be at least 1 when the breaker is enabled")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.KeyPrecision < 0 || c.Cache.KeyPrecision > 8 {
		return fmt.Errorf("CACHE_KEY_PRECISION must be between 0 and 8, got %d", c.Cache.KeyPrecision)
	}
	return nil
}

func (c *Config) validateCluster() error {
	if c.Cluster.BaseCellSize <= 0 || c.Cluster.BaseCellSize > 180 {
		return fmt.Errorf("CLUSTER_BASE_CELL_SIZE must be in (0, 180], got %g", c.Cluster.BaseCellSize)
	}
	if c.Cluster.MinZoom < 1 {
		return fmt.Errorf("cluster.min_zoom must be at least 1")
	}
	if c.Cluster.DefaultZoom < 1 || c.Cluster.DefaultZoom > 20 {
		return fmt.Errorf("CLUSTER_DEFAULT_ZOOM must be between 1 and 20, got %d", c.Cluster.DefaultZoom)
	}
	return nil
}

func (c *Config) validateHotspot() error {
	if !c.Hotspot.Enabled {
		return nil
	}
	if c.Hotspot.Interval <= 0 {
		return fmt.Errorf("HOTSPOT_INTERVAL must be positive")
	}
	if c.Hotspot.CellLevel < 1 || c.Hotspot.CellLevel > 30 {
		return fmt.Errorf("HOTSPOT_CELL_LEVEL must be between 1 and 30, got %d", c.Hotspot.CellLevel)
	}
	if c.Hotspot.DefaultLimit < 1 || c.Hotspot.DefaultLimit > c.Hotspot.MaxLimit {
		return fmt.Errorf("HOTSPOT_DEFAULT_LIMIT must be between 1 and HOTSPOT_MAX_LIMIT (%d)", c.Hotspot.MaxLimit)
	}
	return nil
}

func (c *Config) validatePerf() error {
	if c.Perf.SlowQueryThreshold <= 0 {
		return fmt.Errorf("SLOW_QUERY_THRESHOLD must be positive")
	}
	if c.Perf.RequestBudget <= 0 {
		return fmt.Errorf("REQUEST_BUDGET must be positive")
	}
	if c.Perf.WindowSize < 1 {
		return fmt.Errorf("PERF_WINDOW_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	switch c.Events.Transport {
	case TransportNATS:
		if c.Events.URL == "" && !c.Events.EmbeddedNATS {
			return fmt.Errorf("NATS_URL is required when EVENTS_TRANSPORT=nats without an embedded server")
		}
		if c.Events.URL != "" && !c.Events.EmbeddedNATS {
			if err := validateNATSURL(c.Events.URL); err != nil {
				return fmt.Errorf("NATS_URL: %w", err)
			}
		}
	case TransportMemory:
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be nats or memory, got %q", c.Events.Transport)
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required when events are enabled")
	}
	return nil
}

func (c *Config) validateTracing() error {
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0 and 1, got %g", c.Tracing.SampleRatio)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
