// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package config loads and validates the service configuration.

# Configuration Sources

Sources are layered with Koanf v2, later layers overriding earlier ones:
  - Built-in defaults (defaultConfig)
  - Optional YAML file: CONFIG_PATH, or the first of DefaultConfigPaths found
  - Environment variables, mapped explicitly by envTransformFunc

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, SHUTDOWN_TIMEOUT, ENVIRONMENT

Database:
  - DATABASE_DRIVER (duckdb, sqlite, memory), DATABASE_PATH, DATABASE_SEED_PATH
  - DATABASE_QUERY_TIMEOUT, DATABASE_MAX_OPEN_CONNS
  - DATABASE_BREAKER_ENABLED, DATABASE_BREAKER_THRESHOLD, DATABASE_BREAKER_TIMEOUT

Cache:
  - CACHE_TTL, CACHE_MAX_ENTRIES, CACHE_KEY_PRECISION, CACHE_COMPUTE_TIMEOUT

Clustering:
  - CLUSTER_BASE_CELL_SIZE, CLUSTER_DEFAULT_ZOOM

Hotspots:
  - HOTSPOT_ENABLED, HOTSPOT_INTERVAL, HOTSPOT_REFRESH_TIMEOUT, HOTSPOT_CELL_LEVEL
  - HOTSPOT_DEFAULT_LIMIT, HOTSPOT_MAX_LIMIT, HOTSPOT_CHECKPOINT_PATH

Performance:
  - SLOW_QUERY_THRESHOLD, REQUEST_BUDGET, PERF_WINDOW_SIZE

Events:
  - EVENTS_ENABLED, EVENTS_TRANSPORT (nats, memory), NATS_URL, NATS_EMBEDDED
  - NATS_STORE_DIR, EVENTS_TOPIC, NATS_QUEUE_GROUP, NATS_SUBSCRIBERS

Tracing:
  - TRACING_ENABLED, TRACING_SERVICE_NAME, TRACING_SAMPLE_RATIO

Security:
  - CORS_ORIGINS (comma-separated), RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW,
    DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.Server.Port)
*/
package config
