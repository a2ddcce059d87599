// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/geodiscovery/internal/config"
	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/models"
)

// Store is the full record store surface used by the service.
type Store interface {
	// FindWithinBounds returns the records inside box matching f, ordered by ID.
	FindWithinBounds(ctx context.Context, box models.BoundingBox, f filter.Filter) ([]models.BusinessRecord, error)

	// AllBusinesses returns every record, ordered by ID.
	AllBusinesses(ctx context.Context) ([]models.BusinessRecord, error)

	// CountByCategory returns verified business counts per type, largest first.
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)

	// UpsertBusinesses inserts or replaces records by ID.
	UpsertBusinesses(ctx context.Context, records []models.BusinessRecord) error

	// DeleteBusinesses removes records by ID. Unknown IDs are ignored.
	DeleteBusinesses(ctx context.Context, ids []string) error

	// ReplaceHotspots atomically replaces the materialized hotspot rows.
	ReplaceHotspots(ctx context.Context, rows []models.HotspotEntry) error

	// ReadHotspots returns the materialized hotspot rows.
	ReadHotspots(ctx context.Context) ([]models.HotspotEntry, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Driver, wrapped in a circuit
// breaker when cfg.BreakerEnabled is set.
func Open(cfg *config.DatabaseConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Driver {
	case config.DriverMemory:
		store = NewMemoryStore()
	case config.DriverDuckDB, config.DriverSQLite:
		store, err = New(cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if cfg.BreakerEnabled {
		store = NewBreakerStore(store, BreakerConfig{
			Name:        "record-store",
			Threshold:   cfg.BreakerThreshold,
			Timeout:     cfg.BreakerTimeout,
			MaxRequests: cfg.BreakerMaxRequests,
			Interval:    cfg.BreakerInterval,
		})
	}
	return store, nil
}
