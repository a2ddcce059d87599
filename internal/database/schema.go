// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/geodiscovery/internal/config"
)

// Column names match filter.Column* so rendered predicates apply directly.
var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS businesses (
		id TEXT PRIMARY KEY,
		lat DOUBLE NOT NULL,
		lng DOUBLE NOT NULL,
		business_type TEXT NOT NULL,
		rating DOUBLE NOT NULL DEFAULT 0,
		verified BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS hotspots (
		business_type TEXT NOT NULL,
		cell_token TEXT NOT NULL,
		lat DOUBLE NOT NULL,
		lng DOUBLE NOT NULL,
		score DOUBLE NOT NULL,
		business_count INTEGER NOT NULL,
		avg_rating DOUBLE NOT NULL,
		PRIMARY KEY (business_type, cell_token)
	)`,
}

// DuckDB prunes range scans with zonemaps and its ART indexes do not mix
// with INSERT OR REPLACE on indexed columns, so only SQLite gets these.
var sqliteIndexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_businesses_lat_lng ON businesses (lat, lng)`,
	`CREATE INDEX IF NOT EXISTS idx_businesses_type ON businesses (business_type)`,
	`CREATE INDEX IF NOT EXISTS idx_businesses_verified ON businesses (verified)`,
}

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// initialize creates tables and indexes.
func (db *DB) initialize() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := tableCreationQueries
	if db.driver == config.DriverSQLite {
		queries = append(append([]string{}, queries...), sqliteIndexQueries...)
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}
