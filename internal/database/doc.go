// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package database provides the business record store and the materialized
hotspot table.

Three backends implement Store:
  - DuckDB (driver "duckdb"): the production store, one file on disk
  - SQLite (driver "sqlite"): pure-Go modernc.org/sqlite, handy for
    single-binary deployments and tests
  - Memory (driver "memory"): a map behind an RWMutex

The SQL backends share one schema and one set of statements. WHERE clauses
are rendered from filter.Predicate, so the rows a SQL store returns are
exactly the rows the in-memory store matches for the same predicate.

Open wraps the chosen backend in a circuit breaker when
database.breaker_enabled is set. While the breaker is open, calls fail fast
with models.ErrCircuitOpen.

Seed data can be loaded from a GeoJSON FeatureCollection of Point features:

	{"type":"Feature","id":"b1",
	 "geometry":{"type":"Point","coordinates":[-0.1278,51.5074]},
	 "properties":{"type":"restaurant","rating":4.5,"verified":true}}
*/
package database
