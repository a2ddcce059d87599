// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/geodiscovery/internal/metrics"
	"github.com/tomtom215/geodiscovery/internal/models"
)

const hotspotColumns = "business_type, cell_token, lat, lng, score, business_count, avg_rating"

// ReplaceHotspots swaps the materialized hotspot rows in one transaction,
// so readers see either the previous set or the new one.
func (db *DB) ReplaceHotspots(ctx context.Context, rows []models.HotspotEntry) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("replace_hotspots", db.driver, time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM hotspots"); err != nil {
		rollbackQuietly(tx)
		return fmt.Errorf("failed to clear hotspots: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO hotspots ("+hotspotColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			rollbackQuietly(tx)
			return fmt.Errorf("failed to prepare hotspot insert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for i := range rows {
			h := &rows[i]
			if _, err := stmt.ExecContext(ctx, h.BusinessType, h.CellToken, h.Location.Lat, h.Location.Lng,
				h.Score, h.BusinessCount, h.AvgRating); err != nil {
				rollbackQuietly(tx)
				return fmt.Errorf("failed to insert hotspot %s/%s: %w", h.BusinessType, h.CellToken, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hotspots: %w", err)
	}
	return nil
}

// ReadHotspots returns the materialized rows by descending score.
func (db *DB) ReadHotspots(ctx context.Context) (entries []models.HotspotEntry, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("read_hotspots", db.driver, time.Since(start), err) }()

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx,
		"SELECT "+hotspotColumns+" FROM hotspots ORDER BY score DESC, business_type, cell_token")
	if err != nil {
		return nil, fmt.Errorf("failed to query hotspots: %w", err)
	}
	defer closeQuietly(rows)

	entries = make([]models.HotspotEntry, 0, 64)
	for rows.Next() {
		var h models.HotspotEntry
		if err := rows.Scan(&h.BusinessType, &h.CellToken, &h.Location.Lat, &h.Location.Lng,
			&h.Score, &h.BusinessCount, &h.AvgRating); err != nil {
			return nil, fmt.Errorf("failed to scan hotspot: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hotspots: %w", err)
	}
	return entries, nil
}
