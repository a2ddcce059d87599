// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/metrics"
	"github.com/tomtom215/geodiscovery/internal/models"
)

const businessColumns = "id, lat, lng, business_type, rating, verified"

// FindWithinBounds returns the records inside box that match f, ordered by ID.
func (db *DB) FindWithinBounds(ctx context.Context, box models.BoundingBox, f filter.Filter) ([]models.BusinessRecord, error) {
	where, args := filter.Render(filter.ForQuery(box, f))
	query := "SELECT " + businessColumns + " FROM businesses WHERE " + where + " ORDER BY id"
	return db.queryBusinesses(ctx, "find_within_bounds", query, args...)
}

// AllBusinesses returns every record, ordered by ID.
func (db *DB) AllBusinesses(ctx context.Context) ([]models.BusinessRecord, error) {
	return db.queryBusinesses(ctx, "all_businesses", "SELECT "+businessColumns+" FROM businesses ORDER BY id")
}

func (db *DB) queryBusinesses(ctx context.Context, op, query string, args ...interface{}) (records []models.BusinessRecord, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, db.driver, time.Since(start), err) }()

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer closeQuietly(rows)

	records = make([]models.BusinessRecord, 0, 64)
	for rows.Next() {
		var r models.BusinessRecord
		if err := rows.Scan(&r.ID, &r.Lat, &r.Lng, &r.Type, &r.Rating, &r.Verified); err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate businesses: %w", err)
	}
	return records, nil
}

// CountByCategory returns verified business counts per type, largest first.
func (db *DB) CountByCategory(ctx context.Context) (counts []models.CategoryCount, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("count_by_category", db.driver, time.Since(start), err) }()

	where, args := filter.Render(filter.VerifiedOnly())
	query := `SELECT business_type, COUNT(*) AS business_count, AVG(rating) AS avg_rating
		FROM businesses WHERE ` + where + `
		GROUP BY business_type
		ORDER BY business_count DESC, business_type`

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer closeQuietly(rows)

	counts = make([]models.CategoryCount, 0, 16)
	for rows.Next() {
		var c models.CategoryCount
		var avg sql.NullFloat64
		if err := rows.Scan(&c.BusinessType, &c.BusinessCount, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		c.AvgRating = roundRating(avg.Float64)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category counts: %w", err)
	}
	return counts, nil
}

// UpsertBusinesses inserts or replaces records by ID in one transaction.
func (db *DB) UpsertBusinesses(ctx context.Context, records []models.BusinessRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	normalized, err := normalizeRecords(records)
	if err != nil {
		return err
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert_businesses", db.driver, time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO businesses ("+businessColumns+") VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		rollbackQuietly(tx)
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range normalized {
		r := &normalized[i]
		if _, err := stmt.ExecContext(ctx, r.ID, r.Lat, r.Lng, r.Type, r.Rating, r.Verified); err != nil {
			rollbackQuietly(tx)
			return fmt.Errorf("failed to upsert business %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// DeleteBusinesses removes records by ID. Unknown IDs are ignored.
func (db *DB) DeleteBusinesses(ctx context.Context, ids []string) (err error) {
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete_businesses", db.driver, time.Since(start), err) }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(qctx, "DELETE FROM businesses WHERE id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("failed to delete businesses: %w", err)
	}
	return nil
}

// normalizeRecords validates records and lowercases their types, returning a copy.
func normalizeRecords(records []models.BusinessRecord) ([]models.BusinessRecord, error) {
	out := make([]models.BusinessRecord, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("business at index %d has no id", i)
		}
		if math.IsNaN(r.Lat) || math.IsNaN(r.Lng) || r.Lat < -90 || r.Lat > 90 || r.Lng < -180 || r.Lng > 180 {
			return nil, fmt.Errorf("business %s has invalid coordinates (%g, %g)", r.ID, r.Lat, r.Lng)
		}
		if math.IsNaN(r.Rating) || r.Rating < 0 {
			r.Rating = 0
		}
		r.Type = strings.ToLower(strings.TrimSpace(r.Type))
		out[i] = r
	}
	return out, nil
}

// roundRating rounds an average rating to two decimals.
func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}
