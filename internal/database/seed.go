// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"

	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/models"
)

// seedBatchSize bounds the rows written per upsert transaction.
const seedBatchSize = 1000

// ParseGeoJSON converts a FeatureCollection of Point features into records.
// The feature id (or an "id" property) becomes the record ID; "type" (or
// "business_type"), "rating" and "verified" are read from properties.
func ParseGeoJSON(data []byte) ([]models.BusinessRecord, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	records := make([]models.BusinessRecord, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			return nil, fmt.Errorf("feature %d: geometry must be a Point", i)
		}

		id := featureID(f)
		if id == "" {
			return nil, fmt.Errorf("feature %d: missing id", i)
		}

		businessType := f.PropertyMustString("type", "")
		if businessType == "" {
			businessType = f.PropertyMustString("business_type", "")
		}
		if businessType == "" {
			return nil, fmt.Errorf("feature %s: missing type property", id)
		}

		records = append(records, models.BusinessRecord{
			ID:       id,
			Lng:      f.Geometry.Point[0],
			Lat:      f.Geometry.Point[1],
			Type:     businessType,
			Rating:   f.PropertyMustFloat64("rating", 0),
			Verified: f.PropertyMustBool("verified", false),
		})
	}
	return records, nil
}

func featureID(f *geojson.Feature) string {
	switch v := f.ID.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return f.PropertyMustString("id", "")
}

// SeedFromFile loads a GeoJSON file into store in batches and returns the
// number of records written.
func SeedFromFile(ctx context.Context, store Store, path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	records, err := ParseGeoJSON(data)
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(records); start += seedBatchSize {
		end := min(start+seedBatchSize, len(records))
		if err := store.UpsertBusinesses(ctx, records[start:end]); err != nil {
			return start, fmt.Errorf("failed to seed records %d-%d: %w", start, end, err)
		}
	}

	logging.Info().Str("path", path).Int("records", len(records)).Msg("Seeded record store")
	return len(records), nil
}
