// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package models

import (
	"fmt"
	"math"
)

// Zoom limits for cluster queries.
const (
	MinZoom     = 1
	MaxZoom     = 20
	DefaultZoom = 12
)

// LatLng is a coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is a rectangular lat/lng viewport in degrees.
type BoundingBox struct {
	South float64 `json:"south"` // Southern latitude bound
	West  float64 `json:"west"`  // Western longitude bound
	North float64 `json:"north"` // Northern latitude bound
	East  float64 `json:"east"`  // Eastern longitude bound
}

// Validate checks coordinate ranges and ordering. The returned error is a
// *ValidationError naming the first offending field.
func (b BoundingBox) Validate() error {
	checks := []struct {
		field string
		value float64
		limit float64
	}{
		{"south", b.South, 90},
		{"west", b.West, 180},
		{"north", b.North, 90},
		{"east", b.East, 180},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return NewValidationError(c.field, "must be a finite number")
		}
		if c.value < -c.limit || c.value > c.limit {
			return NewValidationError(c.field, fmt.Sprintf("must be between %g and %g", -c.limit, c.limit))
		}
	}
	if b.South >= b.North {
		return NewValidationError("south", "must be less than north")
	}
	if b.West >= b.East {
		return NewValidationError("west", "must be less than east")
	}
	return nil
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// Extend returns the smallest box covering both b and the point.
func (b BoundingBox) Extend(lat, lng float64) BoundingBox {
	return BoundingBox{
		South: math.Min(b.South, lat),
		West:  math.Min(b.West, lng),
		North: math.Max(b.North, lat),
		East:  math.Max(b.East, lng),
	}
}

// PointBounds returns a degenerate box around a single point.
func PointBounds(lat, lng float64) BoundingBox {
	return BoundingBox{South: lat, West: lng, North: lat, East: lng}
}

// Round snaps every edge to the given number of decimal places.
func (b BoundingBox) Round(precision int) BoundingBox {
	scale := math.Pow(10, float64(precision))
	round := func(v float64) float64 { return math.Round(v*scale) / scale }
	return BoundingBox{
		South: round(b.South),
		West:  round(b.West),
		North: round(b.North),
		East:  round(b.East),
	}
}

// ValidateZoom checks that zoom lies within [MinZoom, MaxZoom].
func ValidateZoom(zoom int) error {
	if zoom < MinZoom || zoom > MaxZoom {
		return NewValidationError("zoom", fmt.Sprintf("must be between %d and %d", MinZoom, MaxZoom))
	}
	return nil
}
