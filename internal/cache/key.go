// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cache

import (
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/models"
)

// DefaultKeyPrecision is the number of decimal places a viewport is rounded
// to before hashing (about 110m of latitude).
const DefaultKeyPrecision = 3

// Key prefixes.
const (
	PrefixClusters   = "clusters"
	PrefixCategories = "categories"
)

// GenerateKey creates a cache key from a method name and parameters.
// The parameters are JSON-encoded and hashed for a compact key.
//
// Example:
//
//	key := cache.GenerateKey("categories", nil)
//	// Returns: "categories:a1b2c3d4e5f6..."
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}

type clusterKeyParams struct {
	Bounds models.BoundingBox `json:"b"`
	Zoom   int                `json:"z"`
	Filter filter.Filter      `json:"f"`
}

// ClusterKey derives the cache key of a viewport query. The box is rounded to
// precision decimal places first, so viewports that differ by less than the
// rounding step share an entry.
func ClusterKey(box models.BoundingBox, zoom int, f filter.Filter, precision int) string {
	return GenerateKey(PrefixClusters, clusterKeyParams{
		Bounds: box.Round(precision),
		Zoom:   zoom,
		Filter: f,
	})
}

// CoverBox is the box a computation for ClusterKey(box, ...) should query:
// the rounded box grown by half a rounding step on every side, clamped to
// valid coordinates. It depends only on the rounded box, so every viewport
// sharing a key gets the same result, and it contains each such viewport.
func CoverBox(box models.BoundingBox, precision int) models.BoundingBox {
	r := box.Round(precision)
	half := 0.5 / math.Pow(10, float64(precision))
	return models.BoundingBox{
		South: math.Max(r.South-half, -90),
		West:  math.Max(r.West-half, -180),
		North: math.Min(r.North+half, 90),
		East:  math.Min(r.East+half, 180),
	}
}
