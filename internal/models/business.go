// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package models

import "time"

// BusinessRecord is a business row as returned by the record store.
// The discovery engine never mutates it.
type BusinessRecord struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Type     string  `json:"type"`   // Lowercase category, e.g. "restaurant"
	Rating   float64 `json:"rating"` // 0-5 stars
	Verified bool    `json:"verified"`
}

// Cluster is an aggregate of the businesses falling in one grid cell.
type Cluster struct {
	ID               string         `json:"id"` // Stable cell key "z{zoom}:{x}:{y}"
	Centroid         LatLng         `json:"centroid"`
	BusinessCount    int            `json:"businessCount"`
	BBox             BoundingBox    `json:"bbox"` // Extent of member coordinates
	DominantCategory string         `json:"dominantCategory"`
	AvgRating        float64        `json:"avgRating"`
	CategoryMix      map[string]int `json:"categoryMix"`
	BusinessIDs      []string       `json:"businessIds"` // Sorted member IDs
}

// HotspotEntry is one row of the precomputed category density index.
type HotspotEntry struct {
	BusinessType  string  `json:"businessType"`
	Location      LatLng  `json:"location"` // Mean position of the bucket's businesses
	Score         float64 `json:"score"`
	BusinessCount int     `json:"businessCount"`
	AvgRating     float64 `json:"avgRating"`
	CellToken     string  `json:"cellToken"` // S2 cell token of the bucket
}

// HotspotSnapshot is a complete, immutable result of one aggregation cycle.
type HotspotSnapshot struct {
	ID          string         `json:"id"`
	Entries     []HotspotEntry `json:"entries"` // Sorted by descending score
	GeneratedAt time.Time      `json:"generatedAt"`
	SourceCount int            `json:"sourceCount"` // Records scanned to build it
}

// CategoryCount is the number of verified businesses per category.
type CategoryCount struct {
	BusinessType  string  `json:"businessType"`
	BusinessCount int     `json:"businessCount"`
	AvgRating     float64 `json:"avgRating"`
}
