// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package discovery

import (
	"context"
	"time"

	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/models"
	"github.com/tomtom215/geodiscovery/internal/perfmon"
)

// SpatialStore answers viewport queries.
type SpatialStore interface {
	FindWithinBounds(ctx context.Context, box models.BoundingBox, f filter.Filter) ([]models.BusinessRecord, error)
}

// CategoryStore answers per-category counts.
type CategoryStore interface {
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)
}

// Store is the read surface the gateway needs from the record store.
type Store interface {
	SpatialStore
	CategoryStore
}

// HotspotReader serves the precomputed hotspot index.
type HotspotReader interface {
	GetHotspots(businessType string, limit int) []models.HotspotEntry
	EffectiveLimit(limit int) int
	Snapshot() *models.HotspotSnapshot
}

// ClusterQuery is a viewport request before validation.
type ClusterQuery struct {
	Bounds models.BoundingBox
	Zoom   *int // nil selects the default zoom
	Filter filter.Raw
}

// ClusterResult is the response to a viewport request.
type ClusterResult struct {
	Clusters    []models.Cluster `json:"clusters"`
	Metadata    ClusterMetadata  `json:"metadata"`
	Performance Performance      `json:"performance"`
}

// ClusterMetadata echoes the request and summarizes the result.
type ClusterMetadata struct {
	Bounds          models.BoundingBox `json:"bounds"` // Exactly as requested, not rounded
	Zoom            int                `json:"zoom"`
	Filters         filter.Filter      `json:"filters"`
	TotalClusters   int                `json:"totalClusters"`
	TotalBusinesses int                `json:"totalBusinesses"`
}

// Performance describes how a result was produced.
type Performance struct {
	ExecutionTimeMS float64        `json:"executionTimeMs"`
	CacheUsed       bool           `json:"cacheUsed"`
	Degraded        bool           `json:"degraded"`
	Status          perfmon.Status `json:"status"`
}

// HotspotQuery selects hotspot entries.
type HotspotQuery struct {
	BusinessType string // Empty means all categories
	Limit        int    // <= 0 selects the default
}

// HotspotResult is the response to a hotspot request.
type HotspotResult struct {
	Hotspots []models.HotspotEntry `json:"hotspots"`
	Metadata HotspotMetadata       `json:"metadata"`
}

// HotspotMetadata describes the snapshot a hotspot result came from.
type HotspotMetadata struct {
	BusinessType string     `json:"businessType,omitempty"`
	Limit        int        `json:"limit"`
	Count        int        `json:"count"`
	SnapshotID   string     `json:"snapshotId,omitempty"`
	GeneratedAt  *time.Time `json:"generatedAt,omitempty"`
}

// CategoryResult is the response to a categories request.
type CategoryResult struct {
	Categories  []models.CategoryCount `json:"categories"`
	Performance Performance            `json:"performance"`
}
