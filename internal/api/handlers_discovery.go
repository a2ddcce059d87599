// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/geodiscovery/internal/cluster"
	"github.com/tomtom215/geodiscovery/internal/discovery"
)

// Clusters handles GET /api/v1/discovery/clusters.
//
// Query parameters: south, west, north, east (required), zoom, types
// (repeated or comma-separated), minRating, verified, format (json|geojson).
func (h *Handler) Clusters(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := parseClusterRequest(r)
	if err != nil {
		respondDomainError(w, r, err, start)
		return
	}

	result, err := h.discovery.Clusters(r.Context(), req.Query())
	if err != nil {
		respondDomainError(w, r, err, start)
		return
	}

	if req.Format == formatGeoJSON {
		respondGeoJSON(w, http.StatusOK, cluster.ToFeatureCollection(result.Clusters))
		return
	}
	respondSuccess(w, r, result, start, result.Performance.CacheUsed)
}

// Hotspots handles GET /api/v1/discovery/hotspots.
func (h *Handler) Hotspots(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := parseHotspotRequest(r)
	if err != nil {
		respondDomainError(w, r, err, start)
		return
	}

	result := h.discovery.Hotspots(r.Context(), discovery.HotspotQuery{
		BusinessType: req.BusinessType,
		Limit:        req.Limit,
	})
	respondSuccess(w, r, result, start, false)
}

// Categories handles GET /api/v1/discovery/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.discovery.Categories(r.Context())
	if err != nil {
		respondDomainError(w, r, err, start)
		return
	}
	respondSuccess(w, r, result, start, result.Performance.CacheUsed)
}

// Performance handles GET /api/v1/discovery/performance.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.discovery.Performance(), time.Now(), false)
}

// InvalidateCache handles POST /api/v1/discovery/cache/invalidate.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	removed := h.discovery.InvalidateCache(r.Context(), "api")
	respondSuccess(w, r, map[string]interface{}{"removed": removed}, start, false)
}
