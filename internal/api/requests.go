// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/geodiscovery/internal/discovery"
	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/models"
	"github.com/tomtom215/geodiscovery/internal/validation"
)

const formatGeoJSON = "geojson"

// ClusterRequest holds the query parameters of a viewport request.
// Range and ordering checks on the box, zoom and filter belong to the
// discovery gateway; this struct only validates shape.
type ClusterRequest struct {
	South     *float64 `json:"south" validate:"required"`
	West      *float64 `json:"west" validate:"required"`
	North     *float64 `json:"north" validate:"required"`
	East      *float64 `json:"east" validate:"required"`
	Zoom      *int     `json:"zoom"`
	Types     []string `json:"types" validate:"max=50,dive,max=64,business_type"`
	MinRating *float64 `json:"minRating"`
	Verified  *bool    `json:"verified"`
	Format    string   `json:"format" validate:"omitempty,oneof=json geojson"`
}

// Query converts the request into a gateway query.
func (req *ClusterRequest) Query() discovery.ClusterQuery {
	return discovery.ClusterQuery{
		Bounds: models.BoundingBox{
			South: *req.South,
			West:  *req.West,
			North: *req.North,
			East:  *req.East,
		},
		Zoom: req.Zoom,
		Filter: filter.Raw{
			BusinessTypes: req.Types,
			MinRating:     req.MinRating,
			VerifiedOnly:  req.Verified,
		},
	}
}

// HotspotRequest holds the query parameters of a hotspot request.
type HotspotRequest struct {
	BusinessType string `json:"businessType" validate:"max=64,business_type"`
	Limit        int    `json:"limit"`
}

// parseClusterRequest reads and validates the cluster query parameters.
func parseClusterRequest(r *http.Request) (*ClusterRequest, error) {
	q := r.URL.Query()
	req := &ClusterRequest{
		Types:  parseCommaSeparated(q["types"]...),
		Format: strings.ToLower(strings.TrimSpace(q.Get("format"))),
	}

	var err error
	for _, p := range []struct {
		name string
		dst  **float64
	}{
		{"south", &req.South},
		{"west", &req.West},
		{"north", &req.North},
		{"east", &req.East},
		{"minRating", &req.MinRating},
	} {
		if *p.dst, err = parseFloatParam(q.Get(p.name), p.name); err != nil {
			return nil, err
		}
	}

	if raw := strings.TrimSpace(q.Get("zoom")); raw != "" {
		zoom, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return nil, models.NewValidationError("zoom", "must be an integer")
		}
		req.Zoom = &zoom
	}

	if raw := strings.TrimSpace(q.Get("verified")); raw != "" {
		verified, convErr := strconv.ParseBool(raw)
		if convErr != nil {
			return nil, models.NewValidationError("verified", "must be true or false")
		}
		req.Verified = &verified
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr.ToModelError()
	}
	return req, nil
}

// parseHotspotRequest reads the hotspot query parameters. A missing or
// malformed limit selects the default.
func parseHotspotRequest(r *http.Request) (*HotspotRequest, error) {
	req := &HotspotRequest{
		BusinessType: strings.TrimSpace(r.URL.Query().Get("businessType")),
		Limit:        getIntParam(r, "limit", 0),
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr.ToModelError()
	}
	return req, nil
}

// parseFloatParam parses an optional float. Empty yields nil.
func parseFloatParam(value, field string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, models.NewValidationError(field, "must be a number")
	}
	return &f, nil
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// parseCommaSeparated flattens repeated and comma-separated values, dropping
// empty items. Normalization of case and order is left to the filter.
func parseCommaSeparated(values ...string) []string {
	var result []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}
