// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cluster

import (
	"context"
	"math"
	"sort"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// cancelCheckInterval is how many records are assigned between context checks.
const cancelCheckInterval = 4096

// Config holds clustering parameters.
type Config struct {
	BaseCellSize float64 `koanf:"base_cell_size"` // Degrees per cell at MinZoom
	MinZoom      int     `koanf:"min_zoom"`
}

// Engine builds clusters for a set of records. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	baseCellSize float64
	minZoom      int
}

// NewEngine creates an engine, falling back to defaults for unset fields.
func NewEngine(cfg Config) *Engine {
	if cfg.BaseCellSize <= 0 {
		cfg.BaseCellSize = DefaultBaseCellSize
	}
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = models.MinZoom
	}
	return &Engine{baseCellSize: cfg.BaseCellSize, minZoom: cfg.MinZoom}
}

// CellSize returns the grid cell size in degrees at zoom. It halves with
// every zoom step above MinZoom.
func (e *Engine) CellSize(zoom int) float64 {
	return e.baseCellSize / math.Pow(2, float64(zoom-e.minZoom))
}

// Grid returns the grid used at zoom.
func (e *Engine) Grid(zoom int) Grid {
	return NewGrid(e.CellSize(zoom))
}

// Build collapses records sharing a grid cell into one cluster each.
//
// The result depends only on the set of records and the zoom, never on input
// order: members are ordered by ID before any summation and clusters are
// ordered by cell key. Every record lands in exactly one cluster, so the
// cluster counts always sum to len(records). If ctx ends mid-build the
// partial result is discarded and ctx.Err() returned.
func (e *Engine) Build(ctx context.Context, records []models.BusinessRecord, zoom int) ([]models.Cluster, error) {
	if len(records) == 0 {
		return []models.Cluster{}, nil
	}

	grid := e.Grid(zoom)
	cells := make(map[CellKey][]int, len(records)/4+1)
	for i := range records {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		k := grid.Key(records[i].Lat, records[i].Lng)
		cells[k] = append(cells[k], i)
	}

	keys := make([]CellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	clusters := make([]models.Cluster, 0, len(keys))
	for n, k := range keys {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		clusters = append(clusters, summarize(zoom, k, records, cells[k]))
	}
	return clusters, nil
}

// summarize builds the cluster for one cell from record indexes.
func summarize(zoom int, k CellKey, records []models.BusinessRecord, members []int) models.Cluster {
	sort.Slice(members, func(i, j int) bool {
		a, b := records[members[i]], records[members[j]]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Lat != b.Lat {
			return a.Lat < b.Lat
		}
		return a.Lng < b.Lng
	})

	first := records[members[0]]
	bbox := models.PointBounds(first.Lat, first.Lng)
	mix := make(map[string]int)
	ids := make([]string, 0, len(members))
	var sumLat, sumLng, sumRating float64

	for _, idx := range members {
		r := records[idx]
		sumLat += r.Lat
		sumLng += r.Lng
		sumRating += r.Rating
		bbox = bbox.Extend(r.Lat, r.Lng)
		mix[r.Type]++
		ids = append(ids, r.ID)
	}

	n := float64(len(members))
	return models.Cluster{
		ID:               clusterID(zoom, k),
		Centroid:         models.LatLng{Lat: sumLat / n, Lng: sumLng / n},
		BusinessCount:    len(members),
		BBox:             bbox,
		DominantCategory: dominant(mix),
		AvgRating:        sumRating / n,
		CategoryMix:      mix,
		BusinessIDs:      ids,
	}
}

// dominant returns the most frequent category, preferring the
// lexicographically smallest name on ties.
func dominant(mix map[string]int) string {
	best, bestCount := "", -1
	for t, c := range mix {
		if c > bestCount || (c == bestCount && t < best) {
			best, bestCount = t, c
		}
	}
	return best
}
