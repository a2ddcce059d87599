// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

// Package cluster aggregates business records into map clusters using a
// zoom-dependent grid hash.
//
// The grid at zoom z has cells of BaseCellSize / 2^(z - MinZoom) degrees.
// Because every step halves the cell size, the cells at zoom z+1 nest
// exactly inside those at zoom z, so raising the zoom never merges clusters.
package cluster

import (
	"fmt"
	"math"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// Default grid parameters.
const (
	DefaultBaseCellSize = 10.0 // Degrees per cell at MinZoom
)

// CellKey identifies a grid cell at a fixed cell size.
type CellKey struct {
	X, Y int
}

// Less orders keys by X, then Y.
func (k CellKey) Less(o CellKey) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	return k.Y < o.Y
}

// Grid maps coordinates to cells for one cell size.
type Grid struct {
	cellSize float64
}

// NewGrid creates a grid with cells of cellSize degrees.
func NewGrid(cellSize float64) Grid {
	return Grid{cellSize: cellSize}
}

// CellSize returns the side of a cell in degrees.
func (g Grid) CellSize() float64 { return g.cellSize }

// Key returns the cell containing the coordinate.
func (g Grid) Key(lat, lng float64) CellKey {
	// Normalize longitude to [-180, 180]
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return CellKey{
		X: int(math.Floor(lng / g.cellSize)),
		Y: int(math.Floor(lat / g.cellSize)),
	}
}

// Bounds returns the extent of a cell.
func (g Grid) Bounds(k CellKey) models.BoundingBox {
	return models.BoundingBox{
		South: float64(k.Y) * g.cellSize,
		West:  float64(k.X) * g.cellSize,
		North: float64(k.Y+1) * g.cellSize,
		East:  float64(k.X+1) * g.cellSize,
	}
}

// clusterID formats the stable identifier of a cell at a zoom level.
func clusterID(zoom int, k CellKey) string {
	return fmt.Sprintf("z%d:%d:%d", zoom, k.X, k.Y)
}
