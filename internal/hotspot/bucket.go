// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package hotspot

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// DefaultCellLevel is the S2 level used when none is configured (~10km cells).
const DefaultCellLevel = 10

type bucketKey struct {
	businessType string
	cell         s2.CellID
}

type bucket struct {
	count     int
	ratingSum float64
	sum       r3.Vector
}

// Score weights a bucket's size by its mean rating.
func Score(count int, avgRating float64) float64 {
	return float64(count) * (0.5 + avgRating/10)
}

// Bucketize groups records by (type, S2 cell at level) and returns one
// ranked entry per non-empty bucket.
func Bucketize(records []models.BusinessRecord, level int) []models.HotspotEntry {
	if level < 0 || level > s2.MaxLevel {
		level = DefaultCellLevel
	}

	buckets := make(map[bucketKey]*bucket)
	for i := range records {
		r := &records[i]
		ll := s2.LatLngFromDegrees(r.Lat, r.Lng)
		key := bucketKey{
			businessType: r.Type,
			cell:         s2.CellIDFromLatLng(ll).Parent(level),
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++
		b.ratingSum += r.Rating
		b.sum = b.sum.Add(s2.PointFromLatLng(ll).Vector)
	}

	entries := make([]models.HotspotEntry, 0, len(buckets))
	for key, b := range buckets {
		avg := b.ratingSum / float64(b.count)
		entries = append(entries, models.HotspotEntry{
			BusinessType:  key.businessType,
			Location:      centroid(b.sum, key.cell),
			Score:         round(Score(b.count, avg), 4),
			BusinessCount: b.count,
			AvgRating:     round(avg, 2),
			CellToken:     key.cell.ToToken(),
		})
	}
	Rank(entries)
	return entries
}

// Rank sorts entries by descending score, then type, then cell token.
func Rank(entries []models.HotspotEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.BusinessType != b.BusinessType {
			return a.BusinessType < b.BusinessType
		}
		return a.CellToken < b.CellToken
	})
}

// centroid is the normalized mean of the unit vectors, which stays correct
// across the antimeridian. Antipodal sums fall back to the cell center.
func centroid(sum r3.Vector, cell s2.CellID) models.LatLng {
	var ll s2.LatLng
	if sum.Norm() < 1e-12 {
		ll = cell.LatLng()
	} else {
		ll = s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	}
	return models.LatLng{
		Lat: round(ll.Lat.Degrees(), 6),
		Lng: round(ll.Lng.Degrees(), 6),
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
