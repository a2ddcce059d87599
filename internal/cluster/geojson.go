// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cluster

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// ToFeatureCollection renders clusters as an RFC 7946 FeatureCollection with
// one Point feature per cluster, placed at the centroid. The member extent
// becomes the feature bbox.
func ToFeatureCollection(clusters []models.Cluster) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	// Encode an empty result as "features": [] rather than null
	fc.Features = make([]*geojson.Feature, 0, len(clusters))

	for i := range clusters {
		c := &clusters[i]
		f := geojson.NewPointFeature([]float64{c.Centroid.Lng, c.Centroid.Lat})
		f.ID = c.ID
		f.BoundingBox = []float64{c.BBox.West, c.BBox.South, c.BBox.East, c.BBox.North}
		f.SetProperty("businessCount", c.BusinessCount)
		f.SetProperty("dominantCategory", c.DominantCategory)
		f.SetProperty("avgRating", c.AvgRating)
		f.SetProperty("categoryMix", c.CategoryMix)
		f.SetProperty("businessIds", c.BusinessIDs)
		fc.AddFeature(f)
	}
	return fc
}
