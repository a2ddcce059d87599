// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cluster

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/geodiscovery/internal/models"
)

func TestToFeatureCollection(t *testing.T) {
	t.Parallel()

	records := []models.BusinessRecord{
		// Same zoom-10 cell (x=-7, y=2636)
		{ID: "a", Lat: 51.500, Lng: -0.120, Type: "cafe", Rating: 4},
		{ID: "b", Lat: 51.495, Lng: -0.125, Type: "cafe", Rating: 5},
	}
	clusters, err := NewEngine(Config{}).Build(context.Background(), records, 10)
	if err != nil {
		t.Fatal(err)
	}

	fc := ToFeatureCollection(clusters)
	if len(fc.Features) != 1 {
		t.Fatalf("len(Features) = %d, want 1", len(fc.Features))
	}
	f := fc.Features[0]
	if !f.Geometry.IsPoint() {
		t.Fatalf("geometry = %s, want Point", f.Geometry.Type)
	}
	if lng, lat := f.Geometry.Point[0], f.Geometry.Point[1]; lng != clusters[0].Centroid.Lng || lat != clusters[0].Centroid.Lat {
		t.Errorf("coordinates = [%v %v], want [lng lat] of the centroid", lng, lat)
	}
	if f.ID != clusters[0].ID {
		t.Errorf("ID = %v, want %s", f.ID, clusters[0].ID)
	}
	if got := f.PropertyMustInt("businessCount"); got != 2 {
		t.Errorf("businessCount = %d, want 2", got)
	}
	if got := f.PropertyMustString("dominantCategory"); got != "cafe" {
		t.Errorf("dominantCategory = %q", got)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if !strings.Contains(string(data), `"type":"FeatureCollection"`) {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestToFeatureCollectionEmpty(t *testing.T) {
	t.Parallel()

	data, err := ToFeatureCollection(nil).MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"features":[]`) {
		t.Errorf("empty collection should encode features as [], got %s", data)
	}
}
