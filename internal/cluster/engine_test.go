// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cluster

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// syntheticRecords spreads n records over greater London deterministically.
func syntheticRecords(n int, seed int64) []models.BusinessRecord {
	rng := rand.New(rand.NewSource(seed))
	types := []string{"restaurant", "cafe", "bakery", "bar", "grocery"}
	out := make([]models.BusinessRecord, n)
	for i := range out {
		out[i] = models.BusinessRecord{
			ID:       fmt.Sprintf("biz-%05d", i),
			Lat:      51.3 + rng.Float64()*0.4,
			Lng:      -0.5 + rng.Float64()*0.7,
			Type:     types[rng.Intn(len(types))],
			Rating:   float64(rng.Intn(51)) / 10,
			Verified: rng.Intn(4) != 0,
		}
	}
	return out
}

func sumCounts(clusters []models.Cluster) int {
	total := 0
	for _, c := range clusters {
		total += c.BusinessCount
	}
	return total
}

func TestCellSizeMonotonic(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	if got := e.CellSize(models.MinZoom); got != DefaultBaseCellSize {
		t.Errorf("CellSize(min) = %v, want %v", got, DefaultBaseCellSize)
	}
	for z := models.MinZoom; z < models.MaxZoom; z++ {
		if e.CellSize(z+1) >= e.CellSize(z) {
			t.Fatalf("CellSize(%d)=%v not smaller than CellSize(%d)=%v", z+1, e.CellSize(z+1), z, e.CellSize(z))
		}
	}
}

func TestBuildThreeRecordsOneCell(t *testing.T) {
	t.Parallel()

	records := []models.BusinessRecord{
		{ID: "c", Lat: 51.503, Lng: -0.123, Type: "cafe", Rating: 3, Verified: true},
		{ID: "a", Lat: 51.501, Lng: -0.121, Type: "restaurant", Rating: 5, Verified: true},
		{ID: "b", Lat: 51.502, Lng: -0.122, Type: "restaurant", Rating: 4, Verified: true},
	}

	clusters, err := NewEngine(Config{}).Build(context.Background(), records, 10)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}

	c := clusters[0]
	if c.BusinessCount != 3 {
		t.Errorf("BusinessCount = %d, want 3", c.BusinessCount)
	}
	if c.DominantCategory != "restaurant" {
		t.Errorf("DominantCategory = %q, want restaurant", c.DominantCategory)
	}
	if !reflect.DeepEqual(c.BusinessIDs, []string{"a", "b", "c"}) {
		t.Errorf("BusinessIDs = %v", c.BusinessIDs)
	}
	wantLat := (51.501 + 51.502 + 51.503) / 3
	if diff := c.Centroid.Lat - wantLat; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("Centroid.Lat = %v, want %v", c.Centroid.Lat, wantLat)
	}
	if c.BBox != (models.BoundingBox{South: 51.501, West: -0.123, North: 51.503, East: -0.121}) {
		t.Errorf("BBox = %+v", c.BBox)
	}
	if c.AvgRating != 4 {
		t.Errorf("AvgRating = %v, want 4", c.AvgRating)
	}
}

func TestBuildClusterOfOne(t *testing.T) {
	t.Parallel()

	rec := models.BusinessRecord{ID: "solo", Lat: 40.7128, Lng: -74.006, Type: "bakery", Rating: 4.2, Verified: true}
	clusters, err := NewEngine(Config{}).Build(context.Background(), []models.BusinessRecord{rec}, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 || clusters[0].BusinessCount != 1 {
		t.Fatalf("clusters = %+v, want one cluster of one", clusters)
	}
	c := clusters[0]
	if c.Centroid != (models.LatLng{Lat: rec.Lat, Lng: rec.Lng}) {
		t.Errorf("Centroid = %+v, want record position", c.Centroid)
	}
	if len(c.BusinessIDs) != 1 || c.BusinessIDs[0] != "solo" {
		t.Errorf("BusinessIDs = %v, want [solo]", c.BusinessIDs)
	}
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	clusters, err := NewEngine(Config{}).Build(context.Background(), nil, 12)
	if err != nil || clusters == nil || len(clusters) != 0 {
		t.Errorf("Build(nil) = %v, %v; want empty non-nil slice", clusters, err)
	}
}

func TestBuildDeterministicAcrossOrderings(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	records := syntheticRecords(2000, 42)

	want, err := e.Build(context.Background(), records, 13)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		shuffled := make([]models.BusinessRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := e.Build(context.Background(), shuffled, 13)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d produced different clusters", i)
		}
	}
}

func TestBuildCountInvariant(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	records := syntheticRecords(5000, 1)

	for zoom := models.MinZoom; zoom <= models.MaxZoom; zoom++ {
		clusters, err := e.Build(context.Background(), records, zoom)
		if err != nil {
			t.Fatal(err)
		}
		if got := sumCounts(clusters); got != len(records) {
			t.Errorf("zoom %d: sum(businessCount) = %d, want %d", zoom, got, len(records))
		}

		seen := make(map[string]bool, len(records))
		for _, c := range clusters {
			for _, id := range c.BusinessIDs {
				if seen[id] {
					t.Fatalf("zoom %d: record %s appears in more than one cluster", zoom, id)
				}
				seen[id] = true
			}
		}
	}
}

func TestMeanClusterSizeNonIncreasingWithZoom(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	records := syntheticRecords(3000, 99)

	prevMean := -1.0
	for zoom := models.MinZoom; zoom <= models.MaxZoom; zoom++ {
		clusters, err := e.Build(context.Background(), records, zoom)
		if err != nil {
			t.Fatal(err)
		}
		mean := float64(len(records)) / float64(len(clusters))
		if prevMean >= 0 && mean > prevMean {
			t.Errorf("zoom %d: mean cluster size %v grew from %v", zoom, mean, prevMean)
		}
		prevMean = mean
	}

	low, _ := e.Build(context.Background(), records, 8)
	high, _ := e.Build(context.Background(), records, 16)
	if len(high) <= len(low) {
		t.Errorf("expected finer clusters at zoom 16 (%d) than zoom 8 (%d)", len(high), len(low))
	}
}

func TestDominantTieBreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mix  map[string]int
		want string
	}{
		{map[string]int{"cafe": 2, "bar": 2, "restaurant": 1}, "bar"},
		{map[string]int{"cafe": 1}, "cafe"},
		{map[string]int{"zoo": 3, "museum": 2}, "zoo"},
		{map[string]int{"b": 1, "a": 1, "c": 1}, "a"},
	}
	for _, tt := range tests {
		if got := dominant(tt.mix); got != tt.want {
			t.Errorf("dominant(%v) = %q, want %q", tt.mix, got, tt.want)
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clusters, err := NewEngine(Config{}).Build(ctx, syntheticRecords(10, 3), 12)
	if err == nil || clusters != nil {
		t.Errorf("Build(cancelled) = %v, %v; want nil, context error", clusters, err)
	}
}

func TestGridKeyAndBounds(t *testing.T) {
	t.Parallel()

	g := NewGrid(0.5)
	k := g.Key(10.2, -0.3)
	if k != (CellKey{X: -1, Y: 20}) {
		t.Errorf("Key() = %+v", k)
	}
	b := g.Bounds(k)
	if !b.Contains(10.2, -0.3) {
		t.Errorf("Bounds(%+v) = %+v does not contain source point", k, b)
	}
	if g.Key(0, 190) != g.Key(0, -170) {
		t.Error("longitude should wrap into [-180, 180]")
	}
}
