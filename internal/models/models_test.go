// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package models

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestBoundingBoxValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		box       BoundingBox
		wantField string // empty means valid
	}{
		{"valid london", BoundingBox{South: 51.49, West: -0.15, North: 51.52, East: -0.10}, ""},
		{"valid world", BoundingBox{South: -90, West: -180, North: 90, East: 180}, ""},
		{"south equals north", BoundingBox{South: 10, West: 0, North: 10, East: 1}, "south"},
		{"south above north", BoundingBox{South: 11, West: 0, North: 10, East: 1}, "south"},
		{"west equals east", BoundingBox{South: 0, West: 5, North: 1, East: 5}, "west"},
		{"west above east", BoundingBox{South: 0, West: 6, North: 1, East: 5}, "west"},
		{"south out of range", BoundingBox{South: -91, West: 0, North: 1, East: 1}, "south"},
		{"north out of range", BoundingBox{South: 0, West: 0, North: 90.5, East: 1}, "north"},
		{"east out of range", BoundingBox{South: 0, West: 0, North: 1, East: 181}, "east"},
		{"west NaN", BoundingBox{South: 0, West: math.NaN(), North: 1, East: 1}, "west"},
		{"north infinite", BoundingBox{South: 0, West: 0, North: math.Inf(1), East: 1}, "north"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.box.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Validate() field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidateZoom(t *testing.T) {
	t.Parallel()

	for zoom := -1; zoom <= 22; zoom++ {
		err := ValidateZoom(zoom)
		valid := zoom >= MinZoom && zoom <= MaxZoom
		if valid && err != nil {
			t.Errorf("ValidateZoom(%d) unexpected error: %v", zoom, err)
		}
		if !valid {
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != "zoom" {
				t.Errorf("ValidateZoom(%d) = %v, want zoom validation error", zoom, err)
			}
		}
	}
}

func TestBoundingBoxRoundAndExtend(t *testing.T) {
	t.Parallel()

	b := BoundingBox{South: 51.49049, West: -0.15049, North: 51.52051, East: -0.10001}
	got := b.Round(3)
	want := BoundingBox{South: 51.490, West: -0.150, North: 51.521, East: -0.100}
	if got != want {
		t.Errorf("Round(3) = %+v, want %+v", got, want)
	}

	ext := PointBounds(1, 1).Extend(2, -1).Extend(0.5, 3)
	if ext != (BoundingBox{South: 0.5, West: -1, North: 2, East: 3}) {
		t.Errorf("Extend() = %+v", ext)
	}
	if !ext.Contains(2, 3) || ext.Contains(2.1, 0) {
		t.Error("Contains() should include edges and exclude outside points")
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := fmt.Errorf("query: %w", NewUpstreamError("find_within_bounds", cause))

	if !errors.Is(err, cause) {
		t.Error("expected UpstreamError to unwrap to its cause")
	}
	if IsValidation(err) {
		t.Error("upstream error must not be classified as validation")
	}
	if !IsValidation(fmt.Errorf("wrap: %w", NewValidationError("zoom", "bad"))) {
		t.Error("wrapped validation error not detected")
	}
}
