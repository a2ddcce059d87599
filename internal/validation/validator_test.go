// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	South  *float64 `json:"south" validate:"required,latitude"`
	Zoom   int      `json:"zoom" validate:"omitempty,min=1,max=20"`
	Format string   `json:"format" validate:"omitempty,oneof=json geojson"`
	Types  []string `json:"types" validate:"max=3,dive,max=16,business_type"`
}

func ptr(f float64) *float64 { return &f }

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       sampleRequest
		wantField string
		wantMsg   string
	}{
		{
			name: "valid",
			req:  sampleRequest{South: ptr(51.5), Zoom: 12, Format: "geojson", Types: []string{"restaurant"}},
		},
		{
			name:      "missing south",
			req:       sampleRequest{Zoom: 12},
			wantField: "south",
			wantMsg:   "south is required",
		},
		{
			name:      "latitude out of range",
			req:       sampleRequest{South: ptr(91)},
			wantField: "south",
			wantMsg:   "valid latitude",
		},
		{
			name:      "zoom too large",
			req:       sampleRequest{South: ptr(0), Zoom: 25},
			wantField: "zoom",
			wantMsg:   "zoom must be at most 20",
		},
		{
			name:      "bad format",
			req:       sampleRequest{South: ptr(0), Format: "xml"},
			wantField: "format",
			wantMsg:   "one of: json geojson",
		},
		{
			name:      "too many types",
			req:       sampleRequest{South: ptr(0), Types: []string{"a", "b", "c", "d"}},
			wantField: "types",
			wantMsg:   "at most 3 items",
		},
		{
			name: "mixed case business types",
			req:  sampleRequest{South: ptr(0), Types: []string{"Café", "Fish & Chips", "wine_bar"}},
		},
		{
			name:      "business type with punctuation",
			req:       sampleRequest{South: ptr(0), Types: []string{"bar", "pub;DROP"}},
			wantField: "types[1]",
			wantMsg:   "letters, digits",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.req)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			me := verr.ToModelError()
			if me.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", me.Field, tt.wantField)
			}
			if !strings.Contains(me.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want substring %q", me.Message, tt.wantMsg)
			}
		})
	}
}
