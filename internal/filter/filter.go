// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

// Package filter normalizes category, rating and verification filters and
// composes them into predicates that the record stores can evaluate.
package filter

import (
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// MaxBusinessTypes bounds the number of distinct categories in one filter.
const MaxBusinessTypes = 50

// Raw is a filter as received from a caller, before normalization.
// Nil pointers mean "not supplied".
type Raw struct {
	BusinessTypes []string
	MinRating     *float64
	VerifiedOnly  *bool
}

// Filter is a normalized, immutable filter. The zero value is not a valid
// filter; obtain one from Normalize or Default.
type Filter struct {
	types        []string // lowercase, unique, sorted
	minRating    float64
	verifiedOnly bool
}

// Default returns the filter applied when the caller supplies nothing:
// all categories, any rating, verified businesses only.
func Default() Filter {
	return Filter{verifiedOnly: true}
}

// Normalize turns raw caller input into a Filter. Type names are trimmed,
// lowercased, deduplicated and sorted; empty names are dropped. A negative
// minimum rating is clamped to zero. VerifiedOnly stays true unless the
// caller explicitly set it to false.
func Normalize(raw Raw) (Filter, error) {
	f := Default()

	if len(raw.BusinessTypes) > 0 {
		seen := make(map[string]struct{}, len(raw.BusinessTypes))
		for _, t := range raw.BusinessTypes {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			f.types = append(f.types, t)
		}
		if len(f.types) > MaxBusinessTypes {
			return Filter{}, models.NewValidationError("types", "too many business types")
		}
		sort.Strings(f.types)
	}

	if raw.MinRating != nil {
		r := *raw.MinRating
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return Filter{}, models.NewValidationError("minRating", "must be a finite number")
		}
		f.minRating = math.Max(0, r)
	}

	if raw.VerifiedOnly != nil {
		f.verifiedOnly = *raw.VerifiedOnly
	}

	return f, nil
}

// BusinessTypes returns a copy of the normalized category set.
func (f Filter) BusinessTypes() []string {
	if len(f.types) == 0 {
		return nil
	}
	out := make([]string, len(f.types))
	copy(out, f.types)
	return out
}

// MinRating returns the inclusive rating floor.
func (f Filter) MinRating() float64 { return f.minRating }

// VerifiedOnly reports whether unverified businesses are excluded.
func (f Filter) VerifiedOnly() bool { return f.verifiedOnly }

// Matches reports whether a record passes the filter, ignoring location.
func (f Filter) Matches(r models.BusinessRecord) bool {
	return Attributes(f).Match(r)
}

type filterJSON struct {
	BusinessTypes []string `json:"businessTypes"`
	MinRating     float64  `json:"minRating"`
	VerifiedOnly  bool     `json:"verifiedOnly"`
}

// MarshalJSON encodes the normalized filter. The encoding is canonical, so it
// also serves as cache key material.
func (f Filter) MarshalJSON() ([]byte, error) {
	types := f.types
	if types == nil {
		types = []string{}
	}
	return json.Marshal(filterJSON{
		BusinessTypes: types,
		MinRating:     f.minRating,
		VerifiedOnly:  f.verifiedOnly,
	})
}
