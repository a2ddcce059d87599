// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package filter

import (
	"strings"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// Column names of the businesses table referenced by rendered predicates.
const (
	ColumnLat      = "lat"
	ColumnLng      = "lng"
	ColumnType     = "business_type"
	ColumnRating   = "rating"
	ColumnVerified = "verified"
)

// Predicate is a composable record condition. Every predicate can be
// evaluated in memory and rendered as a parameterized SQL condition; both
// forms select the same records. The set of predicates is closed.
type Predicate interface {
	Match(r models.BusinessRecord) bool
	render(b *sqlBuilder)
}

// Render converts p into a WHERE clause body using '?' placeholders.
func Render(p Predicate) (string, []interface{}) {
	b := &sqlBuilder{}
	p.render(b)
	if len(b.conditions) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(b.conditions, " AND "), b.args
}

type sqlBuilder struct {
	conditions []string
	args       []interface{}
}

func (b *sqlBuilder) add(cond string, args ...interface{}) {
	b.conditions = append(b.conditions, cond)
	b.args = append(b.args, args...)
}

// placeholders returns "?, ?, ?" for n items.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

type within struct{ box models.BoundingBox }

// Within selects records inside box, edges included.
func Within(box models.BoundingBox) Predicate { return within{box: box} }

func (p within) Match(r models.BusinessRecord) bool { return p.box.Contains(r.Lat, r.Lng) }

func (p within) render(b *sqlBuilder) {
	b.add(ColumnLat+" BETWEEN ? AND ?", p.box.South, p.box.North)
	b.add(ColumnLng+" BETWEEN ? AND ?", p.box.West, p.box.East)
}

type typeIn struct{ types []string }

// TypeIn selects records whose category is one of types. An empty list
// matches everything.
func TypeIn(types ...string) Predicate { return typeIn{types: types} }

func (p typeIn) Match(r models.BusinessRecord) bool {
	if len(p.types) == 0 {
		return true
	}
	for _, t := range p.types {
		if r.Type == t {
			return true
		}
	}
	return false
}

func (p typeIn) render(b *sqlBuilder) {
	if len(p.types) == 0 {
		return
	}
	args := make([]interface{}, len(p.types))
	for i, t := range p.types {
		args[i] = t
	}
	b.add(ColumnType+" IN ("+placeholders(len(p.types))+")", args...)
}

type ratingAtLeast struct{ min float64 }

// RatingAtLeast selects records rated min or higher.
func RatingAtLeast(min float64) Predicate { return ratingAtLeast{min: min} }

func (p ratingAtLeast) Match(r models.BusinessRecord) bool { return r.Rating >= p.min }

func (p ratingAtLeast) render(b *sqlBuilder) { b.add(ColumnRating+" >= ?", p.min) }

type verifiedOnly struct{}

// VerifiedOnly selects verified records.
func VerifiedOnly() Predicate { return verifiedOnly{} }

func (verifiedOnly) Match(r models.BusinessRecord) bool { return r.Verified }

func (verifiedOnly) render(b *sqlBuilder) { b.add(ColumnVerified + " = TRUE") }

type and struct{ preds []Predicate }

// And selects records matching every predicate. And() matches everything.
func And(preds ...Predicate) Predicate { return and{preds: preds} }

func (p and) Match(r models.BusinessRecord) bool {
	for _, q := range p.preds {
		if !q.Match(r) {
			return false
		}
	}
	return true
}

func (p and) render(b *sqlBuilder) {
	for _, q := range p.preds {
		q.render(b)
	}
}

// Attributes composes the non-spatial part of f.
func Attributes(f Filter) Predicate {
	preds := make([]Predicate, 0, 3)
	if len(f.types) > 0 {
		preds = append(preds, TypeIn(f.types...))
	}
	if f.minRating > 0 {
		preds = append(preds, RatingAtLeast(f.minRating))
	}
	if f.verifiedOnly {
		preds = append(preds, VerifiedOnly())
	}
	return And(preds...)
}

// ForQuery composes the predicate for a viewport query.
func ForQuery(box models.BoundingBox, f Filter) Predicate {
	return And(Within(box), Attributes(f))
}
