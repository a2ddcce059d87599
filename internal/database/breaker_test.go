// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/models"
)

// failingStore fails FindWithinBounds with err while err is set.
type failingStore struct {
	*MemoryStore
	err   error
	calls int
}

func (f *failingStore) FindWithinBounds(ctx context.Context, box models.BoundingBox, flt filter.Filter) ([]models.BusinessRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryStore.FindWithinBounds(ctx, box, flt)
}

func TestBreakerStoreOpensAfterThreshold(t *testing.T) {
	t.Parallel()

	inner := &failingStore{MemoryStore: NewMemoryStore(), err: errors.New("disk on fire")}
	b := NewBreakerStore(inner, BreakerConfig{Name: "test-open", Threshold: 3, Timeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.FindWithinBounds(ctx, londonBox, filter.Default())
		if err == nil || errors.Is(err, models.ErrCircuitOpen) {
			t.Fatalf("call %d: err = %v, want the store error", i, err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	_, err := b.FindWithinBounds(ctx, londonBox, filter.Default())
	if !errors.Is(err, models.ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3 (open breaker must not call through)", inner.calls)
	}
}

func TestBreakerStoreIgnoresCancellation(t *testing.T) {
	t.Parallel()

	inner := &failingStore{MemoryStore: NewMemoryStore(), err: context.Canceled}
	b := NewBreakerStore(inner, BreakerConfig{Name: "test-cancel", Threshold: 1, Timeout: time.Hour})

	for i := 0; i < 5; i++ {
		if _, err := b.FindWithinBounds(context.Background(), londonBox, filter.Default()); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("State() = %q, want closed", b.State())
	}
}

func TestBreakerStorePassesThrough(t *testing.T) {
	t.Parallel()

	b := NewBreakerStore(NewMemoryStore(), BreakerConfig{Name: "test-pass"})
	ctx := context.Background()
	if err := b.UpsertBusinesses(ctx, fixtureRecords()); err != nil {
		t.Fatalf("UpsertBusinesses() error = %v", err)
	}
	got, err := b.FindWithinBounds(ctx, londonBox, filter.Default())
	if err != nil || len(got) != 3 {
		t.Errorf("FindWithinBounds() = %d records, %v; want 3, nil", len(got), err)
	}
	if _, ok := b.Unwrap().(*MemoryStore); !ok {
		t.Errorf("Unwrap() = %T", b.Unwrap())
	}
}
