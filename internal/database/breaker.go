// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/metrics"
	"github.com/tomtom215/geodiscovery/internal/models"
)

// BreakerConfig configures the circuit breaker around a Store.
type BreakerConfig struct {
	Name        string
	Threshold   uint32        // Consecutive failures before opening
	Timeout     time.Duration // Open duration before a half-open probe
	MaxRequests uint32        // Requests allowed while half-open
	Interval    time.Duration // Closed-state count reset period (0 = never)
}

// BreakerStore guards a Store with a circuit breaker. Ping and Close bypass it.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerStore wraps next with a circuit breaker.
func NewBreakerStore(next Store, cfg BreakerConfig) *BreakerStore {
	if cfg.Threshold == 0 {
		cfg.Threshold = 5
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Threshold
		},
		// A caller walking away is not a store failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker[interface{}](settings)}
}

// State returns the breaker state name: closed, half-open or open.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

// Unwrap returns the guarded store.
func (b *BreakerStore) Unwrap() Store {
	return b.next
}

func execute[T any](b *BreakerStore, fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", models.ErrCircuitOpen, err)
		}
		return zero, err
	}
	return v.(T), nil
}

func (b *BreakerStore) FindWithinBounds(ctx context.Context, box models.BoundingBox, f filter.Filter) ([]models.BusinessRecord, error) {
	return execute(b, func() ([]models.BusinessRecord, error) { return b.next.FindWithinBounds(ctx, box, f) })
}

func (b *BreakerStore) AllBusinesses(ctx context.Context) ([]models.BusinessRecord, error) {
	return execute(b, func() ([]models.BusinessRecord, error) { return b.next.AllBusinesses(ctx) })
}

func (b *BreakerStore) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	return execute(b, func() ([]models.CategoryCount, error) { return b.next.CountByCategory(ctx) })
}

func (b *BreakerStore) UpsertBusinesses(ctx context.Context, records []models.BusinessRecord) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.UpsertBusinesses(ctx, records) })
	return err
}

func (b *BreakerStore) DeleteBusinesses(ctx context.Context, ids []string) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.DeleteBusinesses(ctx, ids) })
	return err
}

func (b *BreakerStore) ReplaceHotspots(ctx context.Context, rows []models.HotspotEntry) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.ReplaceHotspots(ctx, rows) })
	return err
}

func (b *BreakerStore) ReadHotspots(ctx context.Context) ([]models.HotspotEntry, error) {
	return execute(b, func() ([]models.HotspotEntry, error) { return b.next.ReadHotspots(ctx) })
}

func (b *BreakerStore) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

func (b *BreakerStore) Close() error {
	return b.next.Close()
}
