// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/geodiscovery/internal/config"
	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/metrics"
	"github.com/tomtom215/geodiscovery/internal/models"
)

// MemoryStore is a Store held entirely in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	businesses map[string]models.BusinessRecord
	hotspots   []models.HotspotEntry
	closed     bool

	// finds counts FindWithinBounds calls; tests use it to observe coalescing
	finds atomic.Int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{businesses: make(map[string]models.BusinessRecord)}
}

// FindWithinBounds returns the records inside box that match f, ordered by ID.
func (m *MemoryStore) FindWithinBounds(ctx context.Context, box models.BoundingBox, f filter.Filter) ([]models.BusinessRecord, error) {
	m.finds.Add(1)
	start := time.Now()
	if err := ctx.Err(); err != nil {
		metrics.RecordDBQuery("find_within_bounds", config.DriverMemory, time.Since(start), err)
		return nil, err
	}

	pred := filter.ForQuery(box, f)
	m.mu.RLock()
	out := make([]models.BusinessRecord, 0, 64)
	for _, r := range m.businesses {
		if pred.Match(r) {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()

	sortByID(out)
	metrics.RecordDBQuery("find_within_bounds", config.DriverMemory, time.Since(start), nil)
	return out, nil
}

// FindCalls returns how many times FindWithinBounds has been called.
func (m *MemoryStore) FindCalls() int64 {
	return m.finds.Load()
}

// AllBusinesses returns every record, ordered by ID.
func (m *MemoryStore) AllBusinesses(ctx context.Context) ([]models.BusinessRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]models.BusinessRecord, 0, len(m.businesses))
	for _, r := range m.businesses {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sortByID(out)
	return out, nil
}

// CountByCategory returns verified business counts per type, largest first.
func (m *MemoryStore) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type acc struct {
		count int
		sum   float64
	}
	byType := make(map[string]*acc)
	verified := filter.VerifiedOnly()

	m.mu.RLock()
	for _, r := range m.businesses {
		if !verified.Match(r) {
			continue
		}
		a := byType[r.Type]
		if a == nil {
			a = &acc{}
			byType[r.Type] = a
		}
		a.count++
		a.sum += r.Rating
	}
	m.mu.RUnlock()

	counts := make([]models.CategoryCount, 0, len(byType))
	for t, a := range byType {
		counts = append(counts, models.CategoryCount{
			BusinessType:  t,
			BusinessCount: a.count,
			AvgRating:     roundRating(a.sum / float64(a.count)),
		})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].BusinessCount != counts[j].BusinessCount {
			return counts[i].BusinessCount > counts[j].BusinessCount
		}
		return counts[i].BusinessType < counts[j].BusinessType
	})
	return counts, nil
}

// UpsertBusinesses inserts or replaces records by ID.
func (m *MemoryStore) UpsertBusinesses(ctx context.Context, records []models.BusinessRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := normalizeRecords(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range normalized {
		m.businesses[r.ID] = r
	}
	return nil
}

// DeleteBusinesses removes records by ID.
func (m *MemoryStore) DeleteBusinesses(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.businesses, id)
	}
	return nil
}

// ReplaceHotspots replaces the materialized hotspot rows.
func (m *MemoryStore) ReplaceHotspots(ctx context.Context, rows []models.HotspotEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]models.HotspotEntry, len(rows))
	copy(cp, rows)
	m.mu.Lock()
	m.hotspots = cp
	m.mu.Unlock()
	return nil
}

// ReadHotspots returns a copy of the materialized rows by descending score.
func (m *MemoryStore) ReadHotspots(ctx context.Context) ([]models.HotspotEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]models.HotspotEntry, len(m.hotspots))
	copy(out, m.hotspots)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].BusinessType != out[j].BusinessType {
			return out[i].BusinessType < out[j].BusinessType
		}
		return out[i].CellToken < out[j].CellToken
	})
	return out, nil
}

// Ping reports an error after Close.
func (m *MemoryStore) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errStoreClosed
	}
	return nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func sortByID(records []models.BusinessRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}
