// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

// Package hotspot maintains a precomputed, ranked density index of business
// categories over geography.
//
// A refresh reads every record, buckets them by (type, S2 cell), writes the
// resulting rows to the materialized hotspot table, reads them back and
// publishes them as an immutable snapshot. Readers load the snapshot pointer
// and never block on a refresh. A failed refresh leaves the previous
// snapshot in place.
package hotspot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/metrics"
	"github.com/tomtom215/geodiscovery/internal/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// RecordSource supplies the full record set for a refresh.
type RecordSource interface {
	AllBusinesses(ctx context.Context) ([]models.BusinessRecord, error)
}

// Store is the materialized hotspot table.
type Store interface {
	ReplaceHotspots(ctx context.Context, rows []models.HotspotEntry) error
	ReadHotspots(ctx context.Context) ([]models.HotspotEntry, error)
}

// Config controls bucketing and result limits.
type Config struct {
	CellLevel    int
	DefaultLimit int
	MaxLimit     int
}

// Aggregator owns the current hotspot snapshot.
type Aggregator struct {
	source     RecordSource
	store      Store
	checkpoint SnapshotStore
	cfg        Config

	snap atomic.Pointer[models.HotspotSnapshot]
	mu   sync.Mutex // serializes Refresh
	now  func() time.Time
}

// NewAggregator creates an aggregator. checkpoint may be nil.
func NewAggregator(source RecordSource, store Store, checkpoint SnapshotStore, cfg Config) *Aggregator {
	if cfg.CellLevel <= 0 {
		cfg.CellLevel = DefaultCellLevel
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = MaxLimit
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	return &Aggregator{
		source:     source,
		store:      store,
		checkpoint: checkpoint,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Restore seeds the snapshot from the checkpoint if no refresh has
// completed yet. It reports whether a snapshot was restored.
func (a *Aggregator) Restore() bool {
	if a.checkpoint == nil || a.snap.Load() != nil {
		return false
	}
	snap, err := a.checkpoint.Load()
	if err != nil {
		if !errors.Is(err, ErrNoCheckpoint) {
			logging.Warn().Err(err).Msg("Failed to load hotspot checkpoint")
		}
		return false
	}
	if !a.snap.CompareAndSwap(nil, snap) {
		return false
	}
	logging.Info().
		Str("snapshot_id", snap.ID).
		Int("entries", len(snap.Entries)).
		Time("generated_at", snap.GeneratedAt).
		Msg("Restored hotspot snapshot from checkpoint")
	return true
}

// Refresh rebuilds the snapshot. On error the previous snapshot is kept.
func (a *Aggregator) Refresh(ctx context.Context) (*models.HotspotSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	snap, err := a.build(ctx)
	metrics.RecordHotspotRefresh(time.Since(start), entryCount(snap), err)
	if err != nil {
		return nil, err
	}

	a.snap.Store(snap)

	if a.checkpoint != nil {
		if err := a.checkpoint.Save(snap); err != nil {
			logging.Warn().Err(err).Str("snapshot_id", snap.ID).Msg("Failed to checkpoint hotspot snapshot")
		}
	}

	logging.Info().
		Str("snapshot_id", snap.ID).
		Int("records", snap.SourceCount).
		Int("entries", len(snap.Entries)).
		Dur("duration", time.Since(start)).
		Msg("Hotspot snapshot refreshed")
	return snap, nil
}

func (a *Aggregator) build(ctx context.Context) (*models.HotspotSnapshot, error) {
	records, err := a.source.AllBusinesses(ctx)
	if err != nil {
		return nil, models.NewUpstreamError("hotspot.read_records", err)
	}

	rows := Bucketize(records, a.cfg.CellLevel)
	if err := a.store.ReplaceHotspots(ctx, rows); err != nil {
		return nil, models.NewUpstreamError("hotspot.write", err)
	}

	entries, err := a.store.ReadHotspots(ctx)
	if err != nil {
		return nil, models.NewUpstreamError("hotspot.read", err)
	}
	Rank(entries)

	return &models.HotspotSnapshot{
		ID:          uuid.NewString(),
		Entries:     entries,
		GeneratedAt: a.now().UTC(),
		SourceCount: len(records),
	}, nil
}

// Snapshot returns the current snapshot, or nil before any refresh or restore.
func (a *Aggregator) Snapshot() *models.HotspotSnapshot {
	return a.snap.Load()
}

// GetHotspots returns up to limit entries, optionally restricted to one
// business type. limit <= 0 selects the default; larger limits are capped.
func (a *Aggregator) GetHotspots(businessType string, limit int) []models.HotspotEntry {
	limit = a.EffectiveLimit(limit)

	snap := a.snap.Load()
	if snap == nil {
		return []models.HotspotEntry{}
	}

	out := make([]models.HotspotEntry, 0, min(limit, len(snap.Entries)))
	for i := range snap.Entries {
		if len(out) == limit {
			break
		}
		if businessType != "" && snap.Entries[i].BusinessType != businessType {
			continue
		}
		out = append(out, snap.Entries[i])
	}
	return out
}

// EffectiveLimit applies the default and maximum to a requested limit.
func (a *Aggregator) EffectiveLimit(limit int) int {
	if limit <= 0 {
		return a.cfg.DefaultLimit
	}
	if limit > a.cfg.MaxLimit {
		return a.cfg.MaxLimit
	}
	return limit
}

func entryCount(snap *models.HotspotSnapshot) int {
	if snap == nil {
		return 0
	}
	return len(snap.Entries)
}
