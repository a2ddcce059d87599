// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

// Package discovery is the spatial query gateway. It validates viewport
// requests, serves them through the result cache, clusters records on a miss
// and shapes the response. Every request runs under a time budget; when the
// budget runs out the gateway answers with a degraded result (the last good
// cached value, or nothing) instead of failing.
package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomtom215/geodiscovery/internal/cache"
	"github.com/tomtom215/geodiscovery/internal/cluster"
	"github.com/tomtom215/geodiscovery/internal/filter"
	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/metrics"
	"github.com/tomtom215/geodiscovery/internal/models"
	"github.com/tomtom215/geodiscovery/internal/perfmon"
	"github.com/tomtom215/geodiscovery/internal/tracing"
)

const (
	opClusters   = "clusters"
	opCategories = "categories"
	opHotspots   = "hotspots"

	degradedStale = "stale"
	degradedEmpty = "empty"
)

// DefaultRequestBudget bounds one request when no budget is configured.
const DefaultRequestBudget = time.Second

// Config holds gateway settings.
type Config struct {
	DefaultZoom   int
	CacheTTL      time.Duration
	KeyPrecision  int
	RequestBudget time.Duration
}

// staleReader is implemented by caches that keep expired entries.
type staleReader interface {
	GetStale(key string) (interface{}, bool)
}

// Gateway orchestrates discovery queries.
type Gateway struct {
	store    Store
	engine   *cluster.Engine
	loader   *cache.Loader
	monitor  *perfmon.Monitor
	hotspots HotspotReader
	cfg      Config
	tracer   trace.Tracer
}

// NewGateway wires a gateway. hotspots may be nil when the aggregator is
// disabled.
func NewGateway(store Store, engine *cluster.Engine, loader *cache.Loader, monitor *perfmon.Monitor, hotspots HotspotReader, cfg Config) *Gateway {
	if cfg.DefaultZoom == 0 {
		cfg.DefaultZoom = models.DefaultZoom
	}
	if cfg.RequestBudget <= 0 {
		cfg.RequestBudget = DefaultRequestBudget
	}
	if cfg.KeyPrecision <= 0 {
		cfg.KeyPrecision = cache.DefaultKeyPrecision
	}
	return &Gateway{
		store:    store,
		engine:   engine,
		loader:   loader,
		monitor:  monitor,
		hotspots: hotspots,
		cfg:      cfg,
		tracer:   tracing.Tracer(),
	}
}

// Clusters answers a viewport query. Invalid input returns a
// *models.ValidationError before the cache or the store is touched.
func (g *Gateway) Clusters(ctx context.Context, q ClusterQuery) (result *ClusterResult, err error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "discovery.Clusters")
	defer func() { endSpan(span, err) }()

	box, zoom, f, err := g.validate(q)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Float64Slice("bbox", []float64{box.South, box.West, box.North, box.East}),
		attribute.Int("zoom", zoom),
		attribute.StringSlice("filter.types", f.BusinessTypes()),
	)

	params := map[string]interface{}{
		"bounds":  box,
		"zoom":    zoom,
		"filters": f,
	}
	finish := g.monitor.Start(ctx, opClusters, params)

	key := cache.ClusterKey(box, zoom, f, g.cfg.KeyPrecision)
	// The cached value must be a function of the key alone
	cover := cache.CoverBox(box, g.cfg.KeyPrecision)
	budgetCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestBudget)
	defer cancel()

	v, hit, err := g.loader.GetOrCompute(budgetCtx, key, g.cfg.CacheTTL, func(cctx context.Context) (interface{}, error) {
		records, err := g.store.FindWithinBounds(cctx, cover, f)
		if err != nil {
			return nil, models.NewUpstreamError("find_within_bounds", err)
		}
		return g.engine.Build(cctx, records, zoom)
	})

	var (
		clusters []models.Cluster
		source   string
	)
	switch {
	case err == nil:
		clusters, _ = v.([]models.Cluster)
		recordLookup(hit)
	case overBudget(ctx, err):
		clusters, source = g.staleClusters(key)
		logging.Ctx(ctx).Warn().
			Str("operation", opClusters).
			Interface("bounds", box).
			Int("zoom", zoom).
			Str("degraded_source", source).
			Dur("budget", g.cfg.RequestBudget).
			Msg("Request budget exceeded, serving degraded result")
	default:
		return nil, g.upstreamFailure(ctx, opClusters, err, time.Since(start), params)
	}
	metrics.CacheEntries.Set(float64(g.loader.Cache().Stats().Entries))

	degraded := source != ""
	status, elapsed := finish(hit && !degraded, degraded, source)
	span.SetAttributes(attribute.Bool("cache_used", hit), attribute.Bool("degraded", degraded))

	return &ClusterResult{
		Clusters: clusters,
		Metadata: ClusterMetadata{
			Bounds:          q.Bounds,
			Zoom:            zoom,
			Filters:         f,
			TotalClusters:   len(clusters),
			TotalBusinesses: totalBusinesses(clusters),
		},
		Performance: Performance{
			ExecutionTimeMS: millis(elapsed),
			CacheUsed:       hit && !degraded,
			Degraded:        degraded,
			Status:          status,
		},
	}, nil
}

func (g *Gateway) validate(q ClusterQuery) (models.BoundingBox, int, filter.Filter, error) {
	if err := q.Bounds.Validate(); err != nil {
		return models.BoundingBox{}, 0, filter.Filter{}, err
	}
	zoom := g.cfg.DefaultZoom
	if q.Zoom != nil {
		zoom = *q.Zoom
	}
	if err := models.ValidateZoom(zoom); err != nil {
		return models.BoundingBox{}, 0, filter.Filter{}, err
	}
	f, err := filter.Normalize(q.Filter)
	if err != nil {
		return models.BoundingBox{}, 0, filter.Filter{}, err
	}
	return q.Bounds, zoom, f, nil
}

// staleClusters returns the last good value for key, or an empty result.
func (g *Gateway) staleClusters(key string) ([]models.Cluster, string) {
	if sr, ok := g.loader.Cache().(staleReader); ok {
		if v, found := sr.GetStale(key); found {
			if clusters, ok := v.([]models.Cluster); ok {
				metrics.RecordCacheLookup("stale")
				return clusters, degradedStale
			}
		}
	}
	return []models.Cluster{}, degradedEmpty
}

// Categories returns verified business counts per category.
func (g *Gateway) Categories(ctx context.Context) (result *CategoryResult, err error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "discovery.Categories")
	defer func() { endSpan(span, err) }()

	finish := g.monitor.Start(ctx, opCategories, nil)
	key := cache.GenerateKey(cache.PrefixCategories, nil)

	budgetCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestBudget)
	defer cancel()

	v, hit, err := g.loader.GetOrCompute(budgetCtx, key, g.cfg.CacheTTL, func(cctx context.Context) (interface{}, error) {
		counts, err := g.store.CountByCategory(cctx)
		if err != nil {
			return nil, models.NewUpstreamError("count_by_category", err)
		}
		return counts, nil
	})

	var (
		counts []models.CategoryCount
		source string
	)
	switch {
	case err == nil:
		counts, _ = v.([]models.CategoryCount)
		recordLookup(hit)
	case overBudget(ctx, err):
		source = degradedEmpty
		if sr, ok := g.loader.Cache().(staleReader); ok {
			if sv, found := sr.GetStale(key); found {
				if c, ok := sv.([]models.CategoryCount); ok {
					counts, source = c, degradedStale
				}
			}
		}
	default:
		return nil, g.upstreamFailure(ctx, opCategories, err, time.Since(start), nil)
	}
	if counts == nil {
		counts = []models.CategoryCount{}
	}

	degraded := source != ""
	status, elapsed := finish(hit && !degraded, degraded, source)
	return &CategoryResult{
		Categories: counts,
		Performance: Performance{
			ExecutionTimeMS: millis(elapsed),
			CacheUsed:       hit && !degraded,
			Degraded:        degraded,
			Status:          status,
		},
	}, nil
}

// Hotspots reads the precomputed hotspot index. It never touches the store.
func (g *Gateway) Hotspots(ctx context.Context, q HotspotQuery) *HotspotResult {
	_, span := g.tracer.Start(ctx, "discovery.Hotspots")
	defer span.End()

	finish := g.monitor.Start(ctx, opHotspots, nil)
	businessType := strings.ToLower(strings.TrimSpace(q.BusinessType))

	result := &HotspotResult{
		Hotspots: []models.HotspotEntry{},
		Metadata: HotspotMetadata{BusinessType: businessType, Limit: q.Limit},
	}
	if g.hotspots != nil {
		result.Metadata.Limit = g.hotspots.EffectiveLimit(q.Limit)
		result.Hotspots = g.hotspots.GetHotspots(businessType, q.Limit)
		if snap := g.hotspots.Snapshot(); snap != nil {
			generated := snap.GeneratedAt
			result.Metadata.SnapshotID = snap.ID
			result.Metadata.GeneratedAt = &generated
		}
	}
	result.Metadata.Count = len(result.Hotspots)

	finish(result.Metadata.SnapshotID != "", false, "")
	span.SetAttributes(attribute.Int("hotspots.count", result.Metadata.Count))
	return result
}

// PerformanceReport combines monitor, cache and hotspot state.
type PerformanceReport struct {
	Queries  perfmon.Stats  `json:"queries"`
	Cache    CacheReport    `json:"cache"`
	Hotspots HotspotsReport `json:"hotspots"`
}

// CacheReport is the cache section of a PerformanceReport.
type CacheReport struct {
	cache.Stats
	HitRate      float64 `json:"hitRate"` // Percent of lookups served from the map
	Computations int64   `json:"computations"`
}

// HotspotsReport is the hotspot section of a PerformanceReport.
type HotspotsReport struct {
	Enabled     bool       `json:"enabled"`
	SnapshotID  string     `json:"snapshotId,omitempty"`
	Entries     int        `json:"entries"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
}

// Performance returns a point-in-time report.
func (g *Gateway) Performance() PerformanceReport {
	stats := g.loader.Cache().Stats()
	report := PerformanceReport{
		Queries: g.monitor.Stats(),
		Cache: CacheReport{
			Stats:        stats,
			HitRate:      stats.HitRate(),
			Computations: g.loader.Computations(),
		},
	}
	if g.hotspots != nil {
		report.Hotspots.Enabled = true
		if snap := g.hotspots.Snapshot(); snap != nil {
			generated := snap.GeneratedAt
			report.Hotspots.SnapshotID = snap.ID
			report.Hotspots.Entries = len(snap.Entries)
			report.Hotspots.GeneratedAt = &generated
		}
	}
	return report
}

// InvalidateCache drops every cached result and returns how many entries
// were removed. trigger labels the metric ("api", "event").
func (g *Gateway) InvalidateCache(ctx context.Context, trigger string) int {
	removed := g.loader.Cache().Stats().Entries
	g.loader.Clear()
	metrics.CacheInvalidations.WithLabelValues(trigger).Inc()
	metrics.CacheEntries.Set(0)

	logging.Ctx(ctx).Info().
		Str("trigger", trigger).
		Int("removed", removed).
		Msg("Discovery cache invalidated")
	return removed
}

// overBudget reports whether err means the request budget ran out while the
// caller itself was still waiting.
func overBudget(ctx context.Context, err error) bool {
	return ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded)
}

// upstreamFailure logs err with the request parameters and returns it as an
// *models.UpstreamError. A caller cancellation is returned unchanged.
func (g *Gateway) upstreamFailure(ctx context.Context, op string, err error, elapsed time.Duration, params map[string]interface{}) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var upstream *models.UpstreamError
	if !errors.As(err, &upstream) {
		upstream = models.NewUpstreamError(op, err)
	}

	event := logging.Ctx(ctx).Error().
		Err(upstream.Err).
		Str("operation", op).
		Str("upstream_op", upstream.Op).
		Dur("elapsed", elapsed)
	if params != nil {
		event = event.Fields(params)
	}
	event.Msg("Discovery query failed")
	return upstream
}

func recordLookup(hit bool) {
	if hit {
		metrics.RecordCacheLookup("hit")
		return
	}
	metrics.RecordCacheLookup("miss")
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func totalBusinesses(clusters []models.Cluster) int {
	n := 0
	for i := range clusters {
		n += clusters[i].BusinessCount
	}
	return n
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
