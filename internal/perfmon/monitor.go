// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

// Package perfmon observes discovery queries: it classifies durations, keeps
// a rolling window of latencies for percentile reporting, remembers the most
// recent slow queries and exports everything to Prometheus.
//
// The monitor is purely observational. Recording never returns an error and
// recovers from its own panics so the query path is never affected.
package perfmon

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/metrics"
)

// Status classifies a single query duration.
type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

const (
	goodBelow    = 100 * time.Millisecond
	warningBelow = 200 * time.Millisecond
)

// StatusFor maps a duration to good (<100ms), warning (<200ms) or critical.
func StatusFor(d time.Duration) Status {
	switch {
	case d < goodBelow:
		return StatusGood
	case d < warningBelow:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// Config controls monitor thresholds and retention.
type Config struct {
	SlowThreshold time.Duration
	WindowSize    int
	SlowHistory   int
}

// Observation describes one finished query.
type Observation struct {
	Operation      string
	Duration       time.Duration
	CacheHit       bool
	Degraded       bool
	DegradedSource string                 // "stale" or "empty" when Degraded
	Params         map[string]interface{} // Logged with slow queries
}

// SlowQuery is a query that exceeded the slow threshold.
type SlowQuery struct {
	Operation  string                 `json:"operation"`
	DurationMS float64                `json:"durationMs"`
	Params     map[string]interface{} `json:"params,omitempty"`
	At         time.Time              `json:"at"`
}

// Stats is a point-in-time view of the monitor.
type Stats struct {
	QueryCount        int64       `json:"queryCount"`
	WindowSamples     int         `json:"windowSamples"`
	AvgMS             float64     `json:"avgMs"`
	P50MS             float64     `json:"p50Ms"`
	P95MS             float64     `json:"p95Ms"`
	P99MS             float64     `json:"p99Ms"`
	CacheHitRatio     float64     `json:"cacheHitRatio"`
	DegradedCount     int64       `json:"degradedCount"`
	SlowQueryCount    int64       `json:"slowQueryCount"`
	RequestsPerMinute int64       `json:"requestsPerMinute"`
	Status            Status      `json:"status"` // Classification of the p95
	SlowQueries       []SlowQuery `json:"slowQueries"`
}

type sample struct {
	duration time.Duration
	hit      bool
}

// Monitor aggregates query observations. Safe for concurrent use.
type Monitor struct {
	cfg Config

	mu       sync.Mutex
	window   []sample // Ring buffer of the last cfg.WindowSize samples
	next     int
	filled   bool
	total    int64
	degraded int64
	slowN    int64
	slow     []SlowQuery // Most recent last, at most cfg.SlowHistory

	throughput *throughputCounter
	now        func() time.Time
}

// New creates a monitor, applying defaults for unset fields.
func New(cfg Config) *Monitor {
	return newWithClock(cfg, time.Now)
}

func newWithClock(cfg Config, now func() time.Time) *Monitor {
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = warningBelow
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 1000
	}
	if cfg.SlowHistory <= 0 {
		cfg.SlowHistory = 50
	}
	return &Monitor{
		cfg:        cfg,
		window:     make([]sample, cfg.WindowSize),
		slow:       make([]SlowQuery, 0, cfg.SlowHistory),
		throughput: newThroughputCounter(time.Minute, 12, now),
		now:        now,
	}
}

// Start begins timing a query. The returned function records the
// observation and reports its status and elapsed time.
func (m *Monitor) Start(ctx context.Context, operation string, params map[string]interface{}) func(hit, degraded bool, source string) (Status, time.Duration) {
	begin := m.now()
	return func(hit, degraded bool, source string) (Status, time.Duration) {
		elapsed := m.now().Sub(begin)
		return m.Record(ctx, Observation{
			Operation:      operation,
			Duration:       elapsed,
			CacheHit:       hit,
			Degraded:       degraded,
			DegradedSource: source,
			Params:         params,
		}), elapsed
	}
}

// Record adds one observation and returns its status.
func (m *Monitor) Record(ctx context.Context, obs Observation) (status Status) {
	status = StatusFor(obs.Duration)
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Str("operation", obs.Operation).Msg("Performance monitor panic recovered")
		}
	}()

	slow := obs.Duration > m.cfg.SlowThreshold
	m.observe(obs, slow)

	metrics.RecordQuery(obs.Operation, obs.Duration, obs.CacheHit, slow)
	if obs.Degraded {
		metrics.DegradedResults.WithLabelValues(obs.Operation, obs.DegradedSource).Inc()
	}

	if slow {
		event := logging.Ctx(ctx).Warn().
			Str("operation", obs.Operation).
			Dur("duration", obs.Duration).
			Dur("threshold", m.cfg.SlowThreshold).
			Bool("cache_hit", obs.CacheHit).
			Bool("degraded", obs.Degraded).
			Str("status", string(status))
		if len(obs.Params) > 0 {
			event = event.Fields(obs.Params)
		}
		event.Msg("Slow query")
	}
	return status
}

func (m *Monitor) observe(obs Observation, slow bool) {
	m.throughput.add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	if obs.Degraded {
		m.degraded++
	}
	m.window[m.next] = sample{duration: obs.Duration, hit: obs.CacheHit}
	m.next = (m.next + 1) % len(m.window)
	if m.next == 0 {
		m.filled = true
	}

	if slow {
		m.slowN++
		if len(m.slow) == m.cfg.SlowHistory {
			copy(m.slow, m.slow[1:])
			m.slow = m.slow[:len(m.slow)-1]
		}
		m.slow = append(m.slow, SlowQuery{
			Operation:  obs.Operation,
			DurationMS: millis(obs.Duration),
			Params:     obs.Params,
			At:         m.now().UTC(),
		})
	}
}

// Stats returns a snapshot of the current window.
func (m *Monitor) Stats() Stats {
	perMinute := m.throughput.count()

	m.mu.Lock()
	n := m.next
	if m.filled {
		n = len(m.window)
	}
	durations := make([]time.Duration, n)
	var (
		sum  time.Duration
		hits int
	)
	for i := 0; i < n; i++ {
		durations[i] = m.window[i].duration
		sum += m.window[i].duration
		if m.window[i].hit {
			hits++
		}
	}
	stats := Stats{
		QueryCount:        m.total,
		WindowSamples:     n,
		DegradedCount:     m.degraded,
		SlowQueryCount:    m.slowN,
		RequestsPerMinute: perMinute,
		SlowQueries:       make([]SlowQuery, len(m.slow)),
	}
	copy(stats.SlowQueries, m.slow)
	m.mu.Unlock()

	stats.Status = StatusGood
	if n == 0 {
		return stats
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	stats.AvgMS = millis(sum / time.Duration(n))
	stats.P50MS = millis(percentile(durations, 50))
	p95 := percentile(durations, 95)
	stats.P95MS = millis(p95)
	stats.P99MS = millis(percentile(durations, 99))
	stats.CacheHitRatio = math.Round(float64(hits)/float64(n)*1000) / 1000
	stats.Status = StatusFor(p95)
	return stats
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

func millis(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Millisecond)*100) / 100
}
