// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

// Package metrics defines the Prometheus collectors exported at /metrics.
//
// Every metric is registered on the default registry under the
// "geodiscovery" namespace:
//
//	curl http://localhost:8080/metrics | grep geodiscovery_
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "geodiscovery"

var (
	// Discovery query metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of discovery queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1, 2.5},
		},
		[]string{"operation", "cache"},
	)

	SlowQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slow_queries_total",
			Help:      "Discovery queries slower than the slow query threshold",
		},
		[]string{"operation"},
	)

	DegradedResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_results_total",
			Help:      "Results returned degraded after the request budget ran out",
		},
		[]string{"operation", "source"}, // source: stale or empty
	)

	// Cache metrics
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cluster cache lookups by result",
		},
		[]string{"result"}, // hit, miss, coalesced
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Entries currently held by the cluster cache, including expired ones",
		},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Cache clears by trigger",
		},
		[]string{"trigger"}, // api, event
	)

	// Record store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Duration of record store queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "driver"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_query_errors_total",
			Help:      "Record store query failures",
		},
		[]string{"operation", "driver"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_active_requests",
			Help:      "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_rate_limit_hits_total",
			Help:      "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Hotspot aggregation metrics
	HotspotRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hotspot_refresh_duration_seconds",
			Help:      "Duration of hotspot refresh cycles",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	HotspotRefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hotspot_refresh_errors_total",
			Help:      "Failed hotspot refresh cycles",
		},
	)

	HotspotEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hotspot_entries",
			Help:      "Entries in the current hotspot snapshot",
		},
	)

	HotspotLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hotspot_last_success_timestamp",
			Help:      "Unix time of the last successful hotspot refresh",
		},
	)

	// Invalidation event metrics
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Business change events consumed by result",
		},
		[]string{"result"}, // applied, failed, malformed
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Business change events published by result",
		},
		[]string{"result"}, // success, error
	)
)

// RecordQuery records one discovery query.
func RecordQuery(operation string, duration time.Duration, cacheHit, slow bool) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	QueryDuration.WithLabelValues(operation, cache).Observe(duration.Seconds())
	if slow {
		SlowQueries.WithLabelValues(operation).Inc()
	}
}

// RecordCacheLookup records a cache lookup outcome.
func RecordCacheLookup(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}

// RecordDBQuery records a record store query.
func RecordDBQuery(operation, driver string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, driver).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, driver).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordHotspotRefresh records one hotspot refresh cycle.
func RecordHotspotRefresh(duration time.Duration, entries int, err error) {
	HotspotRefreshDuration.Observe(duration.Seconds())
	if err != nil {
		HotspotRefreshErrors.Inc()
		return
	}
	HotspotEntries.Set(float64(entries))
	HotspotLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordEventPublish records one change event publish attempt.
func RecordEventPublish(err error) {
	if err != nil {
		EventsPublished.WithLabelValues("error").Inc()
		return
	}
	EventsPublished.WithLabelValues("success").Inc()
}
