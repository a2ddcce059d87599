// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package api

import (
	"context"
	"time"

	"github.com/tomtom215/geodiscovery/internal/discovery"
)

// Discovery is the engine surface the handlers call. *discovery.Gateway
// implements it.
type Discovery interface {
	Clusters(ctx context.Context, q discovery.ClusterQuery) (*discovery.ClusterResult, error)
	Categories(ctx context.Context) (*discovery.CategoryResult, error)
	Hotspots(ctx context.Context, q discovery.HotspotQuery) *discovery.HotspotResult
	Performance() discovery.PerformanceReport
	InvalidateCache(ctx context.Context, trigger string) int
}

// Pinger reports record store reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the discovery endpoints.
type Handler struct {
	discovery Discovery
	store     Pinger
	startTime time.Time
}

// NewHandler creates a handler. store may be nil, in which case the
// readiness probe reports ready whenever the process is up.
func NewHandler(d Discovery, store Pinger) *Handler {
	return &Handler{
		discovery: d,
		store:     store,
		startTime: time.Now(),
	}
}
