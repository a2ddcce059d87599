// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/geodiscovery/internal/api"
	"github.com/tomtom215/geodiscovery/internal/cache"
	"github.com/tomtom215/geodiscovery/internal/cluster"
	"github.com/tomtom215/geodiscovery/internal/config"
	"github.com/tomtom215/geodiscovery/internal/database"
	"github.com/tomtom215/geodiscovery/internal/discovery"
	"github.com/tomtom215/geodiscovery/internal/eventprocessor"
	"github.com/tomtom215/geodiscovery/internal/hotspot"
	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/perfmon"
	"github.com/tomtom215/geodiscovery/internal/supervisor"
	"github.com/tomtom215/geodiscovery/internal/supervisor/services"
)

// The tree waits a little longer than the slowest service drain.
const treeShutdownGrace = 5 * time.Second

// app holds the wired components and the resources main must release.
type app struct {
	cfg        *config.Config
	store      database.Store
	checkpoint *hotspot.BadgerCheckpoint
	aggregator *hotspot.Aggregator
	gateway    *discovery.Gateway
	processor  *eventprocessor.Processor
	server     *http.Server
}

// newApp wires every component. On error, whatever was opened is closed.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.store, err = database.Open(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	if cfg.Database.SeedPath != "" {
		if _, err = database.SeedFromFile(ctx, a.store, cfg.Database.SeedPath); err != nil {
			return nil, err
		}
	}

	resultCache := cache.New(cache.Config{
		TTL:        cfg.Cache.TTL,
		MaxEntries: cfg.Cache.MaxEntries,
	}, cache.SystemClock())
	loader := cache.NewLoader(resultCache, cfg.Cache.ComputeTimeout)

	engine := cluster.NewEngine(cluster.Config{
		BaseCellSize: cfg.Cluster.BaseCellSize,
		MinZoom:      cfg.Cluster.MinZoom,
	})

	monitor := perfmon.New(perfmon.Config{
		SlowThreshold: cfg.Perf.SlowQueryThreshold,
		WindowSize:    cfg.Perf.WindowSize,
		SlowHistory:   cfg.Perf.SlowQueryHistory,
	})

	// Stays a nil interface when disabled; the gateway then serves no hotspots.
	var hotspots discovery.HotspotReader
	if cfg.Hotspot.Enabled {
		if err = a.initHotspots(); err != nil {
			return nil, err
		}
		hotspots = a.aggregator
	}

	a.gateway = discovery.NewGateway(a.store, engine, loader, monitor, hotspots, discovery.Config{
		DefaultZoom:   cfg.Cluster.DefaultZoom,
		CacheTTL:      cfg.Cache.TTL,
		KeyPrecision:  cfg.Cache.KeyPrecision,
		RequestBudget: cfg.Perf.RequestBudget,
	})

	router := api.NewRouter(
		api.NewHandler(a.gateway, a.store),
		api.NewChiMiddlewareFromConfig(&cfg.Security),
	)
	a.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.Events.Enabled {
		a.processor, err = eventprocessor.NewProcessor(ctx, &cfg.Events, a.store, a.gateway)
		if err != nil {
			return nil, fmt.Errorf("create event processor: %w", err)
		}
	}

	return a, nil
}

func (a *app) initHotspots() error {
	// Nil interface unless a path is configured
	var checkpoint hotspot.SnapshotStore
	if path := a.cfg.Hotspot.CheckpointPath; path != "" {
		cp, err := hotspot.OpenCheckpoint(path)
		if err != nil {
			return fmt.Errorf("open hotspot checkpoint: %w", err)
		}
		a.checkpoint = cp
		checkpoint = cp
	}

	a.aggregator = hotspot.NewAggregator(a.store, a.store, checkpoint, hotspot.Config{
		CellLevel:    a.cfg.Hotspot.CellLevel,
		DefaultLimit: a.cfg.Hotspot.DefaultLimit,
		MaxLimit:     a.cfg.Hotspot.MaxLimit,
	})
	return nil
}

// supervisorTree places every long-running component in its layer.
func (a *app) supervisorTree() (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout + treeShutdownGrace,
	})
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}

	if a.aggregator != nil {
		tree.AddDataService(services.NewHotspotService(a.aggregator, services.HotspotServiceConfig{
			RefreshOnStartup: a.cfg.Hotspot.RefreshOnStartup,
			Interval:         a.cfg.Hotspot.Interval,
			RefreshTimeout:   a.cfg.Hotspot.RefreshTimeout,
			RetryInterval:    a.cfg.Hotspot.RetryInterval,
		}, logging.Logger()))
		logging.Info().Dur("interval", a.cfg.Hotspot.Interval).Msg("Hotspot service added")
	}

	if a.processor != nil {
		tree.AddMessagingService(services.NewEventProcessorService(a.processor, a.cfg.Events.CloseTimeout))
		logging.Info().
			Str("transport", a.cfg.Events.Transport).
			Str("topic", a.cfg.Events.Topic).
			Msg("Event processor added")
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
	return tree, nil
}

// Close releases the checkpoint and the record store.
func (a *app) Close() {
	if a.checkpoint != nil {
		if err := a.checkpoint.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing hotspot checkpoint")
		}
		a.checkpoint = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing record store")
		}
		a.store = nil
	}
}
