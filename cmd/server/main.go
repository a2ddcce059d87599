// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

// Package main is the entry point for the geodiscovery server.
//
// Geodiscovery answers map viewport queries with clustered business
// results, keeps a precomputed hotspot index, and exposes both over a REST
// API with Prometheus metrics.
//
// # Startup order
//
//  1. Configuration: struct defaults, optional config.yaml, environment (koanf v2)
//  2. Logging and tracing
//  3. Record store (duckdb, sqlite or memory), optional GeoJSON seed
//  4. Cache, cluster engine, performance monitor, hotspot aggregator
//  5. Discovery gateway and HTTP router
//  6. Change event processor (if EVENTS_ENABLED)
//  7. Supervisor tree: data, messaging and API layers
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the tree's context. Each service drains on its
// own deadline, then the store, checkpoint and tracer are closed.
//
// # Example
//
//	export DATABASE_DRIVER=sqlite
//	export DATABASE_PATH=/data/businesses.db
//	export DATABASE_SEED_PATH=/data/businesses.geojson
//	./geodiscovery
//
//	curl 'http://localhost:8080/api/v1/discovery/clusters?south=51.4&west=-0.2&north=51.6&east=0&zoom=12'
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/geodiscovery/internal/config"
	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/tracing"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Logging is not configured yet; the default logger writes JSON to stderr
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Caller:  cfg.Logging.Caller,
		Service: cfg.Tracing.ServiceName,
		Output:  os.Stderr,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("driver", cfg.Database.Driver).
		Bool("events_enabled", cfg.Events.Enabled).
		Bool("hotspot_enabled", cfg.Hotspot.Enabled).
		Msg("Starting geodiscovery")

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("Tracer shutdown failed")
		}
	}()

	app, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	tree, err := app.supervisorTree()
	if err != nil {
		return err
	}

	logging.Info().Str("addr", app.server.Addr).Msg("Starting supervisor tree")
	serveErr := <-tree.ServeBackground(ctx)
	if errors.Is(serveErr, context.Canceled) {
		serveErr = nil
	}
	if serveErr != nil {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("svc", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Geodiscovery stopped")
	return serveErr
}
