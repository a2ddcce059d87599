// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package services provides suture.Service wrappers for the long-running
geodiscovery components.

Each wrapper translates a component's own lifecycle into suture's
context-aware Serve:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Available services:

  - HTTPServerService: ListenAndServe plus graceful Shutdown on cancellation.
  - HotspotService: scheduled, jittered hotspot refreshes with rate-limited
    retries after failure; restores a checkpoint before the first refresh.
  - EventProcessorService: Start/Shutdown adapter for the change event
    processor.

Every wrapper returns ctx.Err() on graceful shutdown and a wrapped error on
failure, which suture treats as a restart request. String() names the
service in suture's event log.

Example:

	tree.AddDataService(services.NewHotspotService(aggregator, hotspotCfg, logging.Logger()))
	tree.AddMessagingService(services.NewEventProcessorService(processor, 10*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
*/
package services
