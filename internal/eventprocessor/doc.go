// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package eventprocessor consumes business change events and keeps the
discovery caches consistent with the record store.

A change event arrives on the configured topic (default "business.changed"),
is applied to the record store when it carries records or IDs, and then
clears the cluster and category caches. Messages are handled by a Watermill
router with panic recovery and exponential backoff retry; an event that
cannot be decoded is acknowledged and counted, never retried.

Transports:

  - nats: NATS JetStream through watermill-nats. With embedded_nats the
    process starts its own single-node nats-server and binds the durable
    consumer to the BUSINESS_EVENTS stream.
  - memory: Watermill gochannel, for single-process deployments and tests.

Usage:

	proc, err := eventprocessor.NewProcessor(ctx, &cfg.Events, store, gateway)
	if err != nil {
	    return err
	}
	// proc implements Start/Shutdown/IsRunning for the supervisor tree
*/
package eventprocessor
