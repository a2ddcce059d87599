// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package supervisor provides process supervision using suture v4.

Every long-running component runs as a suture.Service inside a three-layer
tree, so a failure restarts only its own layer:

	RootSupervisor ("geodiscovery")
	├── DataSupervisor ("data-layer")
	│   └── HotspotService
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventProcessorService (if events.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A service that returns an error is restarted with backoff. When failures
exceed FailureThreshold within the decay window the supervisor pauses for
FailureBackoff before retrying. Supervisor events are logged through
sutureslog into the zerolog-backed slog handler.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

Wrappers for the concrete services live in the services subpackage.
*/
package supervisor
