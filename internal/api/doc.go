// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package api exposes the discovery engine over HTTP using the Chi router.

Routes:

	GET  /api/v1/discovery/clusters          viewport clusters (json or geojson)
	GET  /api/v1/discovery/hotspots          precomputed hotspot index
	GET  /api/v1/discovery/categories        verified business counts per type
	GET  /api/v1/discovery/performance       monitor, cache and hotspot report
	POST /api/v1/discovery/cache/invalidate  drop every cached result
	GET  /health/live, /health/ready         probes
	GET  /metrics                            Prometheus exposition

Every JSON response uses the models.APIResponse envelope. Errors map to HTTP
status codes as follows:

	*models.ValidationError   400 VALIDATION_FAILED    details.field
	models.ErrCircuitOpen     503 SERVICE_UNAVAILABLE  details.executionTimeMs
	*models.UpstreamError     500 DATABASE_ERROR       details.executionTimeMs
	anything else             500 INTERNAL_ERROR

A ?format=geojson cluster query returns a bare RFC 7946 FeatureCollection
with the application/geo+json content type instead of the envelope.

Middleware stack (outermost first): request ID with logging context, real IP,
panic recovery, CORS, then per-group rate limiting, Prometheus request
metrics and gzip compression.
*/
package api
