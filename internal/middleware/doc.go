// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package middleware provides http.HandlerFunc middleware shared by the API
routes.

  - PrometheusMetrics: request count, latency and in-flight gauge, labeled by
    the Chi route pattern so path parameters never explode cardinality
  - Compression: pooled gzip (klauspost/compress) for clients that accept it

Both take and return http.HandlerFunc; the api package adapts them to Chi's
func(http.Handler) http.Handler form.
*/
package middleware
