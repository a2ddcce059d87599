// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package models defines the data structures shared by the discovery engine.

Key Components:

  - BoundingBox, LatLng: viewport geometry with range and ordering checks
  - BusinessRecord: read-only business row owned by the record store
  - Cluster: per-request aggregate of nearby businesses
  - HotspotEntry: one ranked row of the precomputed category density index
  - ValidationError, UpstreamError: the per-request error taxonomy

Nothing in this package performs I/O. Values are safe to share between
goroutines once constructed; callers treat slices inside Cluster as read-only.
*/
package models
