// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/models"
)

const readinessTimeout = 2 * time.Second

// HealthLive handles liveness probe requests. It never touches dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

// HealthReady handles readiness probe requests.
// Returns 200 only if the record store answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := true
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := h.store.Ping(ctx)
		cancel()
		if err != nil {
			dbConnected = false
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		}
	}

	statusCode := http.StatusOK
	status := "ready"
	if !dbConnected {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}
