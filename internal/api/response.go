// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/models"
	"github.com/tomtom215/geodiscovery/internal/validation"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeGeoJSON = "application/geo+json"
)

// sanitizeLogValue removes control characters from strings to prevent log injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON envelope with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	writeBody(w, status, contentTypeJSON, response)
}

// respondGeoJSON sends a bare GeoJSON document.
func respondGeoJSON(w http.ResponseWriter, status int, doc interface{}) {
	writeBody(w, status, contentTypeGeoJSON, doc)
}

func writeBody(w http.ResponseWriter, status int, contentType string, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Vary", "Accept-Encoding")
	if status < http.StatusBadRequest {
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Header().Set("ETag", generateETag(data))
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a weak validator from data using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, data interface{}, start time.Time, cached bool) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      cached,
		},
	})
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondDomainError maps an error returned by the discovery layer to an
// HTTP status and error code.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	var (
		ve       *models.ValidationError
		rve      *validation.RequestValidationError
		upstream *models.UpstreamError
	)
	if errors.As(err, &rve) {
		ve = rve.ToModelError()
	}
	if ve != nil || errors.As(err, &ve) {
		respondError(w, r, http.StatusBadRequest, models.CodeValidationFailed, ve.Error(),
			map[string]interface{}{"field": ve.Field})
		return
	}

	elapsed := map[string]interface{}{
		"executionTimeMs": float64(time.Since(start).Microseconds()) / 1000,
	}
	switch {
	case errors.Is(err, models.ErrCircuitOpen):
		respondError(w, r, http.StatusServiceUnavailable, models.CodeServiceUnavailable,
			"Record store temporarily unavailable", elapsed)
	case errors.Is(err, context.Canceled):
		// The client is gone; nobody reads this.
		logging.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("Request canceled by client")
		respondError(w, r, http.StatusServiceUnavailable, models.CodeServiceUnavailable, "Request canceled", elapsed)
	case errors.As(err, &upstream):
		respondError(w, r, http.StatusInternalServerError, models.CodeDatabaseError,
			"Failed to query business records", elapsed)
	default:
		logging.Ctx(r.Context()).Error().
			Str("error", sanitizeLogValue(err.Error())).
			Str("path", r.URL.Path).
			Msg("Unhandled API error")
		respondError(w, r, http.StatusInternalServerError, models.CodeInternalError, "Internal server error", elapsed)
	}
}
