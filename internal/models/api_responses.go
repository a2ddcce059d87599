// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package models

import "time"

// Error codes returned in APIError.Code.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
)

// APIResponse is the envelope of every HTTP response.
//
//	{
//	  "status": "success",
//	  "data": {"clusters": [...], "metadata": {...}, "performance": {...}},
//	  "metadata": {"timestamp": "2026-01-02T12:00:00Z", "requestId": "...", "queryTimeMs": 12}
//	}
//
// On failure Status is "error" and Error is set:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_FAILED", "message": "south must be less than north",
//	            "details": {"field": "south"}},
//	  "metadata": {"timestamp": "2026-01-02T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"requestId,omitempty"`
	QueryTimeMS int64     `json:"queryTimeMs,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable error with optional context.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
