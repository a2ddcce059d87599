// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDegraded marks a result cut short by the request time budget.
	ErrDegraded = errors.New("query exceeded time budget")

	// ErrCircuitOpen is returned when the record store breaker rejects a call.
	ErrCircuitOpen = errors.New("record store circuit open")
)

// ValidationError reports malformed client input. It is always terminal for
// the request and never reaches the cache or the record store.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UpstreamError wraps a failure of the record store or hotspot store.
type UpstreamError struct {
	Op  string
	Err error
}

// NewUpstreamError wraps err with the failing operation name.
func NewUpstreamError(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
