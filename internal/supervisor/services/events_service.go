// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package services

import (
	"context"
	"fmt"
	"time"
)

// EventProcessorRunner is the lifecycle of the change event processor.
// Satisfied by *eventprocessor.Processor.
type EventProcessorRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// EventProcessorService adapts the Start/Shutdown lifecycle to suture's
// Serve: start, wait for cancellation, shut down on a fresh deadline.
// A failed Start is returned so suture retries it with backoff.
type EventProcessorService struct {
	processor       EventProcessorRunner
	shutdownTimeout time.Duration
	name            string
}

// NewEventProcessorService wraps processor. A non-positive timeout uses 10s.
func NewEventProcessorService(processor EventProcessorRunner, shutdownTimeout time.Duration) *EventProcessorService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &EventProcessorService{
		processor:       processor,
		shutdownTimeout: shutdownTimeout,
		name:            "event-processor",
	}
}

// Serve implements suture.Service.
func (s *EventProcessorService) Serve(ctx context.Context) error {
	if err := s.processor.Start(ctx); err != nil {
		return fmt.Errorf("event processor start failed: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.processor.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *EventProcessorService) String() string {
	return s.name
}
