// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/metrics"
	"github.com/tomtom215/geodiscovery/internal/models"
)

// InvalidationTrigger labels cache invalidations caused by change events.
const InvalidationTrigger = "event"

// CacheInvalidator clears cached discovery results.
// Satisfied by *discovery.Gateway.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context, trigger string) int
}

// ChangeApplier writes changed records to the record store.
// Satisfied by every database.Store.
type ChangeApplier interface {
	UpsertBusinesses(ctx context.Context, records []models.BusinessRecord) error
	DeleteBusinesses(ctx context.Context, ids []string) error
}

// ChangeHandler applies change events and invalidates caches afterwards.
type ChangeHandler struct {
	store      ChangeApplier
	caches     CacheInvalidator
	serializer *Serializer
}

// NewChangeHandler creates a handler. A nil store skips the write step, for
// deployments where the producer writes the store itself.
func NewChangeHandler(store ChangeApplier, caches CacheInvalidator) *ChangeHandler {
	return &ChangeHandler{
		store:      store,
		caches:     caches,
		serializer: NewSerializer(),
	}
}

// Handle implements message.NoPublishHandlerFunc.
//
// A payload that does not decode is acknowledged; redelivering it cannot
// succeed. A store error is returned so the router retries and, once
// retries are exhausted, nacks the message for redelivery.
func (h *ChangeHandler) Handle(msg *message.Message) error {
	ctx := msg.Context()
	logger := logging.Ctx(ctx).With().Str("message_uuid", msg.UUID).Logger()

	event, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		metrics.EventsConsumed.WithLabelValues("malformed").Inc()
		logger.Warn().Err(err).Msg("Dropping malformed change event")
		return nil
	}

	if err := h.apply(ctx, event); err != nil {
		metrics.EventsConsumed.WithLabelValues("failed").Inc()
		return err
	}

	removed := h.caches.InvalidateCache(ctx, InvalidationTrigger)
	metrics.EventsConsumed.WithLabelValues("applied").Inc()
	logger.Info().
		Str("event_id", event.EventID).
		Str("kind", event.Kind).
		Str("source", event.Source).
		Int("records", len(event.Records)+len(event.IDs)).
		Int("cache_entries_removed", removed).
		Msg("Change event applied")
	return nil
}

func (h *ChangeHandler) apply(ctx context.Context, event *BusinessChangedEvent) error {
	if h.store == nil {
		return nil
	}
	switch event.Kind {
	case KindUpsert:
		if err := h.store.UpsertBusinesses(ctx, event.Records); err != nil {
			return fmt.Errorf("apply upsert event %s: %w", event.EventID, err)
		}
	case KindDelete:
		if err := h.store.DeleteBusinesses(ctx, event.IDs); err != nil {
			return fmt.Errorf("apply delete event %s: %w", event.EventID, err)
		}
	}
	return nil
}
