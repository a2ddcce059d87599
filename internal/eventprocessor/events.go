// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/geodiscovery/internal/models"
	"github.com/tomtom215/geodiscovery/internal/validation"
)

// Change kinds.
const (
	KindUpsert  = "upsert"  // Records carries the new rows
	KindDelete  = "delete"  // IDs lists the removed rows
	KindRefresh = "refresh" // The store was changed elsewhere; only caches are cleared
)

// BusinessChangedEvent announces a change to the business record set.
type BusinessChangedEvent struct {
	EventID    string                  `json:"event_id" validate:"required"`
	Kind       string                  `json:"kind" validate:"required,oneof=upsert delete refresh"`
	Records    []models.BusinessRecord `json:"records,omitempty"`
	IDs        []string                `json:"ids,omitempty" validate:"dive,required"`
	Source     string                  `json:"source,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
}

// NewBusinessChangedEvent creates an event with a fresh ID and timestamp.
func NewBusinessChangedEvent(kind, source string) *BusinessChangedEvent {
	return &BusinessChangedEvent{
		EventID:    uuid.New().String(),
		Kind:       kind,
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
}

// Validate checks that the event is well formed for its kind.
func (e *BusinessChangedEvent) Validate() error {
	if verr := validation.ValidateStruct(e); verr != nil {
		return verr.ToModelError()
	}
	switch e.Kind {
	case KindUpsert:
		if len(e.Records) == 0 {
			return models.NewValidationError("records", "upsert event carries no records")
		}
		for i := range e.Records {
			if err := validateRecord(&e.Records[i]); err != nil {
				return err
			}
		}
	case KindDelete:
		if len(e.IDs) == 0 {
			return models.NewValidationError("ids", "delete event carries no ids")
		}
	}
	return nil
}

func validateRecord(r *models.BusinessRecord) error {
	switch {
	case r.ID == "":
		return models.NewValidationError("records.id", "record id is required")
	case r.Type == "":
		return models.NewValidationError("records.type", fmt.Sprintf("record %s has no type", r.ID))
	case r.Lat < -90 || r.Lat > 90:
		return models.NewValidationError("records.lat", fmt.Sprintf("record %s latitude out of range", r.ID))
	case r.Lng < -180 || r.Lng > 180:
		return models.NewValidationError("records.lng", fmt.Sprintf("record %s longitude out of range", r.ID))
	}
	return nil
}
