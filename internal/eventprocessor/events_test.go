// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"errors"
	"testing"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/geodiscovery/internal/models"
)

func upsertEvent(records ...models.BusinessRecord) *BusinessChangedEvent {
	e := NewBusinessChangedEvent(KindUpsert, "test")
	e.Records = records
	return e
}

func TestBusinessChangedEvent_Validate(t *testing.T) {
	t.Parallel()

	valid := models.BusinessRecord{ID: "b1", Lat: 51.5, Lng: -0.12, Type: "cafe", Rating: 4.2}

	tests := []struct {
		name      string
		event     func() *BusinessChangedEvent
		wantField string
	}{
		{"valid upsert", func() *BusinessChangedEvent { return upsertEvent(valid) }, ""},
		{"valid refresh", func() *BusinessChangedEvent { return NewBusinessChangedEvent(KindRefresh, "") }, ""},
		{"valid delete", func() *BusinessChangedEvent {
			e := NewBusinessChangedEvent(KindDelete, "")
			e.IDs = []string{"b1"}
			return e
		}, ""},
		{"unknown kind", func() *BusinessChangedEvent { return NewBusinessChangedEvent("merge", "") }, "kind"},
		{"missing event id", func() *BusinessChangedEvent {
			e := upsertEvent(valid)
			e.EventID = ""
			return e
		}, "event_id"},
		{"upsert without records", func() *BusinessChangedEvent { return upsertEvent() }, "records"},
		{"delete without ids", func() *BusinessChangedEvent { return NewBusinessChangedEvent(KindDelete, "") }, "ids"},
		{"record without id", func() *BusinessChangedEvent {
			r := valid
			r.ID = ""
			return upsertEvent(r)
		}, "records.id"},
		{"record without type", func() *BusinessChangedEvent {
			r := valid
			r.Type = ""
			return upsertEvent(r)
		}, "records.type"},
		{"latitude out of range", func() *BusinessChangedEvent {
			r := valid
			r.Lat = 91
			return upsertEvent(r)
		}, "records.lat"},
		{"longitude out of range", func() *BusinessChangedEvent {
			r := valid
			r.Lng = -181
			return upsertEvent(r)
		}, "records.lng"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.event().Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *models.ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestSerializer_RejectsInvalidEvents(t *testing.T) {
	t.Parallel()

	s := NewSerializer()
	if _, err := s.Marshal(upsertEvent()); err == nil {
		t.Error("Marshal() accepted an upsert without records")
	}
	if _, err := s.Unmarshal([]byte(`{"event_id":"x","kind":"delete"}`)); err == nil {
		t.Error("Unmarshal() accepted a delete without ids")
	}
	if _, err := s.Unmarshal([]byte(`not json`)); err == nil {
		t.Error("Unmarshal() accepted malformed JSON")
	}
}

func TestSerializer_NewMessage(t *testing.T) {
	t.Parallel()

	event := upsertEvent(models.BusinessRecord{ID: "b1", Lat: 1, Lng: 1, Type: "bar"})
	msg, err := NewSerializer().NewMessage(event)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if msg.UUID != event.EventID {
		t.Errorf("UUID = %q, want event ID %q", msg.UUID, event.EventID)
	}
	if got := msg.Metadata.Get(metadataKind); got != KindUpsert {
		t.Errorf("kind metadata = %q", got)
	}
	if got := msg.Metadata.Get(metadataSource); got != "test" {
		t.Errorf("source metadata = %q", got)
	}
	if msg.Metadata.Get(natsgo.MsgIdHdr) != "" {
		t.Error("Nats-Msg-Id is set by the publisher, not the serializer")
	}
}
