// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// Metadata keys set on outgoing messages.
const (
	metadataKind   = "kind"
	metadataSource = "source"
)

// Serializer handles event encoding/decoding for messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal validates an event and converts it to JSON bytes.
func (s *Serializer) Marshal(event *BusinessChangedEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return data, nil
}

// Unmarshal converts JSON bytes to a validated event.
func (s *Serializer) Unmarshal(data []byte) (*BusinessChangedEvent, error) {
	var event BusinessChangedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	return &event, nil
}

// NewMessage wraps an event in a Watermill message. The event ID doubles as
// the message UUID so JetStream deduplicates redeliveries of a publish.
func (s *Serializer) NewMessage(event *BusinessChangedEvent) (*message.Message, error) {
	payload, err := s.Marshal(event)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set(metadataKind, event.Kind)
	if event.Source != "" {
		msg.Metadata.Set(metadataSource, event.Source)
	}
	return msg, nil
}
