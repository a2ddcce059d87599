// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/metrics"
)

// ErrPublisherClosed is returned by PublishChange after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher emits business change events on one topic, behind a circuit
// breaker so a dead broker fails fast.
type Publisher struct {
	publisher      message.Publisher
	topic          string
	serializer     *Serializer
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	mu             sync.RWMutex
	closed         bool
}

// NewPublisher wraps a Watermill publisher.
func NewPublisher(pub message.Publisher, topic string) *Publisher {
	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
	return &Publisher{
		publisher:      pub,
		topic:          topic,
		serializer:     NewSerializer(),
		circuitBreaker: cb,
	}
}

// PublishChange validates and publishes one event. The event ID is used as
// the Nats-Msg-Id so a retried publish is deduplicated by the stream.
func (p *Publisher) PublishChange(ctx context.Context, event *BusinessChangedEvent) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	msg, err := p.serializer.NewMessage(event)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(p.topic, msg)
	})
	metrics.RecordEventPublish(err)
	if err != nil {
		return fmt.Errorf("publish %s event %s: %w", event.Kind, event.EventID, err)
	}
	return nil
}

// Close stops further publishes. The underlying publisher belongs to its
// Transport and is closed there.
func (p *Publisher) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
