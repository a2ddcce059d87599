// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/geodiscovery/internal/config"
)

const memoryOutputBuffer = 256

// Transport is a publisher/subscriber pair plus the embedded broker that
// backs them, if any. The Watermill router closes the subscriber when it
// stops, so a Transport serves a single router run.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	kind   string
	server *EmbeddedServer
}

// NewTransport builds the transport selected by cfg.Transport.
func NewTransport(ctx context.Context, cfg *config.EventsConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	switch cfg.Transport {
	case config.TransportMemory:
		return newMemoryTransport(logger), nil
	case config.TransportNATS:
		return newNATSTransport(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown events transport %q", cfg.Transport)
	}
}

func newMemoryTransport(logger watermill.LoggerAdapter) *Transport {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: memoryOutputBuffer,
	}, logger)
	return &Transport{Publisher: ch, Subscriber: ch, kind: config.TransportMemory}
}

func newNATSTransport(ctx context.Context, cfg *config.EventsConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	t := &Transport{kind: config.TransportNATS}
	clientURL := cfg.URL

	if cfg.EmbeddedNATS {
		serverCfg := serverConfigFrom(cfg)
		srv, err := NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		t.server = srv
		clientURL = srv.ClientURL()
		logger.Info("Embedded NATS server started", watermill.LogFields{"url": clientURL})
	}

	streamCfg := DefaultStreamConfig()
	if err := ensureStream(ctx, clientURL, &streamCfg); err != nil {
		return nil, errors.Join(fmt.Errorf("ensure event stream: %w", err), t.Close(ctx))
	}

	pub, err := newNATSPublisher(publisherConfigFrom(clientURL), logger)
	if err != nil {
		return nil, errors.Join(err, t.Close(ctx))
	}
	t.Publisher = pub

	subCfg := subscriberConfigFrom(cfg, clientURL)
	sub, err := newNATSSubscriber(&subCfg, logger)
	if err != nil {
		return nil, errors.Join(err, t.Close(ctx))
	}
	t.Subscriber = sub

	return t, nil
}

// Kind returns the transport name, "nats" or "memory".
func (t *Transport) Kind() string {
	return t.kind
}

// Close releases the publisher, the subscriber and the embedded server.
func (t *Transport) Close(ctx context.Context) error {
	var errs []error
	if t.Publisher != nil {
		if err := t.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if t.Subscriber != nil && t.kind != config.TransportMemory {
		if err := t.Subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if t.server != nil {
		if err := t.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown embedded NATS: %w", err))
		}
		t.server = nil
	}
	return errors.Join(errs...)
}
