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

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/geodiscovery/internal/config"
	"github.com/tomtom215/geodiscovery/internal/logging"
)

const handlerName = "business-change-invalidation"

// TransportFactory builds a fresh Transport for one processor run.
type TransportFactory func(ctx context.Context) (*Transport, error)

// Processor consumes change events for as long as it runs. Each Start
// builds a new transport and router, so the supervisor can restart it
// after a failure.
type Processor struct {
	newTransport TransportFactory
	routerConfig RouterConfig
	topic        string
	handler      *ChangeHandler
	logger       watermill.LoggerAdapter

	mu        sync.Mutex
	transport *Transport
	router    *Router
	publisher *Publisher
	runErr    chan error
}

// NewProcessor creates a processor for the configured transport. store may be
// nil, in which case events only invalidate caches.
func NewProcessor(ctx context.Context, cfg *config.EventsConfig, store ChangeApplier, caches CacheInvalidator) (*Processor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("events config required")
	}
	if caches == nil {
		return nil, fmt.Errorf("cache invalidator required")
	}
	if cfg.Transport != config.TransportMemory && cfg.Transport != config.TransportNATS {
		return nil, fmt.Errorf("unknown events transport %q", cfg.Transport)
	}

	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	factory := func(ctx context.Context) (*Transport, error) {
		return NewTransport(ctx, cfg, logger)
	}

	routerCfg := DefaultRouterConfig()
	if cfg.CloseTimeout > 0 {
		routerCfg.CloseTimeout = cfg.CloseTimeout
	}
	return newProcessor(factory, routerCfg, cfg.Topic, NewChangeHandler(store, caches), logger), nil
}

func newProcessor(factory TransportFactory, routerCfg RouterConfig, topic string, handler *ChangeHandler, logger watermill.LoggerAdapter) *Processor {
	return &Processor{
		newTransport: factory,
		routerConfig: routerCfg,
		topic:        topic,
		handler:      handler,
		logger:       logger,
	}
}

// Start connects the transport and returns once the handler has subscribed.
// The router keeps running until ctx is canceled or Shutdown is called.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.router != nil {
		return fmt.Errorf("event processor already running")
	}

	transport, err := p.newTransport(ctx)
	if err != nil {
		return fmt.Errorf("create event transport: %w", err)
	}

	router, err := NewRouter(&p.routerConfig, p.logger)
	if err != nil {
		return errors.Join(err, transport.Close(ctx))
	}
	router.AddConsumerHandler(handlerName, p.topic, transport.Subscriber, p.handler.Handle)

	runErr := make(chan error, 1)
	go func() {
		runErr <- router.Run(ctx)
	}()

	select {
	case <-router.Running():
	case err := <-runErr:
		return errors.Join(fmt.Errorf("run event router: %w", err), transport.Close(ctx))
	case <-ctx.Done():
		_ = router.Close()
		return errors.Join(ctx.Err(), transport.Close(context.Background()))
	}

	p.transport = transport
	p.router = router
	p.publisher = NewPublisher(transport.Publisher, p.topic)
	p.runErr = runErr

	logging.Info().
		Str("transport", transport.Kind()).
		Str("topic", p.topic).
		Msg("Event processor started")
	return nil
}

// Shutdown stops the router and releases the transport.
func (p *Processor) Shutdown(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.router == nil {
		return
	}

	p.publisher.Close()
	if err := p.router.Close(); err != nil {
		logging.Warn().Err(err).Msg("Event router close failed")
	}
	select {
	case err := <-p.runErr:
		if err != nil {
			logging.Warn().Err(err).Msg("Event router stopped with error")
		}
	case <-ctx.Done():
		logging.Warn().Msg("Event router did not stop before shutdown deadline")
	}
	if err := p.transport.Close(ctx); err != nil {
		logging.Warn().Err(err).Msg("Event transport close failed")
	}

	p.router = nil
	p.transport = nil
	p.publisher = nil
	p.runErr = nil
	logging.Info().Msg("Event processor stopped")
}

// IsRunning reports whether the router is consuming events.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.router != nil && p.router.IsRunning()
}

// Publisher returns a publisher on the active transport, or nil when the
// processor is not running. With the memory transport this is the only way
// to deliver events to the subscriber.
func (p *Processor) Publisher() *Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publisher
}
