// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/geodiscovery/internal/logging"
)

const (
	embeddedServerName   = "geodiscovery-events"
	embeddedReadyTimeout = 30 * time.Second

	// Change events carry record batches; 8MB leaves room for large upserts.
	embeddedMaxPayload = 8 * 1024 * 1024
)

// EmbeddedServer is an in-process JetStream broker for single-node
// deployments (EVENTS_EMBEDDED_NATS).
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer starts the broker and waits until it accepts clients.
func NewEmbeddedServer(cfg *ServerConfig) (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName:         embeddedServerName,
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.JetStreamMaxMem,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		MaxPayload:         embeddedMaxPayload,
		NoLog:              true,
		NoSigs:             true, // signals belong to cmd/server
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded broker: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(embeddedReadyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded broker not ready after %s", embeddedReadyTimeout)
	}

	logging.Info().
		Str("url", ns.ClientURL()).
		Str("store_dir", cfg.StoreDir).
		Msg("Embedded NATS broker started")

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL is the address clients and the stream initializer dial.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the broker and waits for it to exit, or for ctx.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the broker is accepting connections.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled reports whether JetStream came up with the broker.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}
