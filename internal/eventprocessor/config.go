// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/geodiscovery/internal/config"
)

// DefaultStreamName is the JetStream stream holding business events.
const DefaultStreamName = "BUSINESS_EVENTS"

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int // -1 picks a random free port
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   64 * 1024 * 1024,       // 64MB
		JetStreamMaxStore: 1 * 1024 * 1024 * 1024, // 1GB
	}
}

// SubscriberConfig holds durable JetStream consumer settings.
type SubscriberConfig struct {
	URL              string
	StreamName       string // Bound with nats.BindStream; disables auto-provisioning
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// PublisherConfig holds JetStream publisher settings.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// StreamConfig defines business event stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns production stream configuration. Change events
// are only useful while caches could still hold stale results, so retention
// is short.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            DefaultStreamName,
		Subjects:        []string{"business.>"},
		MaxAge:          24 * time.Hour,
		MaxBytes:        256 * 1024 * 1024, // 256MB
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// serverConfigFrom derives the embedded server settings from the events
// section. The listen address comes from the client URL when one is set;
// port -1 asks the server for a random free port.
func serverConfigFrom(cfg *config.EventsConfig) ServerConfig {
	sc := DefaultServerConfig()
	if cfg.StoreDir != "" {
		sc.StoreDir = cfg.StoreDir
	}
	if host, port, ok := listenAddr(cfg.URL); ok {
		sc.Host = host
		sc.Port = port
	}
	return sc
}

// listenAddr extracts host and port from a nats:// URL. net/url rejects
// negative ports, so the authority is split by hand.
func listenAddr(rawURL string) (string, int, bool) {
	authority := rawURL
	if _, rest, found := strings.Cut(authority, "://"); found {
		authority = rest
	}
	if i := strings.IndexAny(authority, "/?#"); i >= 0 {
		authority = authority[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		authority = authority[i+1:]
	}

	host, portStr, err := net.SplitHostPort(authority)
	if err != nil || host == "" {
		return "", 0, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < -1 || port > 65535 {
		return "", 0, false
	}
	return host, port, true
}

func subscriberConfigFrom(cfg *config.EventsConfig, clientURL string) SubscriberConfig {
	return SubscriberConfig{
		URL:              clientURL,
		StreamName:       DefaultStreamName,
		DurableName:      cfg.DurableName,
		QueueGroup:       cfg.QueueGroup,
		SubscribersCount: max(cfg.SubscribersCount, 1),
		AckWaitTimeout:   cfg.AckWaitTimeout,
		MaxDeliver:       5,
		MaxAckPending:    256,
		CloseTimeout:     cfg.CloseTimeout,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
	}
}

func publisherConfigFrom(clientURL string) PublisherConfig {
	return PublisherConfig{
		URL:              clientURL,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}
