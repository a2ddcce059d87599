// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behavior for every supervisor in the tree.
// Zero fields take the value from DefaultTreeConfig.
type TreeConfig struct {
	// FailureThreshold is the failure count that triggers a backoff.
	FailureThreshold float64

	// FailureDecay is the failure half-life, in seconds.
	FailureDecay float64

	// FailureBackoff is how long a supervisor pauses restarts once over the threshold.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long each service may take to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// layer names a child supervisor of the root.
type layer int

const (
	layerData layer = iota
	layerMessaging
	layerAPI
)

var layerNames = [...]string{
	layerData:      "data-layer",
	layerMessaging: "messaging-layer",
	layerAPI:       "api-layer",
}

// SupervisorTree is the process supervision hierarchy.
//
// The root owns one child supervisor per layer:
//   - data: hotspot refresh
//   - messaging: change event processor (if events are enabled)
//   - api: HTTP server
//
// A broker outage restarting the messaging layer leaves the API serving
// cached and freshly computed results.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers [len(layerNames)]*suture.Supervisor
	logger *slog.Logger
	config TreeConfig
}

// NewSupervisorTree builds the root and its layer supervisors. A nil logger
// uses slog.Default.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	// MustHook has a pointer receiver
	handler := &sutureslog.Handler{Logger: logger}

	t := &SupervisorTree{
		root:   suture.New("geodiscovery", config.spec(handler.MustHook())),
		logger: logger,
		config: config,
	}
	// Layers inherit the root's EventHook once added
	for l, name := range layerNames {
		t.layers[l] = suture.New(name, config.spec(nil))
		t.root.Add(t.layers[l])
	}
	return t, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddDataService adds a service to the data layer, e.g. the hotspot refresher.
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.layers[layerData].Add(svc)
}

// AddMessagingService adds a service to the messaging layer.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.layers[layerMessaging].Add(svc)
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.layers[layerAPI].Add(svc)
}

// RemoveMessagingService stops and removes a messaging service, for
// example when events are switched off at runtime.
func (t *SupervisorTree) RemoveMessagingService(token suture.ServiceToken) error {
	if err := t.layers[layerMessaging].Remove(token); err != nil {
		return err
	}
	t.logger.Info("messaging service removed", "layer", layerNames[layerMessaging])
	return nil
}

// Serve blocks until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a goroutine. The returned channel
// delivers a single value when the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed their shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
