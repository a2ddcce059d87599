// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package services

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// HotspotRefresher defines the interface for the hotspot aggregator.
// This allows the service to drive refreshes without importing the hotspot package.
type HotspotRefresher interface {
	// Refresh rebuilds the hotspot snapshot.
	Refresh(ctx context.Context) (*models.HotspotSnapshot, error)

	// Restore seeds the snapshot from a checkpoint, if any.
	Restore() bool
}

// HotspotServiceConfig holds configuration for the hotspot refresh service.
type HotspotServiceConfig struct {
	// RefreshOnStartup triggers a refresh when the service starts.
	RefreshOnStartup bool

	// Interval is the base time between scheduled refreshes.
	Interval time.Duration

	// RefreshTimeout bounds a single refresh.
	RefreshTimeout time.Duration

	// RetryInterval is the minimum spacing of retries after a failure.
	RetryInterval time.Duration
}

// HotspotService runs the hotspot aggregator under Suture supervision.
// Scheduled refreshes are jittered by up to 10% of Interval. After a failed
// refresh it retries sooner, paced by a rate limiter, instead of waiting a
// full interval.
type HotspotService struct {
	refresher HotspotRefresher
	config    HotspotServiceConfig
	retry     *rate.Limiter
	logger    zerolog.Logger
	name      string
}

// NewHotspotService creates a new hotspot refresh service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHotspotService(refresher HotspotRefresher, cfg HotspotServiceConfig, logger zerolog.Logger) *HotspotService {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 2 * time.Minute
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 30 * time.Second
	}
	return &HotspotService{
		refresher: refresher,
		config:    cfg,
		retry:     rate.NewLimiter(rate.Every(cfg.RetryInterval), 1),
		logger:    logger.With().Str("component", "hotspot").Logger(),
		name:      "hotspot-service",
	}
}

// Serve implements the suture.Service interface.
func (s *HotspotService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("refresh_on_startup", s.config.RefreshOnStartup).
		Dur("interval", s.config.Interval).
		Msg("hotspot service starting")

	if s.refresher.Restore() {
		s.logger.Info().Msg("serving checkpointed hotspots until first refresh")
	}

	next := s.jittered()
	if s.config.RefreshOnStartup {
		if err := s.refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial hotspot refresh failed (will retry)")
			next = s.retryDelay()
		}
	}

	timer := time.NewTimer(next)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("hotspot service shutting down")
			return ctx.Err()

		case <-timer.C:
			next = s.jittered()
			if err := s.refresh(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled hotspot refresh failed")
				next = s.retryDelay()
			}
			timer.Reset(next)
		}
	}
}

// refresh performs one refresh under its own deadline.
func (s *HotspotService) refresh(ctx context.Context) error {
	refreshCtx, cancel := context.WithTimeout(ctx, s.config.RefreshTimeout)
	defer cancel()

	_, err := s.refresher.Refresh(refreshCtx)
	return err
}

func (s *HotspotService) jittered() time.Duration {
	spread := int64(s.config.Interval / 10)
	if spread <= 0 {
		return s.config.Interval
	}
	return s.config.Interval + time.Duration(rand.Int64N(spread))
}

// retryDelay never exceeds the scheduled interval.
func (s *HotspotService) retryDelay() time.Duration {
	delay := s.retry.Reserve().Delay()
	if floor := s.config.RetryInterval / 10; delay < floor {
		delay = floor
	}
	if delay > s.config.Interval {
		delay = s.config.Interval
	}
	return delay
}

// String returns the service name for logging.
func (s *HotspotService) String() string {
	return s.name
}
