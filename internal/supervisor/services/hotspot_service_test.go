// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/geodiscovery/internal/models"
)

// mockRefresher is a mock implementation for testing.
type mockRefresher struct {
	mu           sync.Mutex
	refreshCalls int
	restoreCalls int
	refreshErr   error
	refreshDelay time.Duration
}

func (m *mockRefresher) Refresh(ctx context.Context) (*models.HotspotSnapshot, error) {
	m.mu.Lock()
	m.refreshCalls++
	err := m.refreshErr
	m.mu.Unlock()

	if m.refreshDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.refreshDelay):
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.HotspotSnapshot{ID: "snap"}, nil
}

func (m *mockRefresher) Restore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restoreCalls++
	return false
}

func (m *mockRefresher) calls() (refresh, restore int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls, m.restoreCalls
}

func TestHotspotService_String(t *testing.T) {
	service := NewHotspotService(&mockRefresher{}, HotspotServiceConfig{}, zerolog.Nop())

	if got := service.String(); got != "hotspot-service" {
		t.Errorf("String() = %q, want %q", got, "hotspot-service")
	}
}

func TestHotspotService_RefreshOnStartup(t *testing.T) {
	refresher := &mockRefresher{}
	cfg := HotspotServiceConfig{
		RefreshOnStartup: true,
		Interval:         time.Hour, // Long interval to avoid scheduled refresh
	}
	service := NewHotspotService(refresher, cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = service.Serve(ctx)

	refresh, restore := refresher.calls()
	if refresh != 1 {
		t.Errorf("Refresh() called %d times, want 1", refresh)
	}
	if restore != 1 {
		t.Errorf("Restore() called %d times, want 1", restore)
	}
}

func TestHotspotService_NoRefreshOnStartup(t *testing.T) {
	refresher := &mockRefresher{}
	cfg := HotspotServiceConfig{Interval: time.Hour}
	service := NewHotspotService(refresher, cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = service.Serve(ctx)

	if refresh, _ := refresher.calls(); refresh != 0 {
		t.Errorf("Refresh() called %d times, want 0", refresh)
	}
}

func TestHotspotService_ScheduledRefresh(t *testing.T) {
	refresher := &mockRefresher{}
	cfg := HotspotServiceConfig{Interval: 40 * time.Millisecond}
	service := NewHotspotService(refresher, cfg, zerolog.Nop())

	// Jitter adds at most 4ms per cycle.
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_ = service.Serve(ctx)

	if refresh, _ := refresher.calls(); refresh < 2 {
		t.Errorf("Refresh() called %d times, want >= 2", refresh)
	}
}

func TestHotspotService_RetryAfterFailure(t *testing.T) {
	refresher := &mockRefresher{refreshErr: errors.New("store down")}
	cfg := HotspotServiceConfig{
		RefreshOnStartup: true,
		Interval:         time.Hour,
		RetryInterval:    50 * time.Millisecond,
	}
	service := NewHotspotService(refresher, cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Millisecond)
	defer cancel()
	_ = service.Serve(ctx)

	// Startup attempt plus paced retries, far sooner than the hourly schedule.
	refresh, _ := refresher.calls()
	if refresh < 2 {
		t.Errorf("Refresh() called %d times, want >= 2", refresh)
	}
	if refresh > 8 {
		t.Errorf("Refresh() called %d times, retries are not paced", refresh)
	}
}

func TestHotspotService_GracefulShutdown(t *testing.T) {
	refresher := &mockRefresher{refreshDelay: 50 * time.Millisecond}
	cfg := HotspotServiceConfig{
		RefreshOnStartup: true,
		Interval:         time.Hour,
	}
	service := NewHotspotService(refresher, cfg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- service.Serve(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not complete in time")
	}
}

func TestHotspotService_RetryDelayBounds(t *testing.T) {
	cfg := HotspotServiceConfig{
		Interval:      100 * time.Millisecond,
		RetryInterval: time.Second,
	}
	service := NewHotspotService(&mockRefresher{}, cfg, zerolog.Nop())

	for i := 0; i < 3; i++ {
		d := service.retryDelay()
		if d < cfg.RetryInterval/10 && d != cfg.Interval {
			t.Errorf("retryDelay() = %v, below floor", d)
		}
		if d > cfg.Interval {
			t.Errorf("retryDelay() = %v, exceeds interval %v", d, cfg.Interval)
		}
	}
}
