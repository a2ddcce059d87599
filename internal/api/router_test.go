// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geodiscovery/internal/cache"
	"github.com/tomtom215/geodiscovery/internal/cluster"
	"github.com/tomtom215/geodiscovery/internal/database"
	"github.com/tomtom215/geodiscovery/internal/discovery"
	"github.com/tomtom215/geodiscovery/internal/hotspot"
	"github.com/tomtom215/geodiscovery/internal/models"
	"github.com/tomtom215/geodiscovery/internal/perfmon"
)

const londonQuery = "south=51.28&west=-0.51&north=51.69&east=0.33"

func testRecords() []models.BusinessRecord {
	return []models.BusinessRecord{
		{ID: "r1", Lat: 51.5074, Lng: -0.1278, Type: "restaurant", Rating: 4.5, Verified: true},
		{ID: "r2", Lat: 51.5155, Lng: -0.0922, Type: "restaurant", Rating: 4.1, Verified: true},
		{ID: "r3", Lat: 51.5033, Lng: -0.1196, Type: "restaurant", Rating: 3.2, Verified: true},
		{ID: "r4", Lat: 51.4975, Lng: -0.1357, Type: "restaurant", Rating: 4.8, Verified: false},
		{ID: "c1", Lat: 51.5136, Lng: -0.1365, Type: "cafe", Rating: 4.6, Verified: true},
		{ID: "c2", Lat: 51.5300, Lng: -0.1200, Type: "cafe", Rating: 3.9, Verified: true},
		{ID: "b1", Lat: 51.5200, Lng: -0.0800, Type: "bar", Rating: 4.0, Verified: true},
		{ID: "p1", Lat: 48.8566, Lng: 2.3522, Type: "restaurant", Rating: 4.9, Verified: true},
	}
}

type testServer struct {
	handler http.Handler
	store   *database.MemoryStore
}

func newTestServer(t *testing.T, mw *ChiMiddlewareConfig) *testServer {
	t.Helper()

	store := database.NewMemoryStore()
	if err := store.UpsertBusinesses(context.Background(), testRecords()); err != nil {
		t.Fatalf("UpsertBusinesses() error = %v", err)
	}
	agg := hotspot.NewAggregator(store, store, nil, hotspot.Config{})
	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	loader := cache.NewLoader(cache.New(cache.Config{TTL: time.Minute}, nil), 2*time.Second)
	gw := discovery.NewGateway(store, cluster.NewEngine(cluster.Config{}), loader, perfmon.New(perfmon.Config{}), agg, discovery.Config{
		DefaultZoom:   12,
		CacheTTL:      time.Minute,
		KeyPrecision:  3,
		RequestBudget: time.Second,
	})

	if mw == nil {
		mw = DefaultChiMiddlewareConfig()
		mw.RateLimitDisabled = true
	}
	router := NewRouter(NewHandler(gw, store), NewChiMiddleware(mw))
	return &testServer{handler: router.SetupChi(), store: store}
}

func (s *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// envelope mirrors models.APIResponse with the payload left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func decodeClusters(t *testing.T, rec *httptest.ResponseRecorder) (envelope, discovery.ClusterResult) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	var res discovery.ClusterResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode cluster result: %v", err)
	}
	return env, res
}

func TestClustersEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/api/v1/discovery/clusters?"+londonQuery)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != contentTypeJSON {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-ID header missing")
	}

	env, res := decodeClusters(t, rec)
	if env.Status != "success" || env.Metadata.RequestID == "" {
		t.Errorf("envelope = %+v", env)
	}
	if res.Metadata.TotalBusinesses != 6 {
		t.Errorf("totalBusinesses = %d, want 6 verified London records", res.Metadata.TotalBusinesses)
	}
	if res.Metadata.Zoom != 12 || res.Metadata.Bounds.South != 51.28 {
		t.Errorf("metadata = %+v", res.Metadata)
	}
	if res.Performance.CacheUsed || env.Metadata.Cached {
		t.Error("first request should not be served from cache")
	}

	env, res = decodeClusters(t, srv.do(t, http.MethodGet, "/api/v1/discovery/clusters?"+londonQuery))
	if !res.Performance.CacheUsed || !env.Metadata.Cached {
		t.Error("repeat request should be served from cache")
	}
}

func TestClustersEndpointFilters(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"comma separated types", "&types=restaurant,cafe", 5},
		{"repeated types", "&types=restaurant&types=CAFE", 5},
		{"min rating inclusive", "&minRating=4", 4},
		{"unverified included", "&verified=false", 7},
		{"zoom accepted", "&zoom=3", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := srv.do(t, http.MethodGet, "/api/v1/discovery/clusters?"+londonQuery+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			_, res := decodeClusters(t, rec)
			if res.Metadata.TotalBusinesses != tt.want {
				t.Errorf("totalBusinesses = %d, want %d", res.Metadata.TotalBusinesses, tt.want)
			}
		})
	}
}

func TestClustersEndpointGeoJSON(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/api/v1/discovery/clusters?"+londonQuery+"&format=geojson")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != contentTypeGeoJSON {
		t.Errorf("Content-Type = %q, want %q", ct, contentTypeGeoJSON)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type       string                 `json:"type"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode geojson: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) == 0 {
		t.Fatalf("unexpected document %s", rec.Body.String())
	}
	total := 0
	for _, f := range fc.Features {
		count, _ := f.Properties["businessCount"].(float64)
		total += int(count)
	}
	if total != 6 {
		t.Errorf("sum of businessCount = %d, want 6", total)
	}
}

func TestClustersEndpointValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	tests := []struct {
		name      string
		query     string
		wantField string
	}{
		{"missing south", "west=-0.51&north=51.69&east=0.33", "south"},
		{"non-numeric west", "south=51.28&west=abc&north=51.69&east=0.33", "west"},
		{"south above north", "south=52&west=-0.51&north=51.69&east=0.33", "south"},
		{"latitude out of range", "south=51.28&west=-0.51&north=91&east=0.33", "north"},
		{"zoom not integer", londonQuery + "&zoom=high", "zoom"},
		{"zoom too large", londonQuery + "&zoom=21", "zoom"},
		{"zoom too small", londonQuery + "&zoom=0", "zoom"},
		{"non-numeric rating", londonQuery + "&minRating=good", "minRating"},
		{"NaN rating", londonQuery + "&minRating=NaN", "minRating"},
		{"infinite rating", londonQuery + "&minRating=-Inf", "minRating"},
		{"bad verified", londonQuery + "&verified=maybe", "verified"},
		{"unknown format", londonQuery + "&format=kml", "format"},
		{"business type with punctuation", londonQuery + "&types=cafe,pub%3BDROP", "types[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, "/api/v1/discovery/clusters?"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			if env.Status != "error" || env.Error == nil || env.Error.Code != models.CodeValidationFailed {
				t.Fatalf("envelope = %+v", env)
			}
			if got := env.Error.Details["field"]; got != tt.wantField {
				t.Errorf("details.field = %v, want %s", got, tt.wantField)
			}
			if want := "invalid " + tt.wantField + ": "; !strings.HasPrefix(env.Error.Message, want) {
				t.Errorf("message = %q, want it to start with %q", env.Error.Message, want)
			}
			if rec.Header().Get("Cache-Control") != "no-store" {
				t.Error("error responses must not be cacheable")
			}
		})
	}

	if calls := srv.store.FindCalls(); calls != 0 {
		t.Errorf("store called %d times for invalid requests", calls)
	}
}

func TestHotspotsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/discovery/hotspots?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res discovery.HotspotResult
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Hotspots) != 2 || res.Metadata.Limit != 2 {
		t.Errorf("got %d hotspots, limit %d; want 2, 2", len(res.Hotspots), res.Metadata.Limit)
	}
	if res.Hotspots[0].Score < res.Hotspots[1].Score {
		t.Error("hotspots not ordered by descending score")
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/discovery/hotspots?businessType=Bar&limit=oops")
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Hotspots) != 1 || res.Hotspots[0].BusinessType != "bar" {
		t.Errorf("bar hotspots = %+v", res.Hotspots)
	}
	if res.Metadata.Limit != hotspot.DefaultLimit {
		t.Errorf("limit = %d, want default %d for malformed input", res.Metadata.Limit, hotspot.DefaultLimit)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/discovery/hotspots?businessType=bar%27%3B--")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("punctuated businessType status = %d, want 400", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Details["field"] != "businessType" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/api/v1/discovery/categories")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res discovery.CategoryResult
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	counts := map[string]int{}
	for _, c := range res.Categories {
		counts[c.BusinessType] = c.BusinessCount
	}
	want := map[string]int{"restaurant": 4, "cafe": 2, "bar": 1}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("%s count = %d, want %d", k, counts[k], v)
		}
	}
}

func TestPerformanceAndInvalidate(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	srv.do(t, http.MethodGet, "/api/v1/discovery/clusters?"+londonQuery)

	rec := srv.do(t, http.MethodGet, "/api/v1/discovery/performance")
	if rec.Code != http.StatusOK {
		t.Fatalf("performance status = %d", rec.Code)
	}
	var report discovery.PerformanceReport
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Queries.QueryCount < 1 || !report.Hotspots.Enabled || report.Hotspots.SnapshotID == "" {
		t.Errorf("report = %+v", report)
	}

	if rec := srv.do(t, http.MethodGet, "/api/v1/discovery/cache/invalidate"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET invalidate status = %d, want 405", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/discovery/cache/invalidate")
	if rec.Code != http.StatusOK {
		t.Fatalf("invalidate status = %d", rec.Code)
	}
	var removed struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &removed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if removed.Removed < 1 {
		t.Errorf("removed = %d, want at least the cached viewport", removed.Removed)
	}

	_, res := decodeClusters(t, srv.do(t, http.MethodGet, "/api/v1/discovery/clusters?"+londonQuery))
	if res.Performance.CacheUsed {
		t.Error("request after invalidation should recompute")
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	if rec := srv.do(t, http.MethodGet, "/health/live"); rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/health/ready"); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	_ = srv.store.Close()
	rec := srv.do(t, http.MethodGet, "/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready after close status = %d, want 503", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Status != "not_ready" {
		t.Errorf("status = %q, want not_ready", env.Status)
	}
	if rec := srv.do(t, http.MethodGet, "/health/live"); rec.Code != http.StatusOK {
		t.Errorf("live must not depend on the store, status = %d", rec.Code)
	}
}

func TestMetricsAndNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	srv.do(t, http.MethodGet, "/api/v1/discovery/categories")

	rec := srv.do(t, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "geodiscovery_api_requests_total") {
		t.Errorf("metrics status = %d, missing api_requests_total", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/discovery/nowhere")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != models.CodeNotFound {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Hour
	srv := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := srv.do(t, http.MethodGet, "/api/v1/discovery/categories"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := srv.do(t, http.MethodGet, "/api/v1/discovery/categories")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != models.CodeRateLimitExceeded {
		t.Errorf("envelope = %+v", env)
	}

	// Health probes have their own budget.
	if rec := srv.do(t, http.MethodGet, "/health/live"); rec.Code != http.StatusOK {
		t.Errorf("health status = %d after discovery limit", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://maps.example.com"}
	srv := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/discovery/clusters", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/discovery/clusters", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}

// stubDiscovery returns a fixed error from every fallible call.
type stubDiscovery struct {
	err error
}

func (s *stubDiscovery) Clusters(context.Context, discovery.ClusterQuery) (*discovery.ClusterResult, error) {
	return nil, s.err
}

func (s *stubDiscovery) Categories(context.Context) (*discovery.CategoryResult, error) {
	return nil, s.err
}

func (s *stubDiscovery) Hotspots(context.Context, discovery.HotspotQuery) *discovery.HotspotResult {
	return &discovery.HotspotResult{Hotspots: []models.HotspotEntry{}}
}

func (s *stubDiscovery) Performance() discovery.PerformanceReport { return discovery.PerformanceReport{} }

func (s *stubDiscovery) InvalidateCache(context.Context, string) int { return 0 }

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"upstream failure", models.NewUpstreamError("find_within_bounds", errors.New("disk I/O error")), http.StatusInternalServerError, models.CodeDatabaseError},
		{"circuit open", models.NewUpstreamError("find_within_bounds", fmt.Errorf("%w: open", models.ErrCircuitOpen)), http.StatusServiceUnavailable, models.CodeServiceUnavailable},
		{"domain validation", models.NewValidationError("zoom", "must be between 1 and 20"), http.StatusBadRequest, models.CodeValidationFailed},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, models.CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultChiMiddlewareConfig()
			cfg.RateLimitDisabled = true
			h := NewRouter(NewHandler(&stubDiscovery{err: tt.err}, nil), NewChiMiddleware(cfg)).SetupChi()

			for _, target := range []string{"/api/v1/discovery/clusters?" + londonQuery, "/api/v1/discovery/categories"} {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
				if rec.Code != tt.wantStatus {
					t.Fatalf("%s status = %d, want %d", target, rec.Code, tt.wantStatus)
				}
				env := decodeEnvelope(t, rec)
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Fatalf("%s envelope = %+v", target, env)
				}
				if tt.wantStatus >= http.StatusInternalServerError {
					if _, ok := env.Error.Details["executionTimeMs"]; !ok {
						t.Errorf("%s details missing executionTimeMs: %v", target, env.Error.Details)
					}
					if strings.Contains(rec.Body.String(), "disk I/O") {
						t.Error("internal error text leaked to the client")
					}
				}
			}
		})
	}
}

func TestParseCommaSeparated(t *testing.T) {
	t.Parallel()

	got := parseCommaSeparated("restaurant, cafe", "", " ,bar,,")
	want := []string{"restaurant", "cafe", "bar"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("parseCommaSeparated() = %v, want %v", got, want)
	}
	if parseCommaSeparated() != nil {
		t.Error("no values should yield nil")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/discovery/hotspots?"+url.Values{"limit": {"1"}}.Encode(), nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-abc-123" {
		t.Errorf("X-Request-ID = %q, want echoed value", got)
	}
	if env := decodeEnvelope(t, rec); env.Metadata.RequestID != "req-abc-123" {
		t.Errorf("metadata.requestId = %q", env.Metadata.RequestID)
	}
}
