// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/techstack/internal/config"
)

// =====================================================
// ChiMiddleware Configuration Tests
// =====================================================

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	t.Parallel()
	m := NewChiMiddleware(nil)

	if m.config == nil {
		t.Fatal("config is nil")
	}
	if len(m.config.CORSAllowedOrigins) != 1 || m.config.CORSAllowedOrigins[0] != defaultCORSOrigin {
		t.Errorf("CORSAllowedOrigins = %v", m.config.CORSAllowedOrigins)
	}
	if m.config.RateLimitRequests != 100 || m.config.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d per %v", m.config.RateLimitRequests, m.config.RateLimitWindow)
	}
}

func TestChiMiddlewareConfigFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		sec         config.SecurityConfig
		origins     int
		credentials bool
		reqs        int
	}{
		{"empty keeps defaults", config.SecurityConfig{}, 1, true, 100},
		{"explicit origins", config.SecurityConfig{CORSOrigins: []string{"https://a.example", "https://b.example"}, RateLimitReqs: 20}, 2, true, 20},
		{"wildcard drops credentials", config.SecurityConfig{CORSOrigins: []string{"*"}}, 1, false, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ChiMiddlewareConfigFrom(tt.sec)
			if len(cfg.CORSAllowedOrigins) != tt.origins {
				t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
			}
			if cfg.CORSAllowCredentials != tt.credentials {
				t.Errorf("credentials = %v, want %v", cfg.CORSAllowCredentials, tt.credentials)
			}
			if cfg.RateLimitRequests != tt.reqs {
				t.Errorf("requests = %d, want %d", cfg.RateLimitRequests, tt.reqs)
			}
		})
	}
}

// =====================================================
// CORS Middleware Tests
// =====================================================

func TestChiMiddleware_CORS(t *testing.T) {
	t.Parallel()
	m := NewChiMiddleware(nil)
	handler := m.CORS()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		origin string
		want   string
	}{
		{defaultCORSOrigin, defaultCORSOrigin},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", tt.origin)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: Access-Control-Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
	req.Header.Set("Origin", defaultCORSOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK && w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != defaultCORSOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q", got)
	}
}

// =====================================================
// Rate Limiting Tests
// =====================================================

func TestChiMiddleware_RateLimit(t *testing.T) {
	t.Parallel()
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if i == 2 {
			checkErrorCode(t, w, ErrCodeRateLimited)
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.RemoteAddr = "203.0.113.8:4000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("second client status = %d", w.Code)
	}
}

func TestChiMiddleware_RateLimitDisabled(t *testing.T) {
	t.Parallel()
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
}

func TestRouter_IngestHasStricterLimit(t *testing.T) {
	t.Parallel()
	svc := newFakeIngest()
	ts := setupTestServer(t, func(ts *testServer) {
		ts.handler.SetIngest(svc, ts.taxonomy)
	})
	// Rebuild the router with limiting on: 10 general requests allow one ingest.
	ts.router = NewRouter(ts.handler, &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{defaultCORSOrigin},
		RateLimitRequests:  10,
		RateLimitWindow:    time.Minute,
	}).SetupChi()

	w := ts.do(t, http.MethodPost, "/api/v1/ingest", `{"url": "https://example.com/one"}`)
	checkStatus(t, w, http.StatusAccepted)
	w = ts.do(t, http.MethodPost, "/api/v1/ingest", `{"url": "https://example.com/two"}`)
	checkStatus(t, w, http.StatusTooManyRequests)

	// Reads are still served.
	checkStatus(t, ts.do(t, http.MethodGet, "/api/v1/ingest/jobs", ""), http.StatusOK)
}

func TestAPISecurityHeaders(t *testing.T) {
	t.Parallel()
	handler := APISecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		tls  bool
		hsts bool
	}{
		{"plain http", false, false},
		{"behind tls proxy", true, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.tls {
			req.Header.Set("X-Forwarded-Proto", "https")
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Header().Get("X-Frame-Options") != "DENY" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: security headers missing", tt.name)
		}
		if got := w.Header().Get("Strict-Transport-Security") != ""; got != tt.hsts {
			t.Errorf("%s: HSTS present = %v, want %v", tt.name, got, tt.hsts)
		}
	}
}
