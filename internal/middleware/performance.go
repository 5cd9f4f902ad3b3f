// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/techstack/internal/logging"
)

// RequestMetric is one observed request.
type RequestMetric struct {
	Route      string        `json:"route"`
	Method     string        `json:"method"`
	Status     int           `json:"status"`
	Duration   time.Duration `json:"duration_ns"`
	DurationMS float64       `json:"duration_ms"`
	Timestamp  time.Time     `json:"timestamp"`
}

// RouteStats summarizes latency for one method and route.
type RouteStats struct {
	Route    string  `json:"route"`
	Method   string  `json:"method"`
	Count    int     `json:"count"`
	Errors   int     `json:"errors"`
	AvgMS    float64 `json:"avg_ms"`
	P50MS    float64 `json:"p50_ms"`
	P95MS    float64 `json:"p95_ms"`
	P99MS    float64 `json:"p99_ms"`
	MaxMS    float64 `json:"max_ms"`
	LastSeen string  `json:"last_seen"`
}

// PerformanceMonitor keeps a ring of recent requests for percentile stats.
type PerformanceMonitor struct {
	mu            sync.RWMutex
	metrics       []RequestMetric
	next          int
	full          bool
	slowThreshold time.Duration
}

// NewPerformanceMonitor keeps the last maxMetrics requests. Requests slower
// than slowThreshold are logged at warn level; zero disables that.
func NewPerformanceMonitor(maxMetrics int, slowThreshold time.Duration) *PerformanceMonitor {
	if maxMetrics <= 0 {
		maxMetrics = 1000
	}
	return &PerformanceMonitor{
		metrics:       make([]RequestMetric, maxMetrics),
		slowThreshold: slowThreshold,
	}
}

// RecordRequest stores one observation, overwriting the oldest when full.
func (pm *PerformanceMonitor) RecordRequest(metric RequestMetric) {
	metric.DurationMS = float64(metric.Duration.Microseconds()) / 1000

	pm.mu.Lock()
	pm.metrics[pm.next] = metric
	pm.next++
	if pm.next == len(pm.metrics) {
		pm.next = 0
		pm.full = true
	}
	pm.mu.Unlock()
}

// snapshot returns the stored metrics oldest first.
func (pm *PerformanceMonitor) snapshot() []RequestMetric {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.full {
		out := make([]RequestMetric, pm.next)
		copy(out, pm.metrics[:pm.next])
		return out
	}
	out := make([]RequestMetric, 0, len(pm.metrics))
	out = append(out, pm.metrics[pm.next:]...)
	out = append(out, pm.metrics[:pm.next]...)
	return out
}

// GetStats groups recorded requests by method and route, busiest first.
func (pm *PerformanceMonitor) GetStats() []RouteStats {
	type key struct{ method, route string }
	durations := make(map[key][]time.Duration)
	errors := make(map[key]int)
	lastSeen := make(map[key]time.Time)

	for _, m := range pm.snapshot() {
		k := key{m.Method, m.Route}
		durations[k] = append(durations[k], m.Duration)
		if m.Status >= 500 {
			errors[k]++
		}
		if m.Timestamp.After(lastSeen[k]) {
			lastSeen[k] = m.Timestamp
		}
	}

	stats := make([]RouteStats, 0, len(durations))
	for k, ds := range durations {
		sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
		var total time.Duration
		for _, d := range ds {
			total += d
		}
		stats = append(stats, RouteStats{
			Route:    k.route,
			Method:   k.method,
			Count:    len(ds),
			Errors:   errors[k],
			AvgMS:    toMS(total / time.Duration(len(ds))),
			P50MS:    toMS(percentile(ds, 50)),
			P95MS:    toMS(percentile(ds, 95)),
			P99MS:    toMS(percentile(ds, 99)),
			MaxMS:    toMS(ds[len(ds)-1]),
			LastSeen: lastSeen[k].UTC().Format(time.RFC3339),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		if stats[i].Route != stats[j].Route {
			return stats[i].Route < stats[j].Route
		}
		return stats[i].Method < stats[j].Method
	})
	return stats
}

// GetRecentMetrics returns up to limit requests, newest first.
func (pm *PerformanceMonitor) GetRecentMetrics(limit int) []RequestMetric {
	all := pm.snapshot()
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]RequestMetric, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out
}

// Middleware records every request passing through it.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		route := routePattern(r)
		pm.RecordRequest(RequestMetric{
			Route:     route,
			Method:    r.Method,
			Status:    status,
			Duration:  duration,
			Timestamp: start,
		})

		if pm.slowThreshold > 0 && duration > pm.slowThreshold {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("route", route).
				Dur("duration", duration).
				Msg("slow request")
		}
	})
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p + 99) / 100
	if idx < 1 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}

func toMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
