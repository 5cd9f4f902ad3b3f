// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/techstack/internal/middleware"
	"github.com/tomtom215/techstack/internal/models"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseDriver    string  `json:"database_driver,omitempty"`
	DatabaseConnected bool    `json:"database_connected"`
	LLMEnabled        bool    `json:"llm_enabled"`
	IngestEnabled     bool    `json:"ingest_enabled"`
	IngestQueueDepth  int     `json:"ingest_queue_depth"`
	WebSocketClients  int     `json:"websocket_clients"`
	Uptime            float64 `json:"uptime"`
}

// Version is reported by the health endpoint; set at build time.
var Version = "dev"

// Root answers GET /.
//
// @Summary API banner
// @Tags Core
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	data, _ := json.Marshal(models.MessageResponse{Message: "Tech Stack Dashboard API"})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// Health handles health check requests
//
// @Summary Get system health status
// @Description Returns database connectivity, LLM and ingest availability and uptime
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse{data=HealthStatus} "Health status retrieved successfully"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	health := HealthStatus{
		Status:            status,
		Version:           Version,
		DatabaseConnected: dbConnected,
		LLMEnabled:        h.llm != nil,
		IngestEnabled:     h.ingest != nil,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.db != nil {
		health.DatabaseDriver = h.db.Driver()
	}
	if h.ingest != nil {
		health.IngestQueueDepth = h.ingest.QueueDepth()
	}
	if h.wsHub != nil {
		health.WebSocketClients = h.wsHub.GetClientCount()
	}

	respondData(w, http.StatusOK, health)
}

// HealthLive handles liveness probe requests. It returns 200 while the
// process is alive, regardless of dependencies.
//
// @Summary Liveness probe
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests. It returns 503 until the
// database answers.
//
// @Summary Readiness probe
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse "Service is ready"
// @Failure 503 {object} models.APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil || h.db.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Database not ready", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"ready": true})
}

// Summary returns entity counts.
//
// @Summary Entity counts
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Summary}
// @Router /summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.db.Summary(r.Context())
	if err != nil {
		respondStoreError(w, err, "Summary not available")
		return
	}
	respondData(w, http.StatusOK, summary)
}

// CacheReport describes one in-memory cache.
type CacheReport struct {
	Name      string  `json:"name"`
	Keys      int64   `json:"keys"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// PerformanceReport is the body of GET /performance.
type PerformanceReport struct {
	Routes []middleware.RouteStats    `json:"routes"`
	Recent []middleware.RequestMetric `json:"recent"`
	Caches []CacheReport              `json:"caches"`
}

// Performance returns per-route latency percentiles for recent requests
// and hit rates of the registered caches.
//
// @Summary Request latency statistics
// @Tags Core
// @Produce json
// @Param recent query int false "Number of recent requests to include" default(20)
// @Success 200 {object} models.APIResponse{data=PerformanceReport}
// @Router /performance [get]
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	recent := getIntParam(r, "recent", 20)
	caches := make([]CacheReport, 0, len(h.caches))
	for _, nc := range h.caches {
		stats := nc.cache.GetStats()
		caches = append(caches, CacheReport{
			Name:      nc.name,
			Keys:      stats.TotalKeys,
			Hits:      stats.Hits,
			Misses:    stats.Misses,
			Evictions: stats.Evictions,
			HitRate:   nc.cache.HitRate(),
		})
	}
	respondData(w, http.StatusOK, PerformanceReport{
		Routes: h.perfMon.GetStats(),
		Recent: h.perfMon.GetRecentMetrics(recent),
		Caches: caches,
	})
}
