// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/techstack/internal/cache"
	"github.com/tomtom215/techstack/internal/config"
	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/llm"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/middleware"
	"github.com/tomtom215/techstack/internal/models"
	ws "github.com/tomtom215/techstack/internal/websocket"
)

// IngestService queues and runs URL ingestions. *ingest.Service implements it.
type IngestService interface {
	ws.StreamRunner
	Submit(ctx context.Context, rawURL string) (*models.IngestJob, error)
	SubmitBatch(ctx context.Context, urls []string) ([]*models.IngestJob, error)
	Get(ctx context.Context, id string) (*models.IngestJob, error)
	List(ctx context.Context, limit int) ([]*models.IngestJob, error)
	QueueDepth() int
}

// LLMClient is the subset of *llm.Client used outside the pipeline.
type LLMClient interface {
	GenerateTask(ctx context.Context, in llm.TaskInput) (*models.TaskMetadata, error)
	ClassifyCourse(ctx context.Context, in llm.CourseInput, categories []string) ([]models.CategorySuggestion, error)
}

// TaxonomyInvalidator drops cached taxonomy snapshots after categories or
// subcategories change. *ingest.Pipeline implements it.
type TaxonomyInvalidator interface {
	InvalidateTaxonomy()
}

// Handler contains dependencies for API handlers.
//
// The ingest service, LLM client and taxonomy invalidator are optional and
// set after construction; endpoints that need a missing one answer 503.
type Handler struct {
	db        *database.DB
	config    *config.Config
	wsHub     *ws.Hub
	ingest    IngestService
	llm       LLMClient
	taxonomy  TaxonomyInvalidator
	perfMon   *middleware.PerformanceMonitor
	caches    []namedCache
	startTime time.Time
}

type namedCache struct {
	name  string
	cache *cache.Cache
}

// NewHandler creates a new API handler. The performance monitor keeps the
// last 1000 requests and logs requests slower than two seconds.
func NewHandler(db *database.DB, cfg *config.Config, wsHub *ws.Hub) *Handler {
	return &Handler{
		db:        db,
		config:    cfg,
		wsHub:     wsHub,
		startTime: time.Now(),
		perfMon:   middleware.NewPerformanceMonitor(1000, 2*time.Second),
	}
}

// SetIngest wires the ingest service and the cache to invalidate when the
// taxonomy changes.
func (h *Handler) SetIngest(svc IngestService, taxonomy TaxonomyInvalidator) {
	h.ingest = svc
	h.taxonomy = taxonomy
}

// SetLLM wires the language model used by task generation and course
// classification. Leave unset when no provider is configured.
func (h *Handler) SetLLM(client LLMClient) {
	h.llm = client
}

// RegisterCache adds c to the caches reported by GET /performance.
func (h *Handler) RegisterCache(name string, c *cache.Cache) {
	h.caches = append(h.caches, namedCache{name: name, cache: c})
}

// PerformanceMonitor returns the monitor that the router installs as middleware.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// invalidateTaxonomy is called after a category or subcategory is created.
func (h *Handler) invalidateTaxonomy() {
	if h.taxonomy != nil {
		h.taxonomy.InvalidateTaxonomy()
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Requests
// without an Origin header come from non-browser clients and are allowed;
// browser origins must be in the CORS list.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades to the broadcast hub connection that receives
// ingest_progress, ingest_completed and ingest_failed events.
//
// @Summary Event websocket
// @Description Upgrades to a websocket receiving ingest job events
// @Tags Ingest
// @Success 101 "Switching Protocols"
// @Failure 503 {object} models.APIResponse "Hub not running"
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket hub not available", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
