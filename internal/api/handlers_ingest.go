// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/techstack/internal/ingest"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/models"
	ws "github.com/tomtom215/techstack/internal/websocket"
)

// IngestAccepted is the body of a 202 from POST /ingest.
type IngestAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// BatchAccepted is the body of a 202 from POST /ingest/batch.
type BatchAccepted struct {
	Jobs []IngestAccepted `json:"jobs"`
}

// respondIngestError maps ingest service errors to responses.
func respondIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errIngestDisabled):
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Ingestion is not configured", nil)
	case errors.Is(err, ingest.ErrInvalidURL):
		respondError(w, http.StatusBadRequest, ErrCodeValidation, sanitizeLogValue(err.Error()), nil)
	case errors.Is(err, ingest.ErrBatchTooLarge):
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	case errors.Is(err, ingest.ErrQueueFull):
		w.Header().Set("Retry-After", "30")
		respondError(w, http.StatusServiceUnavailable, ErrCodeQueueFull, "Ingest queue is full, retry later", nil)
	case errors.Is(err, ingest.ErrJobNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Ingest job not found", nil)
	default:
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "Ingest job store failed", err)
	}
}

// Ingest queues one URL for enrichment.
//
// @Summary Ingest a URL
// @Description Scrapes the URL, enriches it with the language model and stores resource, lesson and task. Progress is broadcast on /ws.
// @Tags Ingest
// @Accept json
// @Produce json
// @Param request body models.IngestRequest true "URL to ingest"
// @Success 202 {object} models.APIResponse{data=IngestAccepted}
// @Failure 400 {object} models.APIResponse "Invalid URL"
// @Failure 503 {object} models.APIResponse "Queue full"
// @Router /ingest [post]
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		respondIngestError(w, errIngestDisabled)
		return
	}
	var req models.IngestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	job, err := h.ingest.Submit(r.Context(), req.URL)
	if err != nil {
		respondIngestError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/ingest/jobs/"+job.ID)
	respondData(w, http.StatusAccepted, IngestAccepted{JobID: job.ID, Status: job.Status, URL: job.URL})
}

// IngestBatch queues several URLs. Either every URL is accepted or none is;
// a batch that does not fit in the queue is rejected with 503.
//
// @Summary Ingest several URLs
// @Tags Ingest
// @Accept json
// @Produce json
// @Param request body models.BatchIngestRequest true "URLs to ingest"
// @Success 202 {object} models.APIResponse{data=BatchAccepted}
// @Failure 400 {object} models.APIResponse "Invalid URL or batch too large"
// @Failure 503 {object} models.APIResponse "Queue cannot hold the batch"
// @Router /ingest/batch [post]
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		respondIngestError(w, errIngestDisabled)
		return
	}
	var req models.BatchIngestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	jobs, err := h.ingest.SubmitBatch(r.Context(), req.URLs)
	if err != nil {
		respondIngestError(w, err)
		return
	}
	out := BatchAccepted{Jobs: make([]IngestAccepted, 0, len(jobs))}
	for _, job := range jobs {
		out.Jobs = append(out.Jobs, IngestAccepted{JobID: job.ID, Status: job.Status, URL: job.URL})
	}
	respondData(w, http.StatusAccepted, out)
}

// IngestJob returns the state of one job, including the result once it
// completed.
//
// @Summary Get ingest job
// @Tags Ingest
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.APIResponse{data=models.IngestJob}
// @Failure 404 {object} models.APIResponse "Job not found"
// @Router /ingest/jobs/{id} [get]
func (h *Handler) IngestJob(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		respondIngestError(w, errIngestDisabled)
		return
	}
	job, err := h.ingest.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondIngestError(w, err)
		return
	}
	respondData(w, http.StatusOK, job)
}

// IngestJobs lists recent jobs, newest first.
//
// @Summary List ingest jobs
// @Tags Ingest
// @Produce json
// @Param limit query int false "Maximum jobs" default(50)
// @Success 200 {object} models.APIResponse{data=[]models.IngestJob}
// @Router /ingest/jobs [get]
func (h *Handler) IngestJobs(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		respondIngestError(w, errIngestDisabled)
		return
	}
	limit := getIntParam(r, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	jobs, err := h.ingest.List(r.Context(), limit)
	if err != nil {
		respondIngestError(w, err)
		return
	}
	respondData(w, http.StatusOK, jobs)
}

// IngestStream upgrades to a websocket that runs one ingestion: the client
// sends {"url": "..."} and receives {progress, stage} frames followed by the
// result or an error.
//
// @Summary Streamed ingestion
// @Tags Ingest
// @Success 101 "Switching Protocols"
// @Failure 503 {object} models.APIResponse "Ingestion not configured"
// @Router /ingest/stream [get]
func (h *Handler) IngestStream(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		respondIngestError(w, errIngestDisabled)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("ingest stream upgrade failed")
		return
	}
	ws.ServeIngestStream(r.Context(), conn, h.ingest)
}
