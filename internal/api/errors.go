// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/techstack/internal/database"
)

// Error codes used in the response envelope.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeLLMUnavailable     = "LLM_UNAVAILABLE"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeQueueFull          = "QUEUE_FULL"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
)

// errIngestDisabled is reported when the server runs without an ingest service.
var errIngestDisabled = errors.New("ingestion is not configured")

// respondStoreError maps repository errors to responses. notFound is the
// message used for database.ErrNotFound.
func respondStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, notFound, nil)
	case errors.Is(err, database.ErrConflict):
		respondError(w, http.StatusConflict, ErrCodeConflict, "Resource already exists", nil)
	case errors.Is(err, database.ErrInvalid):
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "Database operation failed", err)
	}
}
