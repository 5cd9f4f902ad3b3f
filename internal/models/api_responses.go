// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

// Package models holds the request, response and row types shared by the
// database, ingest and api packages.
package models

import (
	"time"
)

// APIResponse is the envelope returned by every /api/v1 endpoint.
//
// Status is "success" (see Data) or "error" (see Error).
//
//	{
//	  "status": "success",
//	  "data": [{"id": 1, "name": "Backend"}],
//	  "metadata": {"timestamp": "2026-01-10T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing and paging information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Offset      int       `json:"offset,omitempty"`
}

// APIError describes a failed request.
//
// Common codes: VALIDATION_ERROR, INVALID_REQUEST, NOT_FOUND, CONFLICT,
// DATABASE_ERROR, LLM_UNAVAILABLE, METHOD_NOT_ALLOWED.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CountResponse is returned by the /count endpoints.
type CountResponse struct {
	Count int64 `json:"count"`
}

// MessageResponse is a bare {"message": ...} body.
type MessageResponse struct {
	Message string `json:"message"`
}

// Summary holds entity counts for the dashboard landing page.
type Summary struct {
	Courses        int64 `json:"courses"`
	Lessons        int64 `json:"lessons"`
	Tasks          int64 `json:"tasks"`
	TasksCompleted int64 `json:"tasks_completed"`
	Technologies   int64 `json:"technologies"`
	Categories     int64 `json:"categories"`
	Resources      int64 `json:"resources"`
	Sources        int64 `json:"sources"`
	Topics         int64 `json:"topics"`
}
