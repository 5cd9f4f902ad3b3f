// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package api provides the HTTP surface of the techstack server.

Routing uses chi with go-chi/cors and go-chi/httprate. Every JSON response
uses the models.APIResponse envelope:

	{"status": "success", "data": ..., "metadata": {"timestamp": ...}}
	{"status": "error", "data": null, "error": {"code": "NOT_FOUND", ...}, ...}

Handler methods are split by resource:
  - handlers.go: Handler, dependencies, websocket upgrade
  - handlers_helpers.go: envelope, decoding and parameter helpers
  - handlers_health.go: root, health probes, summary, performance
  - handlers_tasks.go, handlers_lessons.go, handlers_courses.go: learning CRUD
  - handlers_taxonomy.go: categories, subcategories, technologies, topics
  - handlers_sources.go: people, sources, publications, resources
  - handlers_settings.go: learning goal settings
  - handlers_dashboard.go: static dashboard data
  - handlers_ingest.go: URL ingestion jobs and the progress stream

Repository errors map to status codes in one place (respondStoreError):
database.ErrNotFound is 404, database.ErrConflict is 409 and
database.ErrInvalid is 400.
*/
package api
