// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

// @title Techstack API
// @version 1.0
// @description Learning and tech stack tracking: lessons, tasks, courses, a technology taxonomy and URL ingestion.
// @description
// @description ## Ingestion
// @description
// @description `POST /ingest` queues a URL and returns a job. Progress is broadcast on `/ws`;
// @description `/ingest/stream` runs one URL over a websocket and streams progress frames.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address. Ingest endpoints
// @description allow a tenth of that.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {"code": "NOT_FOUND", "message": "lesson not found"},
// @description   "metadata": {"timestamp": "2026-01-01T12:00:00Z"}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/techstack/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
//
// @tag.name Core
// @tag.description Health, summary and performance endpoints
//
// @tag.name Tasks
// @tag.description Learning tasks and their lookups
//
// @tag.name Catalog
// @tag.description Lessons, courses, resources, sources and people
//
// @tag.name Taxonomy
// @tag.description Categories, subcategories, technologies and topics
//
// @tag.name Settings
// @tag.description Learning goals
//
// @tag.name Dashboard
// @tag.description Aggregated tech stack panels
//
// @tag.name Ingest
// @tag.description URL ingestion jobs and progress streaming
package main
