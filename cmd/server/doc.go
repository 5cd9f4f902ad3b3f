// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package main is the entry point for the Techstack server.

Techstack tracks what a person is learning: lessons, tasks, courses and the
technology taxonomy they map to. A URL submitted to /api/v1/ingest is
scraped, enriched by a language model, validated against the taxonomy and
saved as a resource, a lesson and a task.

# Application Architecture

	RootSupervisor ("techstack")
	├── StorageSupervisor ("storage-layer")
	│   └── CheckpointService (DuckDB WAL flush)
	├── IngestSupervisor ("ingest-layer")
	│   └── ingest.Service (worker pool)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket Hub (job progress broadcasts)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB (default) or PostgreSQL
 4. Scraper: net/http with an optional headless browser
 5. LLM: OpenAI-compatible or Gemini provider behind a circuit breaker
 6. Ingest: pipeline, job store and worker pool
 7. Supervisor Tree and HTTP Server

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	HTTP_PORT=8000
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	DB_DRIVER=duckdb             # duckdb or postgres
	DUCKDB_PATH=/data/techstack.duckdb
	DATABASE_URL=postgres://...  # postgres only

	LLM_PROVIDER=openai          # openai, gemini or none
	OPENAI_API_KEY=<key>
	LLM_MODEL=gpt-4-turbo

	SCRAPER_HEADLESS=false
	INGEST_WORKERS=2
	INGEST_JOB_STORE_PATH=       # empty keeps jobs in memory

Without an LLM key the server still starts. Ingestion then falls back to
metadata scraped from the page and the classify endpoint answers 503.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, queued ingest jobs are marked failed, the database
gets a final checkpoint and any service that did not stop in time is
reported.

SIGHUP re-reads the configuration file and environment and applies the
new log level without restarting.

# API Documentation

Swagger documentation is served at /swagger/index.html.
*/
package main
