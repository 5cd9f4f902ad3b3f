// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are registered with promauto on the default registry and exposed at
/metrics in Prometheus text format:

	curl http://localhost:8000/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Requests rejected by httprate (counter)

Database Metrics:
  - db_query_duration_seconds: Repository operation time (histogram)
    Labels: operation
  - db_query_errors_total: Failed operations (counter)
    Labels: operation, error_type

Enrichment Metrics:
  - llm_requests_total, llm_request_duration_seconds, llm_retries_total
  - scraper_requests_total, scraper_duration_seconds
  - ingest_jobs_total, ingest_jobs_queued, ingest_stage_duration_seconds,
    ingest_warnings_total

Resilience Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total, circuit_breaker_state_transitions_total

WebSocket Metrics:
  - websocket_connections, websocket_messages_sent_total, websocket_errors_total

Label values are bounded: endpoints are chi route patterns, not raw paths,
and database errors are classified rather than copied.
*/
package metrics
