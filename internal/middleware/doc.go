// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package middleware provides the HTTP middleware shared by every route.

All middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: reuses or generates X-Request-ID and puts request and
    correlation IDs into the logging context
  - AccessLog: one zerolog line per request with status, bytes and duration
  - PrometheusMetrics: request counters and latency histograms labelled by
    the chi route pattern, so /tasks/1 and /tasks/2 share a series
  - Compression: gzip for clients that accept it (never for websockets)
  - PerformanceMonitor: in-memory latency percentiles per route, served at
    /api/v1/performance

Typical stack, outermost first:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(perf.Middleware)
	r.Use(middleware.Compression)
*/
package middleware
