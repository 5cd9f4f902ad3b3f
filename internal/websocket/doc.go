// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package websocket pushes ingest progress to browsers.

Two endpoints use it:

  - /ws: a Hub fans messages out to every connected Client. The ingest
    service broadcasts ingest_progress, ingest_completed and ingest_failed
    for every queued job.
  - /api/v1/ingest/stream: ServeIngestStream runs a single ingestion for the
    connection and streams its frames directly.

Hub and clients:

	┌──────────┐
	│   Hub    │ ← BroadcastJSON from the ingest service
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│ Client1  │ Client2 │ Client3 │
	└──────────┴─────────┴─────────┘

Each client has a readPump (answers application pings with pongs, detects
disconnects) and a writePump (drains the send buffer, sends protocol pings
every pingPeriod). A client whose 256-message buffer is full is dropped
rather than slowing the hub down.

Messages are JSON:

	{"type": "ingest_progress", "data": {"job_id": "...", "url": "...", "status": "running", "progress": 33, "stage": "Constructing Lesson Metadata..."}}

Stream protocol:

	→ {"url": "https://example.com/post"}
	← {"progress": 10, "stage": "Retrieving Resource Metadata..."}
	← {"progress": 33, "stage": "Constructing Lesson Metadata..."}
	← {"progress": 84, "stage": "Constructing Task Metadata..."}
	← {"progress": 95, "stage": "Saving..."}
	← {"progress": 100, "stage": "Completed", "result": {...}}

A failed run ends with {"error": "..."} instead. Closing the socket cancels
the run.

Settings:
  - writeWait: 10 seconds
  - pongWait: 60 seconds
  - pingPeriod: 54 seconds (9/10 of pongWait)
  - maxMessageSize: 512 KB
*/
package websocket
