// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package ingest turns a URL into resource, lesson and task rows.

A Pipeline runs five stages and reports progress after each one:

	10  Retrieving Resource Metadata...   scrape + taxonomy load (parallel), EnrichResource
	33  Constructing Lesson Metadata...   EnrichLesson against the live taxonomy
	84  Constructing Task Metadata...     GenerateTask
	95  Saving...                         database.SaveIngest
	100 Completed

Language model failures never fail a run. Each stage falls back to values
derived from the scraped page and records a warning on the result. Scrape
and persistence failures are returned as *StageError.

Model output is checked against the taxonomy before it is saved: unknown
categories are dropped, subcategories must belong to a kept category, and
levels, task types, statuses and priorities fall back to unknown, learning,
not_started and medium.

Service runs pipelines on a bounded worker pool. Jobs are kept in a
JobStore (BadgerDB, or memory when no path is configured) and every state
change is broadcast as ingest_progress, ingest_completed or ingest_failed.
A URL submitted again within the recent-URL window returns the existing job.
*/
package ingest
