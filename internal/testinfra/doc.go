// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

// Package testinfra starts Docker containers for integration tests with
// testcontainers-go.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/database/...
//
// # PostgreSQL
//
// NewPostgresContainer runs the postgres image and returns a lib/pq DSN, so
// the same schema and queries that run on the embedded DuckDB file are
// exercised against the postgres driver:
//
//	func TestOnPostgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    pg, err := testinfra.NewPostgresContainer(context.Background())
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    testinfra.CleanupContainer(t, pg)
//	    // database.New(&config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN})
//	}
//
// Tests are skipped when Docker is unavailable.
package testinfra
