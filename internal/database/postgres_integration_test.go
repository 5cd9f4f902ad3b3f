// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/techstack/internal/config"
	"github.com/tomtom215/techstack/internal/models"
	"github.com/tomtom215/techstack/internal/testinfra"
)

// setupPostgresDB starts a PostgreSQL container and opens it through the
// postgres driver with the default taxonomy seeded.
func setupPostgresDB(t *testing.T) *DB {
	t.Helper()
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	testinfra.CleanupContainer(t, pg)

	db, err := New(&config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		DSN:          pg.DSN,
		SeedTaxonomy: true,
	})
	checkNoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresIngestRoundTrip(t *testing.T) {
	db := setupPostgresDB(t)
	ctx := context.Background()

	checkStringEqual(t, "driver", db.Driver(), config.DriverPostgres)
	checkNoError(t, db.Ping(ctx))
	// Checkpoint is a no-op outside DuckDB.
	checkNoError(t, db.Checkpoint(ctx))

	rec := sampleIngestRecord()
	first, err := db.SaveIngest(ctx, rec)
	checkNoError(t, err)
	checkBoolEqual(t, "created", first.Created, true)

	second, err := db.SaveIngest(ctx, rec)
	checkNoError(t, err)
	checkBoolEqual(t, "created on replay", second.Created, false)
	checkInt64Equal(t, "lesson id", second.LessonID, first.LessonID)
	checkInt64Equal(t, "task id", second.TaskID, first.TaskID)

	lesson, err := db.GetLesson(ctx, first.LessonID)
	checkNoError(t, err)
	checkStringEqual(t, "level", lesson.Level, models.LevelIntermediate)
	checkIntEqual(t, "topics", len(lesson.Topics), 2)

	summary, err := db.Summary(ctx)
	checkNoError(t, err)
	if summary == nil {
		t.Fatal("summary is nil")
	}
}

func TestPostgresLessonCRUD(t *testing.T) {
	db := setupPostgresDB(t)
	ctx := context.Background()

	backendID, err := db.CategoryID(ctx, "Backend")
	checkNoError(t, err)

	created, err := db.CreateLesson(ctx, models.LessonCreate{
		Title:             "Connection pooling",
		EstimatedDuration: 20,
		CategoryIDs:       []int64{backendID},
	})
	checkNoError(t, err)

	count, err := db.CountLessons(ctx)
	checkNoError(t, err)
	checkInt64Equal(t, "lesson count", count, 1)

	checkNoError(t, db.DeleteLesson(ctx, created.ID))
	_, err = db.GetLesson(ctx, created.ID)
	checkErrorIs(t, err, ErrNotFound)
}
