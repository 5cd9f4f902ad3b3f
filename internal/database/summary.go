// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/techstack/internal/models"
)

// Summary returns entity counts in a single round trip.
func (db *DB) Summary(ctx context.Context) (*models.Summary, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var s models.Summary
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM course),
			(SELECT COUNT(*) FROM lesson),
			(SELECT COUNT(*) FROM task),
			(SELECT COUNT(*) FROM task WHERE done),
			(SELECT COUNT(*) FROM technology),
			(SELECT COUNT(*) FROM category),
			(SELECT COUNT(*) FROM resource),
			(SELECT COUNT(*) FROM source),
			(SELECT COUNT(*) FROM topic)`).Scan(
		&s.Courses, &s.Lessons, &s.Tasks, &s.TasksCompleted, &s.Technologies,
		&s.Categories, &s.Resources, &s.Sources, &s.Topics)
	observe("summary", start, err)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return &s, nil
}
