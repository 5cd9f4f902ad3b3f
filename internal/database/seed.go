// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/models"
)

// seed inserts lookup rows and goal singletons. Every statement is a no-op
// when the row already exists, so seed runs on every start.
func (db *DB) seed(ctx context.Context) error {
	lookups := []struct {
		table string
		names []string
	}{
		{"level", models.Levels},
		{"task_type", models.TaskTypes},
		{"task_status", models.TaskStatuses},
		{"task_priority", models.TaskPriorities},
	}
	for _, l := range lookups {
		for _, name := range l.names {
			if _, err := getOrCreateNamed(ctx, db.conn, l.table, name); err != nil {
				return fmt.Errorf("seed %s %q: %w", l.table, name, err)
			}
		}
	}

	for i, day := range models.WeekDays {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO study_days (id, day, selected) VALUES ($1, $2, false) ON CONFLICT (id) DO NOTHING`,
			i+1, day); err != nil {
			return fmt.Errorf("seed study day %s: %w", day, err)
		}
	}

	singletons := []string{
		`INSERT INTO learning_goals (id, minimum_passing_score) VALUES (1, 80) ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO difficulty_preferences (id, bias) VALUES (1, 'balanced') ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO category_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO task_type_weights (task_type_id, weight)
			SELECT id, 5 FROM task_type ON CONFLICT (task_type_id) DO NOTHING`,
	}
	for _, q := range singletons {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("seed goals: %w", err)
		}
	}

	if db.cfg.SeedTaxonomy {
		return db.seedTaxonomy(ctx)
	}
	return nil
}

// seedTaxonomy loads the default taxonomy into an empty category table.
func (db *DB) seedTaxonomy(ctx context.Context) error {
	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM category`).Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, node := range models.DefaultTaxonomy() {
		categoryID, err := getOrCreateNamed(ctx, db.conn, "category", node.Category)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", node.Category, err)
		}
		for _, sub := range node.Subcategories {
			if _, err := getOrCreateSubcategory(ctx, db.conn, categoryID, sub); err != nil {
				return fmt.Errorf("seed subcategory %q: %w", sub, err)
			}
		}
	}
	logging.Info().Int("categories", len(models.DefaultTaxonomy())).Msg("Seeded default taxonomy")
	return nil
}
