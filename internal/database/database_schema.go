// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
database_schema.go - Database Schema Management

The same DDL runs on DuckDB and Postgres. Identifiers come from sequences so
that both engines share one column definition.

Tables:
  - Taxonomy: category, subcategory, technology, technology_subcategory, topic, level
  - Provenance: person, sourcetype, source, source_author, publication,
    resourcetype, resource, resource_author
  - Learning: course, course_category, module, lesson and its four link tables
  - Work: section, task_type, task_status, task_priority, task, task_topic
  - Goals: learning_goals, study_days, study_hours, task_type_weights,
    difficulty_preferences, category_preference, category_settings

Referential integrity:
There are no FOREIGN KEY clauses. DuckDB implements UPDATE on indexed columns
as delete plus insert, which trips its foreign key checks on rows that are
still referenced. Deletes cascade explicitly in the repository methods
instead, and link tables are changed by diff rather than delete-all.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// sequencedTables own an <name>_id_seq sequence.
var sequencedTables = []string{
	"category", "subcategory", "technology", "technology_subcategory", "topic", "level",
	"person", "sourcetype", "source", "publication", "resourcetype", "resource",
	"course", "module", "lesson",
	"section", "task_type", "task_status", "task_priority", "task",
	"study_hours", "task_type_weights", "category_preference",
}

// createTables creates sequences and tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := make([]string, 0, len(sequencedTables)+40)
	for _, table := range sequencedTables {
		queries = append(queries, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s_id_seq START 1", table))
	}
	queries = append(queries, getTableCreationQueries()...)

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// lookupTable returns the DDL for a simple unique-name table.
func lookupTable(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGINT PRIMARY KEY DEFAULT nextval('%[1]s_id_seq'),
			name TEXT NOT NULL UNIQUE
		)`, name)
}

// linkTable returns the DDL for a many-to-many table with a composite key.
func linkTable(name, left, right string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%[2]s BIGINT NOT NULL,
			%[3]s BIGINT NOT NULL,
			PRIMARY KEY (%[2]s, %[3]s)
		)`, name, left, right)
}

// getTableCreationQueries returns the table creation SQL statements
func getTableCreationQueries() []string {
	return []string{
		// Taxonomy
		lookupTable("category"),
		`CREATE TABLE IF NOT EXISTS subcategory (
			id BIGINT PRIMARY KEY DEFAULT nextval('subcategory_id_seq'),
			name TEXT NOT NULL,
			category_id BIGINT NOT NULL,
			UNIQUE (category_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS technology (
			id BIGINT PRIMARY KEY DEFAULT nextval('technology_id_seq'),
			name TEXT NOT NULL UNIQUE,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS technology_subcategory (
			id BIGINT PRIMARY KEY DEFAULT nextval('technology_subcategory_id_seq'),
			technology_id BIGINT NOT NULL,
			subcategory_id BIGINT NOT NULL,
			UNIQUE (technology_id, subcategory_id)
		)`,
		lookupTable("topic"),
		lookupTable("level"),

		// Provenance
		`CREATE TABLE IF NOT EXISTS person (
			id BIGINT PRIMARY KEY DEFAULT nextval('person_id_seq'),
			name TEXT NOT NULL UNIQUE,
			website TEXT
		)`,
		lookupTable("sourcetype"),
		`CREATE TABLE IF NOT EXISTS source (
			id BIGINT PRIMARY KEY DEFAULT nextval('source_id_seq'),
			name TEXT NOT NULL UNIQUE,
			sourcetype_id BIGINT,
			website TEXT,
			image_url TEXT
		)`,
		linkTable("source_author", "source_id", "person_id"),
		`CREATE TABLE IF NOT EXISTS publication (
			id BIGINT PRIMARY KEY DEFAULT nextval('publication_id_seq'),
			name TEXT NOT NULL,
			source_id BIGINT NOT NULL,
			UNIQUE (source_id, name)
		)`,
		lookupTable("resourcetype"),
		`CREATE TABLE IF NOT EXISTS resource (
			id BIGINT PRIMARY KEY DEFAULT nextval('resource_id_seq'),
			title TEXT NOT NULL,
			description TEXT,
			resourcetype_id BIGINT,
			url TEXT UNIQUE,
			source_id BIGINT,
			publication_id BIGINT,
			image_url TEXT,
			published_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		linkTable("resource_author", "resource_id", "person_id"),

		// Courses and lessons
		`CREATE TABLE IF NOT EXISTS course (
			id BIGINT PRIMARY KEY DEFAULT nextval('course_id_seq'),
			title TEXT NOT NULL,
			description TEXT,
			level_id BIGINT,
			resource_id BIGINT,
			created_at TIMESTAMP NOT NULL
		)`,
		linkTable("course_category", "course_id", "category_id"),
		`CREATE TABLE IF NOT EXISTS module (
			id BIGINT PRIMARY KEY DEFAULT nextval('module_id_seq'),
			title TEXT NOT NULL,
			course_id BIGINT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS lesson (
			id BIGINT PRIMARY KEY DEFAULT nextval('lesson_id_seq'),
			lesson_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT,
			module_id BIGINT,
			level_id BIGINT,
			resource_id BIGINT,
			content TEXT,
			video_url TEXT,
			sort_order INTEGER NOT NULL DEFAULT 0,
			estimated_duration INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		linkTable("lesson_topic", "lesson_id", "topic_id"),
		linkTable("lesson_category", "lesson_id", "category_id"),
		linkTable("lesson_subcategory", "lesson_id", "subcategory_id"),
		linkTable("lesson_technology", "lesson_id", "technology_id"),

		// Tasks
		lookupTable("section"),
		lookupTable("task_type"),
		lookupTable("task_status"),
		lookupTable("task_priority"),
		`CREATE TABLE IF NOT EXISTS task (
			id BIGINT PRIMARY KEY DEFAULT nextval('task_id_seq'),
			task_id TEXT NOT NULL UNIQUE,
			task TEXT NOT NULL,
			description TEXT,
			technology_id BIGINT,
			subcategory_id BIGINT,
			category_id BIGINT,
			section_id BIGINT,
			source_id BIGINT,
			lesson_id BIGINT,
			level_id BIGINT,
			type_id BIGINT,
			status_id BIGINT,
			priority_id BIGINT,
			progress INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			due_date DATE,
			start_date DATE,
			end_date DATE,
			estimated_duration INTEGER NOT NULL DEFAULT 0,
			actual_duration INTEGER,
			done BOOLEAN NOT NULL DEFAULT false,
			completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		linkTable("task_topic", "task_id", "topic_id"),

		// Goals
		`CREATE TABLE IF NOT EXISTS learning_goals (
			id INTEGER PRIMARY KEY,
			daily_goal INTEGER NOT NULL DEFAULT 0,
			weekly_goal INTEGER NOT NULL DEFAULT 0,
			tasks_per_day INTEGER NOT NULL DEFAULT 0,
			tasks_per_week INTEGER NOT NULL DEFAULT 0,
			daily_quiz_goal INTEGER NOT NULL DEFAULT 0,
			quizzes_per_week INTEGER NOT NULL DEFAULT 0,
			minimum_passing_score INTEGER NOT NULL DEFAULT 80,
			review_missed_topics_weekly BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS study_days (
			id INTEGER PRIMARY KEY,
			day TEXT NOT NULL UNIQUE,
			selected BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS study_hours (
			id BIGINT PRIMARY KEY DEFAULT nextval('study_hours_id_seq'),
			label TEXT NOT NULL,
			time_range TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS task_type_weights (
			id BIGINT PRIMARY KEY DEFAULT nextval('task_type_weights_id_seq'),
			task_type_id BIGINT NOT NULL UNIQUE,
			weight INTEGER NOT NULL DEFAULT 5
		)`,
		`CREATE TABLE IF NOT EXISTS difficulty_preferences (
			id INTEGER PRIMARY KEY,
			difficulty_range TEXT NOT NULL DEFAULT '',
			bias TEXT NOT NULL DEFAULT 'balanced',
			min_beginner INTEGER NOT NULL DEFAULT 0,
			min_intermediate INTEGER NOT NULL DEFAULT 0,
			min_advanced INTEGER NOT NULL DEFAULT 0,
			min_expert INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS category_preference (
			id BIGINT PRIMARY KEY DEFAULT nextval('category_preference_id_seq'),
			category_id BIGINT NOT NULL UNIQUE,
			target_percentage INTEGER NOT NULL DEFAULT 0,
			min_subcategories INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS category_settings (
			id INTEGER PRIMARY KEY,
			enforce_balance BOOLEAN NOT NULL DEFAULT false,
			auto_alert_on_imbalance BOOLEAN NOT NULL DEFAULT false
		)`,
	}
}

// createIndexes creates indexes for foreign key lookups
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}

// getIndexQueries returns the index creation SQL statements. Only columns
// that are never updated are indexed; DuckDB rewrites updates of indexed
// columns and rejects them when the row is also covered by a unique key.
func getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_subcategory_category ON subcategory(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_techsub_subcategory ON technology_subcategory(subcategory_id)`,
		`CREATE INDEX IF NOT EXISTS idx_module_course ON module(course_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lesson_topic_topic ON lesson_topic(topic_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lesson_category_category ON lesson_category(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lesson_technology_technology ON lesson_technology(technology_id)`,
	}
}
