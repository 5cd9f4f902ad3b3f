// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/techstack/internal/models"
)

const lessonSelect = `
	SELECT l.id, l.lesson_id, l.title, COALESCE(l.description, ''), COALESCE(m.title, ''),
		COALESCE(c.title, ''), COALESCE(lv.name, ''), COALESCE(r.title, ''), COALESCE(l.content, ''),
		COALESCE(l.video_url, ''), l.sort_order, l.estimated_duration
	FROM lesson l
	LEFT JOIN module m ON m.id = l.module_id
	LEFT JOIN course c ON c.id = m.course_id
	LEFT JOIN level lv ON lv.id = l.level_id
	LEFT JOIN resource r ON r.id = l.resource_id`

// lessonLinkTables maps each lesson link table to its target column.
var lessonLinkTables = map[string]string{
	"lesson_topic":       "topic_id",
	"lesson_category":    "category_id",
	"lesson_subcategory": "subcategory_id",
	"lesson_technology":  "technology_id",
}

func (db *DB) queryLessons(ctx context.Context, query string, args ...any) ([]models.LessonRead, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer closeQuietly(rows)

	lessons := []models.LessonRead{}
	for rows.Next() {
		var l models.LessonRead
		if err := rows.Scan(&l.ID, &l.LessonID, &l.Title, &l.Description, &l.Module, &l.Course,
			&l.Level, &l.Resource, &l.Content, &l.VideoURL, &l.Order, &l.EstimatedDuration); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// ListLessons returns a page of lessons, newest first.
func (db *DB) ListLessons(ctx context.Context, limit, offset int) ([]models.LessonRead, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	lessons, err := db.queryLessons(ctx, lessonSelect+` ORDER BY l.id DESC LIMIT $1 OFFSET $2`, limit, offset)
	observe("list_lessons", start, err)
	return lessons, err
}

// CountLessons returns the number of lessons.
func (db *DB) CountLessons(ctx context.Context) (int64, error) {
	return db.count(ctx, "lesson")
}

// GetLesson returns a lesson with its taxonomy links.
func (db *DB) GetLesson(ctx context.Context, id int64) (*models.LessonDetails, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	lessons, err := db.queryLessons(ctx, lessonSelect+` WHERE l.id = $1`, id)
	if err != nil {
		observe("get_lesson", start, err)
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, ErrNotFound
	}
	d := &models.LessonDetails{LessonRead: lessons[0]}

	var resourceID sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, `
		SELECT l.resource_id, COALESCE(r.url, '')
		FROM lesson l LEFT JOIN resource r ON r.id = l.resource_id
		WHERE l.id = $1`, id).Scan(&resourceID, &d.ResourceURL); err != nil {
		return nil, fmt.Errorf("lesson resource: %w", err)
	}
	if resourceID.Valid {
		d.ResourceID = &resourceID.Int64
	}

	if d.Categories, err = db.lessonNamed(ctx, "lesson_category", "category", "category_id", id); err != nil {
		return nil, err
	}
	if d.Subcategories, err = db.lessonNamed(ctx, "lesson_subcategory", "subcategory", "subcategory_id", id); err != nil {
		return nil, err
	}
	if d.Topics, err = db.lessonNamed(ctx, "lesson_topic", "topic", "topic_id", id); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, COALESCE(s.name, ''), COALESCE(c.name, '')
		FROM lesson_technology lt
		JOIN technology t ON t.id = lt.technology_id
		LEFT JOIN technology_subcategory ts ON ts.technology_id = t.id
		LEFT JOIN subcategory s ON s.id = ts.subcategory_id
		LEFT JOIN category c ON c.id = s.category_id
		WHERE lt.lesson_id = $1
		ORDER BY t.name, s.name`, id)
	if err != nil {
		return nil, fmt.Errorf("lesson technologies: %w", err)
	}
	if d.Technologies, err = scanTechnologyReads(rows); err != nil {
		return nil, err
	}
	observe("get_lesson", start, nil)
	return d, nil
}

func (db *DB) lessonNamed(ctx context.Context, linkTable, table, col string, lessonID int64) ([]models.NamedItem, error) {
	//nolint:gosec // table and column names are package constants
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT x.id, x.name FROM %[1]s lt
		JOIN %[2]s x ON x.id = lt.%[3]s
		WHERE lt.lesson_id = $1
		ORDER BY x.name`, linkTable, table, col), lessonID)
	if err != nil {
		return nil, fmt.Errorf("lesson %s: %w", table, err)
	}
	return scanNamedItems(rows)
}

// CreateLesson inserts a lesson with a generated external id and links it
// to the given topics, categories, subcategories and technologies.
func (db *DB) CreateLesson(ctx context.Context, in models.LessonCreate) (*models.LessonDetails, error) {
	var id int64
	err := db.inTx(ctx, "create_lesson", func(q querier) error {
		if err := validateLessonRefs(ctx, q, in); err != nil {
			return err
		}
		lvl, err := levelID(ctx, q, in.Level)
		if err != nil {
			return err
		}
		if err := q.QueryRowContext(ctx, `
			INSERT INTO lesson (lesson_id, title, description, module_id, level_id, resource_id, content,
				video_url, sort_order, estimated_duration, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
			uuid.NewString(), in.Title, in.Description, nullableID(in.ModuleID), lvl, nullableID(in.ResourceID),
			in.Content, nullString(in.VideoURL), in.Order, in.EstimatedDuration, time.Now().UTC()).Scan(&id); err != nil {
			return fmt.Errorf("insert lesson: %w", err)
		}
		return writeLessonLinks(ctx, q, id, in)
	})
	if err != nil {
		return nil, err
	}
	return db.GetLesson(ctx, id)
}

// UpdateLesson replaces every field and link of a lesson. The external
// lesson_id is preserved.
func (db *DB) UpdateLesson(ctx context.Context, id int64, in models.LessonCreate) (*models.LessonDetails, error) {
	err := db.inTx(ctx, "update_lesson", func(q querier) error {
		ok, err := exists(ctx, q, "lesson", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if err := validateLessonRefs(ctx, q, in); err != nil {
			return err
		}
		lvl, err := levelID(ctx, q, in.Level)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE lesson SET title = $1, description = $2, module_id = $3, level_id = $4, resource_id = $5,
				content = $6, video_url = $7, sort_order = $8, estimated_duration = $9
			WHERE id = $10`,
			in.Title, in.Description, nullableID(in.ModuleID), lvl, nullableID(in.ResourceID),
			in.Content, nullString(in.VideoURL), in.Order, in.EstimatedDuration, id); err != nil {
			return fmt.Errorf("update lesson: %w", err)
		}
		return writeLessonLinks(ctx, q, id, in)
	})
	if err != nil {
		return nil, err
	}
	return db.GetLesson(ctx, id)
}

func validateLessonRefs(ctx context.Context, q querier, in models.LessonCreate) error {
	if err := requireOptionalID(ctx, q, "module", in.ModuleID); err != nil {
		return err
	}
	if err := requireOptionalID(ctx, q, "resource", in.ResourceID); err != nil {
		return err
	}
	if err := requireIDs(ctx, q, "category", in.CategoryIDs); err != nil {
		return err
	}
	if err := requireIDs(ctx, q, "subcategory", in.SubcategoryIDs); err != nil {
		return err
	}
	return requireIDs(ctx, q, "technology", in.TechnologyIDs)
}

func writeLessonLinks(ctx context.Context, q querier, lessonID int64, in models.LessonCreate) error {
	topicIDs := make([]int64, 0, len(in.Topics))
	for _, name := range in.Topics {
		tid, err := getOrCreateNamed(ctx, q, "topic", name)
		if err != nil {
			return err
		}
		topicIDs = append(topicIDs, tid)
	}

	links := []struct {
		table string
		ids   []int64
	}{
		{"lesson_topic", topicIDs},
		{"lesson_category", in.CategoryIDs},
		{"lesson_subcategory", in.SubcategoryIDs},
		{"lesson_technology", in.TechnologyIDs},
	}
	for _, l := range links {
		if err := syncLinks(ctx, q, l.table, "lesson_id", lessonLinkTables[l.table], lessonID, l.ids); err != nil {
			return err
		}
	}
	return nil
}

// DeleteLesson removes a lesson and its links. Tasks generated from the
// lesson are kept and detached.
func (db *DB) DeleteLesson(ctx context.Context, id int64) error {
	return db.inTx(ctx, "delete_lesson", func(q querier) error {
		ok, err := exists(ctx, q, "lesson", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		for table := range lessonLinkTables {
			//nolint:gosec // table names are package constants
			if _, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE lesson_id = $1`, table), id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		if _, err := q.ExecContext(ctx, `UPDATE task SET lesson_id = NULL WHERE lesson_id = $1`, id); err != nil {
			return fmt.Errorf("detach tasks: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM lesson WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete lesson: %w", err)
		}
		return nil
	})
}

// lessonByResource returns the most recent lesson built from a resource.
func lessonByResource(ctx context.Context, q querier, resourceID int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM lesson WHERE resource_id = $1 ORDER BY id DESC LIMIT 1`, resourceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find lesson by resource: %w", err)
	}
	return id, nil
}
