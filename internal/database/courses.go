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

	"github.com/tomtom215/techstack/internal/models"
)

// ListCourses returns a page of courses with level and resource names.
func (db *DB) ListCourses(ctx context.Context, limit, offset int) ([]models.CourseRead, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.title, COALESCE(c.description, ''), COALESCE(l.name, ''), COALESCE(r.title, '')
		FROM course c
		LEFT JOIN level l ON l.id = c.level_id
		LEFT JOIN resource r ON r.id = c.resource_id
		ORDER BY c.id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		observe("list_courses", start, err)
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer closeQuietly(rows)

	courses := []models.CourseRead{}
	for rows.Next() {
		var c models.CourseRead
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Level, &c.Resource); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	observe("list_courses", start, rows.Err())
	return courses, rows.Err()
}

// CountCourses returns the number of courses.
func (db *DB) CountCourses(ctx context.Context) (int64, error) {
	return db.count(ctx, "course")
}

// GetCourseDetails returns a course with its resource, categories, modules
// and lessons.
func (db *DB) GetCourseDetails(ctx context.Context, id int64) (*models.CourseDetails, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var (
		d          models.CourseDetails
		resourceID sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT c.id, c.title, COALESCE(c.description, ''), COALESCE(l.name, ''), c.resource_id
		FROM course c
		LEFT JOIN level l ON l.id = c.level_id
		WHERE c.id = $1`, id).Scan(&d.ID, &d.Title, &d.Description, &d.Level, &resourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		observe("course_details", start, err)
		return nil, fmt.Errorf("get course %d: %w", id, err)
	}

	if resourceID.Valid {
		r, err := getResource(ctx, db.conn, resourceID.Int64)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		d.Resource = r
	}

	if d.Categories, err = db.courseCategories(ctx, id); err != nil {
		return nil, err
	}
	if d.Modules, err = db.ListModules(ctx, id); err != nil {
		return nil, err
	}
	if d.Lessons, err = db.queryLessons(ctx, lessonSelect+` WHERE m.course_id = $1 ORDER BY m.sort_order, l.sort_order, l.id`, id); err != nil {
		return nil, err
	}
	observe("course_details", start, nil)
	return &d, nil
}

func (db *DB) courseCategories(ctx context.Context, courseID int64) ([]models.NamedItem, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.name FROM course_category cc
		JOIN category c ON c.id = cc.category_id
		WHERE cc.course_id = $1
		ORDER BY c.name`, courseID)
	if err != nil {
		return nil, fmt.Errorf("course categories: %w", err)
	}
	return scanNamedItems(rows)
}

// CreateCourse inserts a course and links its categories.
func (db *DB) CreateCourse(ctx context.Context, in models.CourseCreate) (*models.CourseDetails, error) {
	var id int64
	err := db.inTx(ctx, "create_course", func(q querier) error {
		if err := requireOptionalID(ctx, q, "resource", in.ResourceID); err != nil {
			return err
		}
		if err := requireIDs(ctx, q, "category", in.CategoryIDs); err != nil {
			return err
		}
		levelID, err := optionalLevelID(ctx, q, in.Level)
		if err != nil {
			return err
		}
		if err := q.QueryRowContext(ctx, `
			INSERT INTO course (title, description, level_id, resource_id, created_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			in.Title, in.Description, nullableID(levelID), nullableID(in.ResourceID), time.Now().UTC()).Scan(&id); err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		return addLinks(ctx, q, "course_category", "course_id", "category_id", id, in.CategoryIDs, nil)
	})
	if err != nil {
		return nil, err
	}
	return db.GetCourseDetails(ctx, id)
}

// SetCourseCategories replaces the categories of a course.
func (db *DB) SetCourseCategories(ctx context.Context, courseID int64, categoryIDs []int64) ([]models.NamedItem, error) {
	err := db.inTx(ctx, "set_course_categories", func(q querier) error {
		ok, err := exists(ctx, q, "course", courseID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if err := requireIDs(ctx, q, "category", categoryIDs); err != nil {
			return err
		}
		return syncLinks(ctx, q, "course_category", "course_id", "category_id", courseID, categoryIDs)
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return db.courseCategories(ctx, courseID)
}

// ListModules returns the modules of a course in display order.
func (db *DB) ListModules(ctx context.Context, courseID int64) ([]models.Module, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, course_id, sort_order FROM module WHERE course_id = $1 ORDER BY sort_order, id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer closeQuietly(rows)

	modules := []models.Module{}
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.Title, &m.CourseID, &m.Order); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// CreateModule adds a module to a course. A missing course yields ErrNotFound.
func (db *DB) CreateModule(ctx context.Context, courseID int64, in models.ModuleCreate) (*models.Module, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	ok, err := exists(ctx, db.conn, "course", courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	m := models.Module{Title: in.Title, CourseID: courseID, Order: in.Order}
	start := time.Now()
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO module (title, course_id, sort_order) VALUES ($1, $2, $3) RETURNING id`,
		in.Title, courseID, in.Order).Scan(&m.ID)
	observe("create_module", start, err)
	if err != nil {
		return nil, fmt.Errorf("insert module: %w", err)
	}
	return &m, nil
}
