// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
reconcile.go - Ingest Persistence

SaveIngest writes one enriched URL in a single transaction, in dependency
order:

	sourcetype -> source -> publication -> authors -> resourcetype -> resource
	-> lesson -> topics, categories, subcategories, technologies -> task

Every step finds the existing row before inserting, so re-ingesting a URL
updates the resource, its lesson and that lesson's task in place. Link sets
are synced to the enrichment result, which makes a re-run converge on the
same rows. A task's status and progress belong to the user and are never
overwritten on re-runs.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/techstack/internal/models"
)

// IngestRecord is a validated enrichment result ready to persist. Category
// and subcategory names must already be canonical taxonomy names.
type IngestRecord struct {
	URL         string
	Resource    models.ResourceMetadata
	PublishedAt *time.Time
	Lesson      models.LessonMetadata
	// LessonMinutes is Lesson.EstimatedDuration converted to minutes.
	LessonMinutes int
	Content       string
	VideoURL      string
	Task          models.TaskMetadata
}

// IngestIDs identifies the rows SaveIngest wrote.
type IngestIDs struct {
	ResourceID int64
	SourceID   int64
	LessonID   int64
	TaskID     int64
	Created    bool
}

// taskContext carries the classification copied onto a lesson's task.
type taskContext struct {
	levelID       int64
	categoryID    *int64
	subcategoryID *int64
	technologyID  *int64
	sourceID      *int64
	minutes       int
	topicIDs      []int64
}

// SaveIngest reconciles an enrichment result into the schema.
func (db *DB) SaveIngest(ctx context.Context, rec IngestRecord) (*IngestIDs, error) {
	var ids IngestIDs
	err := db.inTx(ctx, "save_ingest", func(q querier) error {
		ids = IngestIDs{}
		tc := taskContext{}

		// Source and publication
		res := rec.Resource
		var publicationID *int64
		if strings.TrimSpace(res.SourceName) != "" {
			sourceID, err := upsertSource(ctx, q, models.SourceCreate{
				Name:       res.SourceName,
				SourceType: res.SourceType,
				Website:    res.SourceURL,
				ImageURL:   res.SourceImageURL,
			})
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			ids.SourceID = sourceID
			tc.sourceID = &sourceID

			if strings.TrimSpace(res.PublicationName) != "" {
				pid, err := getOrCreatePublication(ctx, q, sourceID, res.PublicationName)
				if err != nil {
					return fmt.Errorf("publication: %w", err)
				}
				publicationID = &pid
			}
		}

		// Resource
		var typeID *int64
		if strings.TrimSpace(res.ResourceType) != "" {
			tid, err := getOrCreateNamed(ctx, q, "resourcetype", res.ResourceType)
			if err != nil {
				return fmt.Errorf("resource type: %w", err)
			}
			typeID = &tid
		}

		url := rec.URL
		if url == "" {
			url = res.ResourceURL
		}
		title := strings.TrimSpace(res.ResourceTitle)
		if title == "" {
			title = url
		}
		var published any
		if rec.PublishedAt != nil {
			published = rec.PublishedAt.UTC()
		}

		resourceID, err := findResourceByURL(ctx, q, url)
		switch {
		case err == nil:
			if _, err := q.ExecContext(ctx, `
				UPDATE resource SET title = $1, description = $2,
					resourcetype_id = COALESCE($3, resourcetype_id),
					source_id = COALESCE($4, source_id),
					publication_id = COALESCE($5, publication_id),
					image_url = COALESCE($6, image_url),
					published_at = COALESCE($7, published_at)
				WHERE id = $8`,
				title, res.ResourceDescription, nullableID(typeID), nullableID(tc.sourceID), nullableID(publicationID),
				nullString(res.ResourceImageURL), published, resourceID); err != nil {
				return fmt.Errorf("update resource: %w", err)
			}
		case errors.Is(err, ErrNotFound):
			ids.Created = true
			if err := q.QueryRowContext(ctx, `
				INSERT INTO resource (title, description, resourcetype_id, url, source_id, publication_id,
					image_url, published_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
				title, res.ResourceDescription, nullableID(typeID), url, nullableID(tc.sourceID),
				nullableID(publicationID), nullString(res.ResourceImageURL), published,
				time.Now().UTC()).Scan(&resourceID); err != nil {
				return fmt.Errorf("insert resource: %w", err)
			}
		default:
			return err
		}
		ids.ResourceID = resourceID

		// Authors
		if err := linkAuthors(ctx, q, "resource_author", "resource_id", resourceID, res.ResourceAuthors); err != nil {
			return fmt.Errorf("resource authors: %w", err)
		}
		if ids.SourceID > 0 {
			if err := linkAuthors(ctx, q, "source_author", "source_id", ids.SourceID, res.ResourceAuthors); err != nil {
				return fmt.Errorf("source authors: %w", err)
			}
		}

		// Lesson
		lesson := rec.Lesson
		lessonTitle := strings.TrimSpace(lesson.LessonTitle)
		if lessonTitle == "" {
			lessonTitle = title
		}
		lvl, err := levelID(ctx, q, lesson.Level)
		if err != nil {
			return err
		}
		tc.levelID = lvl
		tc.minutes = rec.LessonMinutes

		lessonID, err := lessonByResource(ctx, q, resourceID)
		switch {
		case err == nil:
			if _, err := q.ExecContext(ctx, `
				UPDATE lesson SET title = $1, description = $2, level_id = $3, estimated_duration = $4,
					content = $5, video_url = COALESCE($6, video_url)
				WHERE id = $7`,
				lessonTitle, lesson.LessonDescription, lvl, rec.LessonMinutes, rec.Content,
				nullString(rec.VideoURL), lessonID); err != nil {
				return fmt.Errorf("update lesson: %w", err)
			}
		case errors.Is(err, ErrNotFound):
			if err := q.QueryRowContext(ctx, `
				INSERT INTO lesson (lesson_id, title, description, level_id, resource_id, content, video_url,
					sort_order, estimated_duration, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9) RETURNING id`,
				uuid.NewString(), lessonTitle, lesson.LessonDescription, lvl, resourceID, rec.Content,
				nullString(rec.VideoURL), rec.LessonMinutes, time.Now().UTC()).Scan(&lessonID); err != nil {
				return fmt.Errorf("insert lesson: %w", err)
			}
		default:
			return err
		}
		ids.LessonID = lessonID

		if err := reconcileLessonLinks(ctx, q, lessonID, lesson, &tc); err != nil {
			return err
		}

		taskID, err := saveLessonTask(ctx, q, lessonID, lessonTitle, rec.Task, tc)
		if err != nil {
			return err
		}
		ids.TaskID = taskID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ids, nil
}

// reconcileLessonLinks syncs topics, categories, subcategories and
// technologies and records the first of each on tc.
func reconcileLessonLinks(ctx context.Context, q querier, lessonID int64, lesson models.LessonMetadata, tc *taskContext) error {
	topicIDs := make([]int64, 0, len(lesson.Topics))
	for _, name := range lesson.Topics {
		if strings.TrimSpace(name) == "" {
			continue
		}
		id, err := getOrCreateNamed(ctx, q, "topic", name)
		if err != nil {
			return fmt.Errorf("topic: %w", err)
		}
		topicIDs = append(topicIDs, id)
	}
	if err := syncLinks(ctx, q, "lesson_topic", "lesson_id", "topic_id", lessonID, topicIDs); err != nil {
		return err
	}
	tc.topicIDs = topicIDs

	var categoryIDs, subcategoryIDs []int64
	for _, assignment := range lesson.Categories {
		categoryID, err := findNamedID(ctx, q, "category", assignment.Category)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		categoryIDs = append(categoryIDs, categoryID)
		for _, sub := range assignment.Subcategories {
			subID, err := findSubcategoryID(ctx, q, categoryID, sub)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			subcategoryIDs = append(subcategoryIDs, subID)
		}
	}
	if err := syncLinks(ctx, q, "lesson_category", "lesson_id", "category_id", lessonID, categoryIDs); err != nil {
		return err
	}
	if err := syncLinks(ctx, q, "lesson_subcategory", "lesson_id", "subcategory_id", lessonID, subcategoryIDs); err != nil {
		return err
	}
	if len(categoryIDs) > 0 {
		tc.categoryID = &categoryIDs[0]
	}
	if len(subcategoryIDs) > 0 {
		tc.subcategoryID = &subcategoryIDs[0]
	}

	technologyIDs := make([]int64, 0, len(lesson.Technologies))
	for _, tech := range lesson.Technologies {
		if strings.TrimSpace(tech.Name) == "" {
			continue
		}
		techID, err := getOrCreateTechnology(ctx, q, tech.Name, "")
		if err != nil {
			return fmt.Errorf("technology: %w", err)
		}
		technologyIDs = append(technologyIDs, techID)

		if tech.Subcategory == "" {
			continue
		}
		subID, err := resolveSubcategory(ctx, q, tech.Subcategory, categoryIDs)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := linkTechnologySubcategory(ctx, q, techID, subID); err != nil {
			return err
		}
	}
	if err := syncLinks(ctx, q, "lesson_technology", "lesson_id", "technology_id", lessonID, technologyIDs); err != nil {
		return err
	}
	if len(technologyIDs) > 0 {
		tc.technologyID = &technologyIDs[0]
	}
	return nil
}

// resolveSubcategory finds a subcategory by name, preferring one under the
// given categories since names such as "Authentication" repeat.
func resolveSubcategory(ctx context.Context, q querier, name string, preferCategories []int64) (int64, error) {
	for _, categoryID := range preferCategories {
		id, err := findSubcategoryID(ctx, q, categoryID, name)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return id, err
		}
	}
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM subcategory WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`,
		strings.TrimSpace(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

// saveLessonTask creates the task for a lesson or refreshes the existing one.
func saveLessonTask(ctx context.Context, q querier, lessonID int64, lessonTitle string, meta models.TaskMetadata, tc taskContext) (int64, error) {
	name := strings.TrimSpace(meta.TaskName)
	if name == "" {
		name = lessonTitle
	}
	typeID, err := lookupOrDefault(ctx, q, "task_type", meta.TaskType, models.TaskTypeLearning)
	if err != nil {
		return 0, err
	}
	priorityID, err := lookupOrDefault(ctx, q, "task_priority", meta.TaskPriority, models.TaskPriorityMedium)
	if err != nil {
		return 0, err
	}

	var taskID int64
	err = q.QueryRowContext(ctx, `SELECT id FROM task WHERE lesson_id = $1 ORDER BY id LIMIT 1`, lessonID).Scan(&taskID)
	switch {
	case err == nil:
		if _, err := q.ExecContext(ctx, `
			UPDATE task SET task = $1, description = $2, type_id = $3, priority_id = $4, level_id = $5,
				category_id = $6, subcategory_id = $7, technology_id = $8, source_id = COALESCE($9, source_id),
				estimated_duration = $10
			WHERE id = $11`,
			name, meta.TaskDescription, typeID, priorityID, tc.levelID, nullableID(tc.categoryID),
			nullableID(tc.subcategoryID), nullableID(tc.technologyID), nullableID(tc.sourceID), tc.minutes,
			taskID); err != nil {
			return 0, fmt.Errorf("update task: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		statusID, err := lookupOrDefault(ctx, q, "task_status", meta.TaskStatus, models.TaskStatusNotStarted)
		if err != nil {
			return 0, err
		}
		order, err := orderOrNext(ctx, q, nil)
		if err != nil {
			return 0, err
		}
		if err := q.QueryRowContext(ctx, `
			INSERT INTO task (task_id, task, description, technology_id, subcategory_id, category_id, source_id,
				lesson_id, level_id, type_id, status_id, priority_id, progress, sort_order, estimated_duration,
				done, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14, false, $15) RETURNING id`,
			uuid.NewString(), name, meta.TaskDescription, nullableID(tc.technologyID), nullableID(tc.subcategoryID),
			nullableID(tc.categoryID), nullableID(tc.sourceID), lessonID, tc.levelID, typeID, statusID, priorityID,
			order, tc.minutes, time.Now().UTC()).Scan(&taskID); err != nil {
			return 0, fmt.Errorf("insert task: %w", err)
		}
	default:
		return 0, fmt.Errorf("find lesson task: %w", err)
	}

	if err := syncLinks(ctx, q, "task_topic", "task_id", "topic_id", taskID, tc.topicIDs); err != nil {
		return 0, err
	}
	return taskID, nil
}

// lookupOrDefault resolves name in table, using fallback for empty or
// unknown names.
func lookupOrDefault(ctx context.Context, q querier, table, name, fallback string) (int64, error) {
	if strings.TrimSpace(name) != "" {
		id, err := findNamedID(ctx, q, table, name)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
	}
	return getOrCreateNamed(ctx, q, table, fallback)
}

// LessonSource is what task generation needs to know about a lesson.
type LessonSource struct {
	LessonID      int64
	Title         string
	Description   string
	ResourceTitle string
	ResourceType  string
}

// GetLessonSource returns a lesson with its resource title and type.
func (db *DB) GetLessonSource(ctx context.Context, lessonID int64) (*LessonSource, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	ls := &LessonSource{LessonID: lessonID}
	err := db.conn.QueryRowContext(ctx, `
		SELECT l.title, COALESCE(l.description, ''), COALESCE(r.title, ''), COALESCE(rt.name, '')
		FROM lesson l
		LEFT JOIN resource r ON r.id = l.resource_id
		LEFT JOIN resourcetype rt ON rt.id = r.resourcetype_id
		WHERE l.id = $1`, lessonID).Scan(&ls.Title, &ls.Description, &ls.ResourceTitle, &ls.ResourceType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load lesson %d: %w", lessonID, err)
	}
	return ls, nil
}

// SaveLessonTask creates or refreshes the task of an existing lesson using
// the lesson's own classification.
func (db *DB) SaveLessonTask(ctx context.Context, lessonID int64, meta models.TaskMetadata) (*models.TaskDetailed, error) {
	var taskID int64
	err := db.inTx(ctx, "save_lesson_task", func(q querier) error {
		var (
			title    string
			lvl      sql.NullInt64
			minutes  int
			sourceID sql.NullInt64
		)
		err := q.QueryRowContext(ctx, `
			SELECT l.title, l.level_id, l.estimated_duration, r.source_id
			FROM lesson l LEFT JOIN resource r ON r.id = l.resource_id
			WHERE l.id = $1`, lessonID).Scan(&title, &lvl, &minutes, &sourceID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load lesson: %w", err)
		}

		tc := taskContext{minutes: minutes}
		if lvl.Valid {
			tc.levelID = lvl.Int64
		} else if tc.levelID, err = levelID(ctx, q, models.LevelUnknown); err != nil {
			return err
		}
		if sourceID.Valid {
			tc.sourceID = &sourceID.Int64
		}
		if tc.categoryID, err = firstLink(ctx, q, "lesson_category", "category_id", lessonID); err != nil {
			return err
		}
		if tc.subcategoryID, err = firstLink(ctx, q, "lesson_subcategory", "subcategory_id", lessonID); err != nil {
			return err
		}
		if tc.technologyID, err = firstLink(ctx, q, "lesson_technology", "technology_id", lessonID); err != nil {
			return err
		}
		if tc.topicIDs, err = allLinks(ctx, q, "lesson_topic", "topic_id", lessonID); err != nil {
			return err
		}

		taskID, err = saveLessonTask(ctx, q, lessonID, title, meta, tc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return db.GetTask(ctx, taskID)
}

func firstLink(ctx context.Context, q querier, table, col string, lessonID int64) (*int64, error) {
	ids, err := allLinks(ctx, q, table, col, lessonID)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return &ids[0], nil
}

func allLinks(ctx context.Context, q querier, table, col string, lessonID int64) ([]int64, error) {
	//nolint:gosec // table and column names are package constants
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE lesson_id = $1 ORDER BY %s`, col, table, col), lessonID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer closeQuietly(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
