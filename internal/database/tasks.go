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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/techstack/internal/models"
)

const taskSelect = `
	SELECT t.id, t.task_id, t.done, t.task, COALESCE(t.description, ''),
		COALESCE(te.name, ''), COALESCE(sc.name, ''), COALESCE(ca.name, ''), COALESCE(se.name, ''),
		t.estimated_duration, COALESCE(lv.name, ''), COALESCE(ty.name, ''), COALESCE(pr.name, ''),
		t.sort_order, COALESCE(st.name, ''), t.progress, COALESCE(so.name, ''),
		t.due_date, t.start_date, t.end_date, t.actual_duration, t.lesson_id,
		COALESCE(le.title, ''), COALESCE(r.url, ''), t.created_at, t.completed_at
	FROM task t
	LEFT JOIN technology te ON te.id = t.technology_id
	LEFT JOIN subcategory sc ON sc.id = t.subcategory_id
	LEFT JOIN category ca ON ca.id = t.category_id
	LEFT JOIN section se ON se.id = t.section_id
	LEFT JOIN level lv ON lv.id = t.level_id
	LEFT JOIN task_type ty ON ty.id = t.type_id
	LEFT JOIN task_priority pr ON pr.id = t.priority_id
	LEFT JOIN task_status st ON st.id = t.status_id
	LEFT JOIN source so ON so.id = t.source_id
	LEFT JOIN lesson le ON le.id = t.lesson_id
	LEFT JOIN resource r ON r.id = le.resource_id`

// taskWhere builds the WHERE clause for a filter. Arguments are numbered
// from $1.
func taskWhere(f models.TaskFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("lower(st.name) = lower($%d)", f.Status)
	}
	if f.CategoryID > 0 {
		add("t.category_id = $%d", f.CategoryID)
	}
	if f.LessonID > 0 {
		add("t.lesson_id = $%d", f.LessonID)
	}
	if f.Done != nil {
		add("t.done = $%d", *f.Done)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTask(rows *sql.Rows) (models.TaskDetailed, error) {
	var (
		t               models.TaskDetailed
		due, start, end sql.NullTime
		actual          sql.NullInt64
		lessonID        sql.NullInt64
		completedAt     sql.NullTime
	)
	err := rows.Scan(&t.ID, &t.TaskID, &t.Done, &t.Task, &t.Description,
		&t.Technology, &t.Subcategory, &t.Category, &t.Section,
		&t.EstimatedDuration, &t.Level, &t.Type, &t.Priority,
		&t.Order, &t.Status, &t.Progress, &t.Source,
		&due, &start, &end, &actual, &lessonID,
		&t.Lesson, &t.ResourceURL, &t.CreatedAt, &completedAt)
	if err != nil {
		return t, err
	}
	if due.Valid {
		t.DueDate = models.DatePtr(due.Time)
	}
	if start.Valid {
		t.StartDate = models.DatePtr(start.Time)
	}
	if end.Valid {
		t.EndDate = models.DatePtr(end.Time)
	}
	if actual.Valid {
		v := int(actual.Int64)
		t.ActualDuration = &v
	}
	if lessonID.Valid {
		t.LessonID = &lessonID.Int64
	}
	if completedAt.Valid {
		c := completedAt.Time.UTC()
		t.CompletedAt = &c
	}
	t.Topics = []string{}
	return t, nil
}

// queryTasks runs a taskSelect query and attaches topic names.
func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]models.TaskDetailed, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := []models.TaskDetailed{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			closeQuietly(rows)
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	closeQuietly(rows)
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	ids := make([]any, len(tasks))
	index := make(map[int64]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		index[t.ID] = i
	}
	//nolint:gosec // only placeholders are interpolated
	topicRows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT tt.task_id, tp.name FROM task_topic tt
		JOIN topic tp ON tp.id = tt.topic_id
		WHERE tt.task_id IN (%s)
		ORDER BY tp.name`, placeholders(1, len(ids))), ids...)
	if err != nil {
		return nil, fmt.Errorf("task topics: %w", err)
	}
	defer closeQuietly(topicRows)
	for topicRows.Next() {
		var (
			taskID int64
			name   string
		)
		if err := topicRows.Scan(&taskID, &name); err != nil {
			return nil, fmt.Errorf("scan task topic: %w", err)
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Topics = append(tasks[i].Topics, name)
		}
	}
	return tasks, topicRows.Err()
}

// ListTasks returns tasks matching the filter ordered by sort order.
func (db *DB) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.TaskView, error) {
	detailed, err := db.ListTasksDetailed(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]models.TaskView, len(detailed))
	for i := range detailed {
		views[i] = detailed[i].TaskView
	}
	return views, nil
}

// ListTasksDetailed is ListTasks with lesson, resource and timestamps.
func (db *DB) ListTasksDetailed(ctx context.Context, f models.TaskFilter) ([]models.TaskDetailed, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	where, args := taskWhere(f)
	query := taskSelect + where + ` ORDER BY t.sort_order, t.id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	start := time.Now()
	tasks, err := db.queryTasks(ctx, query, args...)
	observe("list_tasks", start, err)
	return tasks, err
}

// CountTasks returns the number of tasks matching the filter.
func (db *DB) CountTasks(ctx context.Context, f models.TaskFilter) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	where, args := taskWhere(f)
	var n int64
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task t LEFT JOIN task_status st ON st.id = t.status_id`+where, args...).Scan(&n)
	observe("count_tasks", start, err)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// GetTask returns one task with every name resolved.
func (db *DB) GetTask(ctx context.Context, id int64) (*models.TaskDetailed, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	tasks, err := db.queryTasks(ctx, taskSelect+` WHERE t.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return &tasks[0], nil
}

// CreateTask inserts a task. Status defaults to not_started and priority to
// medium; a task created as done is completed immediately.
func (db *DB) CreateTask(ctx context.Context, in models.TaskCreate) (*models.TaskDetailed, error) {
	var id int64
	err := db.inTx(ctx, "create_task", func(q querier) error {
		refs := []struct {
			table string
			id    *int64
		}{
			{"technology", in.TechnologyID}, {"subcategory", in.SubcategoryID}, {"category", in.CategoryID},
			{"section", in.SectionID}, {"source", in.SourceID}, {"lesson", in.LessonID}, {"level", in.LevelID},
			{"task_type", in.TypeID}, {"task_status", in.StatusID}, {"task_priority", in.PriorityID},
		}
		for _, ref := range refs {
			if err := requireOptionalID(ctx, q, ref.table, ref.id); err != nil {
				return err
			}
		}
		if err := requireIDs(ctx, q, "topic", in.TopicIDs); err != nil {
			return err
		}

		statusID, err := idOrDefault(ctx, q, "task_status", in.StatusID, models.TaskStatusNotStarted)
		if err != nil {
			return err
		}
		priorityID, err := idOrDefault(ctx, q, "task_priority", in.PriorityID, models.TaskPriorityMedium)
		if err != nil {
			return err
		}

		progress := in.Progress
		var completedAt any
		if in.Done {
			if statusID, err = getOrCreateNamed(ctx, q, "task_status", models.TaskStatusCompleted); err != nil {
				return err
			}
			progress = 100
			completedAt = time.Now().UTC()
		}

		order, err := orderOrNext(ctx, q, in.Order)
		if err != nil {
			return err
		}
		estimated := 0
		if in.EstimatedDuration != nil {
			estimated = *in.EstimatedDuration
		}
		var actual any
		if in.ActualDuration != nil {
			actual = *in.ActualDuration
		}

		if err := q.QueryRowContext(ctx, `
			INSERT INTO task (task_id, task, description, technology_id, subcategory_id, category_id, section_id,
				source_id, lesson_id, level_id, type_id, status_id, priority_id, progress, sort_order,
				due_date, start_date, end_date, estimated_duration, actual_duration, done, completed_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
			RETURNING id`,
			uuid.NewString(), in.Task, in.Description, nullableID(in.TechnologyID), nullableID(in.SubcategoryID),
			nullableID(in.CategoryID), nullableID(in.SectionID), nullableID(in.SourceID), nullableID(in.LessonID),
			nullableID(in.LevelID), nullableID(in.TypeID), statusID, priorityID, progress, order,
			dateArg(in.DueDate), dateArg(in.StartDate), dateArg(in.EndDate), estimated, actual,
			in.Done, completedAt, time.Now().UTC()).Scan(&id); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return addLinks(ctx, q, "task_topic", "task_id", "topic_id", id, in.TopicIDs, nil)
	})
	if err != nil {
		return nil, err
	}
	return db.GetTask(ctx, id)
}

func idOrDefault(ctx context.Context, q querier, table string, id *int64, fallback string) (int64, error) {
	if id != nil {
		return *id, nil
	}
	return getOrCreateNamed(ctx, q, table, fallback)
}

// orderOrNext places a task without an explicit order after every other task.
func orderOrNext(ctx context.Context, q querier, order *int) (int, error) {
	if order != nil {
		return *order, nil
	}
	var next int
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM task`).Scan(&next); err != nil {
		return 0, fmt.Errorf("next task order: %w", err)
	}
	return next, nil
}

// UpdateTask applies the non-nil fields of in.
//
// Marking a task done (or setting status completed) sets status completed,
// progress 100 and completed_at. Un-marking clears completed_at and moves a
// completed status back to in_progress or not_started.
func (db *DB) UpdateTask(ctx context.Context, id int64, in models.TaskUpdate) (*models.TaskDetailed, error) {
	if in.Done != nil && in.Status != nil && *in.Done != strings.EqualFold(*in.Status, models.TaskStatusCompleted) {
		return nil, fmt.Errorf("%w: done=%t conflicts with status %q", ErrInvalid, *in.Done, *in.Status)
	}
	err := db.inTx(ctx, "update_task", func(q querier) error {
		var (
			curDone     bool
			curProgress int
		)
		err := q.QueryRowContext(ctx, `SELECT done, progress FROM task WHERE id = $1`, id).Scan(&curDone, &curProgress)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load task: %w", err)
		}

		var (
			sets []string
			args []any
		)
		set := func(col string, v any) {
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}

		if in.Task != nil {
			set("task", *in.Task)
		}
		if in.Description != nil {
			set("description", *in.Description)
		}
		if in.Priority != nil {
			pid, err := findNamedID(ctx, q, "task_priority", *in.Priority)
			if err != nil {
				return fmt.Errorf("%w: unknown priority %q", ErrInvalid, *in.Priority)
			}
			set("priority_id", pid)
		}
		if in.Order != nil {
			set("sort_order", *in.Order)
		}
		if in.DueDate != nil {
			set("due_date", dateArg(in.DueDate))
		}
		if in.StartDate != nil {
			set("start_date", dateArg(in.StartDate))
		}
		if in.EndDate != nil {
			set("end_date", dateArg(in.EndDate))
		}
		if in.EstimatedDuration != nil {
			set("estimated_duration", *in.EstimatedDuration)
		}
		if in.ActualDuration != nil {
			set("actual_duration", *in.ActualDuration)
		}

		progress := curProgress
		if in.Progress != nil {
			progress = *in.Progress
		}

		done := curDone
		switch {
		case in.Done != nil:
			done = *in.Done
		case in.Status != nil:
			done = strings.EqualFold(*in.Status, models.TaskStatusCompleted)
		}

		status := ""
		if in.Status != nil {
			status = strings.ToLower(*in.Status)
		}
		switch {
		case done:
			status = models.TaskStatusCompleted
			progress = 100
			if !curDone {
				set("completed_at", time.Now().UTC())
			}
		case curDone:
			set("completed_at", nil)
			if in.Progress == nil && progress == 100 {
				progress = 0
			}
			if status == "" || status == models.TaskStatusCompleted {
				status = models.TaskStatusNotStarted
				if progress > 0 && progress < 100 {
					status = models.TaskStatusInProgress
				}
			}
		}
		if status != "" {
			sid, err := findNamedID(ctx, q, "task_status", status)
			if err != nil {
				return fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
			}
			set("status_id", sid)
		}
		if done != curDone {
			set("done", done)
		}
		if progress != curProgress {
			set("progress", progress)
		}

		if len(sets) > 0 {
			args = append(args, id)
			//nolint:gosec // column names are literals above
			query := fmt.Sprintf(`UPDATE task SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
			if _, err := q.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update task: %w", err)
			}
		}

		if in.TopicIDs != nil {
			if err := requireIDs(ctx, q, "topic", in.TopicIDs); err != nil {
				return err
			}
			return syncLinks(ctx, q, "task_topic", "task_id", "topic_id", id, in.TopicIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetTask(ctx, id)
}

// DeleteTask removes a task and its topic links.
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	return db.inTx(ctx, "delete_task", func(q querier) error {
		ok, err := exists(ctx, q, "task", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM task_topic WHERE task_id = $1`, id); err != nil {
			return fmt.Errorf("delete task topics: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM task WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

// CompletedByDay returns one entry per day for the last days days, oldest
// first, including days with no completions.
func (db *DB) CompletedByDay(ctx context.Context, days int, now time.Time) ([]models.DailyCount, error) {
	if days <= 0 {
		days = 7
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	first := models.NewDate(now).AddDate(0, 0, -(days - 1))

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT CAST(completed_at AS DATE) AS day, COUNT(*)
		FROM task
		WHERE done AND completed_at >= $1
		GROUP BY CAST(completed_at AS DATE)`, first)
	if err != nil {
		observe("completed_by_day", start, err)
		return nil, fmt.Errorf("completed by day: %w", err)
	}
	defer closeQuietly(rows)

	counts := map[string]int64{}
	for rows.Next() {
		var (
			day time.Time
			n   int64
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("scan completed day: %w", err)
		}
		counts[day.Format(models.DateLayout)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	observe("completed_by_day", start, nil)

	out := make([]models.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		d := models.NewDate(first.AddDate(0, 0, i))
		out = append(out, models.DailyCount{Date: d, Count: counts[d.Format(models.DateLayout)]})
	}
	return out, nil
}
