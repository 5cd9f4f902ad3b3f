// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/techstack/internal/models"
)

// GetStudyTime returns the study-time settings tab.
func (db *DB) GetStudyTime(ctx context.Context) (*models.StudyTime, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	st := &models.StudyTime{DaysToStudy: []string{}}
	if err := db.conn.QueryRowContext(ctx,
		`SELECT daily_goal, weekly_goal FROM learning_goals WHERE id = 1`).Scan(&st.DailyGoal, &st.WeeklyGoal); err != nil {
		return nil, fmt.Errorf("load learning goals: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT day FROM study_days WHERE selected ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load study days: %w", err)
	}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			closeQuietly(rows)
			return nil, err
		}
		st.DaysToStudy = append(st.DaysToStudy, day)
	}
	closeQuietly(rows)
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hours, err := db.conn.QueryContext(ctx, `SELECT label, time_range FROM study_hours ORDER BY id LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("load study hours: %w", err)
	}
	defer closeQuietly(hours)
	if hours.Next() {
		var label, timeRange string
		if err := hours.Scan(&label, &timeRange); err != nil {
			return nil, err
		}
		preferred := FormatPreferredHours(label, timeRange)
		st.PreferredHours = &preferred
	}
	return st, hours.Err()
}

// PutStudyTime replaces the study-time settings tab.
func (db *DB) PutStudyTime(ctx context.Context, in models.StudyTime) (*models.StudyTime, error) {
	err := db.inTx(ctx, "put_study_time", func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`UPDATE learning_goals SET daily_goal = $1, weekly_goal = $2 WHERE id = 1`,
			in.DailyGoal, in.WeeklyGoal); err != nil {
			return fmt.Errorf("update learning goals: %w", err)
		}

		selected := map[string]bool{}
		for _, d := range in.DaysToStudy {
			selected[strings.ToLower(d)] = true
		}
		for _, day := range models.WeekDays {
			if _, err := q.ExecContext(ctx,
				`UPDATE study_days SET selected = $1 WHERE day = $2`, selected[strings.ToLower(day)], day); err != nil {
				return fmt.Errorf("update study day: %w", err)
			}
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM study_hours`); err != nil {
			return fmt.Errorf("clear study hours: %w", err)
		}
		if in.PreferredHours != nil && strings.TrimSpace(*in.PreferredHours) != "" {
			label, timeRange := ParsePreferredHours(*in.PreferredHours)
			if _, err := q.ExecContext(ctx,
				`INSERT INTO study_hours (label, time_range) VALUES ($1, $2)`, label, timeRange); err != nil {
				return fmt.Errorf("insert study hours: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetStudyTime(ctx)
}

// ParsePreferredHours splits "Evenings, 7-9pm" into its label and range.
// Without a comma the whole value is the label.
func ParsePreferredHours(s string) (label, timeRange string) {
	label, timeRange, _ = strings.Cut(s, ",")
	return strings.TrimSpace(label), strings.TrimSpace(timeRange)
}

// FormatPreferredHours is the inverse of ParsePreferredHours.
func FormatPreferredHours(label, timeRange string) string {
	if timeRange == "" {
		return label
	}
	return label + ", " + timeRange
}

// GetTaskQuotas returns the task-quotas settings tab.
func (db *DB) GetTaskQuotas(ctx context.Context) (*models.TaskQuotas, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	tq := &models.TaskQuotas{TaskTypeValues: map[string]int{}}
	if err := db.conn.QueryRowContext(ctx,
		`SELECT tasks_per_day, tasks_per_week FROM learning_goals WHERE id = 1`).Scan(&tq.TasksPerDay, &tq.TasksPerWeek); err != nil {
		return nil, fmt.Errorf("load learning goals: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT tt.name, w.weight FROM task_type_weights w
		JOIN task_type tt ON tt.id = w.task_type_id
		ORDER BY tt.id`)
	if err != nil {
		return nil, fmt.Errorf("load task type weights: %w", err)
	}
	defer closeQuietly(rows)
	for rows.Next() {
		var (
			name   string
			weight int
		)
		if err := rows.Scan(&name, &weight); err != nil {
			return nil, err
		}
		tq.TaskTypeValues[name] = weight
	}
	return tq, rows.Err()
}

// PutTaskQuotas updates the quotas and the weights of existing task types.
// Unknown task type names are ignored.
func (db *DB) PutTaskQuotas(ctx context.Context, in models.TaskQuotas) (*models.TaskQuotas, error) {
	err := db.inTx(ctx, "put_task_quotas", func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`UPDATE learning_goals SET tasks_per_day = $1, tasks_per_week = $2 WHERE id = 1`,
			in.TasksPerDay, in.TasksPerWeek); err != nil {
			return fmt.Errorf("update learning goals: %w", err)
		}
		for name, weight := range in.TaskTypeValues {
			typeID, err := findNamedID(ctx, q, "task_type", name)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if _, err := q.ExecContext(ctx,
				`UPDATE task_type_weights SET weight = $1 WHERE task_type_id = $2`, weight, typeID); err != nil {
				return fmt.Errorf("update task type weight: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetTaskQuotas(ctx)
}

// GetQuizGoals returns the quiz-goals settings tab.
func (db *DB) GetQuizGoals(ctx context.Context) (*models.QuizGoals, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var qg models.QuizGoals
	if err := db.conn.QueryRowContext(ctx, `
		SELECT daily_quiz_goal, quizzes_per_week, minimum_passing_score, review_missed_topics_weekly
		FROM learning_goals WHERE id = 1`).Scan(
		&qg.DailyQuizGoal, &qg.QuizzesPerWeek, &qg.MinimumPassingScore, &qg.ReviewMissedTopicsWeekly); err != nil {
		return nil, fmt.Errorf("load quiz goals: %w", err)
	}
	return &qg, nil
}

// PutQuizGoals replaces the quiz-goals settings tab.
func (db *DB) PutQuizGoals(ctx context.Context, in models.QuizGoals) (*models.QuizGoals, error) {
	err := db.inTx(ctx, "put_quiz_goals", func(q querier) error {
		_, err := q.ExecContext(ctx, `
			UPDATE learning_goals SET daily_quiz_goal = $1, quizzes_per_week = $2,
				minimum_passing_score = $3, review_missed_topics_weekly = $4
			WHERE id = 1`,
			in.DailyQuizGoal, in.QuizzesPerWeek, in.MinimumPassingScore, in.ReviewMissedTopicsWeekly)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update quiz goals: %w", err)
	}
	return db.GetQuizGoals(ctx)
}

// GetDifficultyTarget returns the difficulty-targets settings tab.
func (db *DB) GetDifficultyTarget(ctx context.Context) (*models.DifficultyTarget, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var (
		rangeCSV string
		mins     [4]int
		dt       = &models.DifficultyTarget{DifficultyRange: []string{}, MinTasksPerLevel: map[string]int{}}
	)
	if err := db.conn.QueryRowContext(ctx, `
		SELECT difficulty_range, bias, min_beginner, min_intermediate, min_advanced, min_expert
		FROM difficulty_preferences WHERE id = 1`).Scan(
		&rangeCSV, &dt.DifficultyBias, &mins[0], &mins[1], &mins[2], &mins[3]); err != nil {
		return nil, fmt.Errorf("load difficulty preferences: %w", err)
	}
	for _, level := range strings.Split(rangeCSV, ",") {
		if level = strings.TrimSpace(level); level != "" {
			dt.DifficultyRange = append(dt.DifficultyRange, level)
		}
	}
	for i, name := range models.DifficultyLevelNames {
		dt.MinTasksPerLevel[name] = mins[i]
	}
	return dt, nil
}

// PutDifficultyTarget replaces the range and bias and updates the minimums
// of the levels present in MinTasksPerLevel.
func (db *DB) PutDifficultyTarget(ctx context.Context, in models.DifficultyTarget) (*models.DifficultyTarget, error) {
	bias := in.DifficultyBias
	if bias == "" {
		bias = models.BiasBalanced
	}
	mins := make([]any, len(models.DifficultyLevelNames))
	for i, name := range models.DifficultyLevelNames {
		if v, ok := in.MinTasksPerLevel[name]; ok {
			mins[i] = v
		}
	}

	err := db.inTx(ctx, "put_difficulty_target", func(q querier) error {
		_, err := q.ExecContext(ctx, `
			UPDATE difficulty_preferences SET difficulty_range = $1, bias = $2,
				min_beginner = COALESCE($3, min_beginner),
				min_intermediate = COALESCE($4, min_intermediate),
				min_advanced = COALESCE($5, min_advanced),
				min_expert = COALESCE($6, min_expert)
			WHERE id = 1`,
			strings.Join(in.DifficultyRange, ","), bias, mins[0], mins[1], mins[2], mins[3])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update difficulty preferences: %w", err)
	}
	return db.GetDifficultyTarget(ctx)
}

// GetCategoryBalance returns the category-balance settings tab.
func (db *DB) GetCategoryBalance(ctx context.Context) (*models.CategoryBalance, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	cb := &models.CategoryBalance{
		TargetCategoryDistribution:  map[string]int{},
		MinSubcategoriesPerCategory: map[string]int{},
	}
	if err := db.conn.QueryRowContext(ctx,
		`SELECT enforce_balance, auto_alert_on_imbalance FROM category_settings WHERE id = 1`).Scan(
		&cb.EnforceBalance, &cb.AutoAlertOnImbalance); err != nil {
		return nil, fmt.Errorf("load category settings: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.name, p.target_percentage, p.min_subcategories
		FROM category_preference p
		JOIN category c ON c.id = p.category_id
		ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("load category preferences: %w", err)
	}
	defer closeQuietly(rows)
	for rows.Next() {
		var (
			name           string
			target, minSub int
		)
		if err := rows.Scan(&name, &target, &minSub); err != nil {
			return nil, err
		}
		cb.TargetCategoryDistribution[name] = target
		cb.MinSubcategoriesPerCategory[name] = minSub
	}
	return cb, rows.Err()
}

// PutCategoryBalance stores the flags and upserts a preference row for every
// category named in either map. Unknown category names yield ErrInvalid and
// nothing is written.
func (db *DB) PutCategoryBalance(ctx context.Context, in models.CategoryBalance) (*models.CategoryBalance, error) {
	err := db.inTx(ctx, "put_category_balance", func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`UPDATE category_settings SET enforce_balance = $1, auto_alert_on_imbalance = $2 WHERE id = 1`,
			in.EnforceBalance, in.AutoAlertOnImbalance); err != nil {
			return fmt.Errorf("update category settings: %w", err)
		}

		columns := []struct {
			col    string
			values map[string]int
		}{
			{"target_percentage", in.TargetCategoryDistribution},
			{"min_subcategories", in.MinSubcategoriesPerCategory},
		}
		for _, c := range columns {
			for name, value := range c.values {
				categoryID, err := findNamedID(ctx, q, "category", name)
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%w: unknown category %q", ErrInvalid, name)
				}
				if err != nil {
					return err
				}
				if _, err := q.ExecContext(ctx,
					`INSERT INTO category_preference (category_id) VALUES ($1) ON CONFLICT (category_id) DO NOTHING`,
					categoryID); err != nil {
					return fmt.Errorf("insert category preference: %w", err)
				}
				//nolint:gosec // column names are literals above
				if _, err := q.ExecContext(ctx,
					fmt.Sprintf(`UPDATE category_preference SET %s = $1 WHERE category_id = $2`, c.col),
					value, categoryID); err != nil {
					return fmt.Errorf("update category preference: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetCategoryBalance(ctx)
}
