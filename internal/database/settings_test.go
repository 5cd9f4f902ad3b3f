// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/techstack/internal/models"
)

func TestParsePreferredHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, label, timeRange string
	}{
		{"Evenings, 7-9pm", "Evenings", "7-9pm"},
		{"Mornings", "Mornings", ""},
		{"  Lunch ,12-1pm ", "Lunch", "12-1pm"},
		{"Late, 10pm, sometimes 11", "Late", "10pm, sometimes 11"},
	}
	for _, tt := range tests {
		label, timeRange := ParsePreferredHours(tt.in)
		checkStringEqual(t, "label", label, tt.label)
		checkStringEqual(t, "range", timeRange, tt.timeRange)
		if tt.timeRange != "" && FormatPreferredHours(label, timeRange) != label+", "+timeRange {
			t.Errorf("FormatPreferredHours(%q, %q) did not round trip", label, timeRange)
		}
	}
}

func TestStudyTimeRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	st, err := db.GetStudyTime(ctx)
	checkNoError(t, err)
	checkIntEqual(t, "days", len(st.DaysToStudy), 0)
	if st.PreferredHours != nil {
		t.Errorf("expected no preferred hours, got %q", *st.PreferredHours)
	}

	hours := "Evenings, 7-9pm"
	st, err = db.PutStudyTime(ctx, models.StudyTime{
		DailyGoal:      2,
		WeeklyGoal:     10,
		DaysToStudy:    []string{"wed", "Mon"},
		PreferredHours: &hours,
	})
	checkNoError(t, err)
	checkIntEqual(t, "daily goal", st.DailyGoal, 2)
	checkIntEqual(t, "days", len(st.DaysToStudy), 2)
	checkStringEqual(t, "first day", st.DaysToStudy[0], "Mon")
	checkStringEqual(t, "second day", st.DaysToStudy[1], "Wed")
	if st.PreferredHours == nil || *st.PreferredHours != hours {
		t.Errorf("preferred hours not stored: %v", st.PreferredHours)
	}

	st, err = db.PutStudyTime(ctx, models.StudyTime{DailyGoal: 1})
	checkNoError(t, err)
	checkIntEqual(t, "days cleared", len(st.DaysToStudy), 0)
	if st.PreferredHours != nil {
		t.Error("preferred hours should be cleared")
	}
}

func TestTaskQuotasIgnoreUnknownTypes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tq, err := db.GetTaskQuotas(ctx)
	checkNoError(t, err)
	checkIntEqual(t, "types", len(tq.TaskTypeValues), len(models.TaskTypes))
	for name, weight := range tq.TaskTypeValues {
		checkIntEqual(t, "default weight "+name, weight, 5)
	}

	tq, err = db.PutTaskQuotas(ctx, models.TaskQuotas{
		TasksPerDay:    3,
		TasksPerWeek:   15,
		TaskTypeValues: map[string]int{"Research": 8, "gardening": 2},
	})
	checkNoError(t, err)
	checkIntEqual(t, "tasks per day", tq.TasksPerDay, 3)
	checkIntEqual(t, "research weight", tq.TaskTypeValues[models.TaskTypeResearch], 8)
	checkIntEqual(t, "learning weight", tq.TaskTypeValues[models.TaskTypeLearning], 5)
	checkIntEqual(t, "types", len(tq.TaskTypeValues), len(models.TaskTypes))
}

func TestQuizGoalsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	qg, err := db.GetQuizGoals(ctx)
	checkNoError(t, err)
	checkIntEqual(t, "default passing score", qg.MinimumPassingScore, 80)

	qg, err = db.PutQuizGoals(ctx, models.QuizGoals{DailyQuizGoal: 1, QuizzesPerWeek: 5, MinimumPassingScore: 90, ReviewMissedTopicsWeekly: true})
	checkNoError(t, err)
	checkIntEqual(t, "passing score", qg.MinimumPassingScore, 90)
	checkBoolEqual(t, "review weekly", qg.ReviewMissedTopicsWeekly, true)
}

func TestDifficultyTargetKeepsUnspecifiedMinimums(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	dt, err := db.GetDifficultyTarget(ctx)
	checkNoError(t, err)
	checkIntEqual(t, "levels", len(dt.MinTasksPerLevel), len(models.DifficultyLevelNames))

	dt, err = db.PutDifficultyTarget(ctx, models.DifficultyTarget{
		DifficultyRange:  []string{"Beginner", "Advanced"},
		MinTasksPerLevel: map[string]int{"Beginner": 4, "Expert": 2},
	})
	checkNoError(t, err)
	checkStringEqual(t, "bias", dt.DifficultyBias, models.BiasBalanced)
	checkIntEqual(t, "range", len(dt.DifficultyRange), 2)

	dt, err = db.PutDifficultyTarget(ctx, models.DifficultyTarget{
		DifficultyRange:  []string{"Expert"},
		DifficultyBias:   models.BiasPushHigher,
		MinTasksPerLevel: map[string]int{"Expert": 3},
	})
	checkNoError(t, err)
	checkStringEqual(t, "bias", dt.DifficultyBias, models.BiasPushHigher)
	checkIntEqual(t, "beginner kept", dt.MinTasksPerLevel["Beginner"], 4)
	checkIntEqual(t, "expert updated", dt.MinTasksPerLevel["Expert"], 3)
}

func TestCategoryBalance(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cb, err := db.PutCategoryBalance(ctx, models.CategoryBalance{
		TargetCategoryDistribution:  map[string]int{"backend": 40, "DevOps": 20},
		MinSubcategoriesPerCategory: map[string]int{"Backend": 2},
		EnforceBalance:              true,
	})
	checkNoError(t, err)
	checkBoolEqual(t, "enforce", cb.EnforceBalance, true)
	checkIntEqual(t, "backend target", cb.TargetCategoryDistribution["Backend"], 40)
	checkIntEqual(t, "backend min", cb.MinSubcategoriesPerCategory["Backend"], 2)
	checkIntEqual(t, "devops min", cb.MinSubcategoriesPerCategory["DevOps"], 0)

	_, err = db.PutCategoryBalance(ctx, models.CategoryBalance{
		TargetCategoryDistribution: map[string]int{"Cobol": 100},
	})
	checkErrorIs(t, err, ErrInvalid)

	cb, err = db.GetCategoryBalance(ctx)
	checkNoError(t, err)
	checkBoolEqual(t, "enforce kept after rejected write", cb.EnforceBalance, true)
}
