// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package models

// Difficulty bias values.
const (
	BiasBalanced        = "balanced"
	BiasPushHigher      = "push_higher"
	BiasReinforceBasics = "reinforce_basics"
)

// DifficultyLevelNames are the display names used by the difficulty-targets tab.
var DifficultyLevelNames = []string{"Beginner", "Intermediate", "Advanced", "Expert"}

// WeekDays are the study_days rows in calendar order.
var WeekDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// StudyTime is the study-time tab of the learning goals settings.
//
// PreferredHours is "label, time range", for example "Evenings, 7-9pm".
type StudyTime struct {
	DailyGoal      int      `json:"daily_goal" validate:"gte=0,lte=24"`
	WeeklyGoal     int      `json:"weekly_goal" validate:"gte=0,lte=168"`
	DaysToStudy    []string `json:"days_to_study" validate:"max=7,dive,week_day"`
	PreferredHours *string  `json:"preferred_hours" validate:"omitempty,max=200"`
}

// TaskQuotas is the task-quotas tab. TaskTypeValues maps a task type name to
// its weight.
type TaskQuotas struct {
	TasksPerDay    int            `json:"tasks_per_day" validate:"gte=0,lte=100"`
	TasksPerWeek   int            `json:"tasks_per_week" validate:"gte=0,lte=700"`
	TaskTypeValues map[string]int `json:"task_type_values" validate:"dive,gte=0,lte=10"`
}

// QuizGoals is the quiz-goals tab.
type QuizGoals struct {
	DailyQuizGoal            int  `json:"daily_quiz_goal" validate:"gte=0,lte=100"`
	QuizzesPerWeek           int  `json:"quizzes_per_week" validate:"gte=0,lte=700"`
	MinimumPassingScore      int  `json:"minimum_passing_score" validate:"gte=0,lte=100"`
	ReviewMissedTopicsWeekly bool `json:"review_missed_topics_weekly"`
}

// DifficultyTarget is the difficulty-targets tab. Level names are the
// capitalized DifficultyLevelNames.
type DifficultyTarget struct {
	DifficultyRange  []string       `json:"difficulty_range" validate:"max=4,dive,oneof=Beginner Intermediate Advanced Expert"`
	DifficultyBias   string         `json:"difficulty_bias" validate:"omitempty,oneof=balanced push_higher reinforce_basics"`
	MinTasksPerLevel map[string]int `json:"min_tasks_per_level" validate:"dive,keys,oneof=Beginner Intermediate Advanced Expert,endkeys,gte=0,lte=1000"`
}

// CategoryBalance is the category-balance tab. Maps are keyed by category name.
type CategoryBalance struct {
	TargetCategoryDistribution  map[string]int `json:"target_category_distribution" validate:"dive,gte=0,lte=100"`
	EnforceBalance              bool           `json:"enforce_balance"`
	MinSubcategoriesPerCategory map[string]int `json:"min_subcategories_per_category" validate:"dive,gte=0,lte=100"`
	AutoAlertOnImbalance        bool           `json:"auto_alert_on_imbalance"`
}
