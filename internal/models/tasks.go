// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package models

import "time"

// Task statuses.
const (
	TaskStatusNotStarted = "not_started"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusOnHold     = "on_hold"
	TaskStatusCancelled  = "cancelled"
)

// Task priorities.
const (
	TaskPriorityLow      = "low"
	TaskPriorityMedium   = "medium"
	TaskPriorityHigh     = "high"
	TaskPriorityCritical = "critical"
)

// Task types.
const (
	TaskTypeLearning       = "learning"
	TaskTypeImplementation = "implementation"
	TaskTypeResearch       = "research"
	TaskTypeDocumentation  = "documentation"
	TaskTypeMaintenance    = "maintenance"
)

// Difficulty levels. LevelUnknown is the fallback for unrecognized input.
const (
	LevelUnknown      = "unknown"
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)

// TaskStatuses lists the seeded statuses in display order.
var TaskStatuses = []string{TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOnHold, TaskStatusCancelled}

// TaskPriorities lists the seeded priorities in display order.
var TaskPriorities = []string{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical}

// TaskTypes lists the seeded task types in display order.
var TaskTypes = []string{TaskTypeLearning, TaskTypeImplementation, TaskTypeResearch, TaskTypeDocumentation, TaskTypeMaintenance}

// Levels lists the seeded difficulty levels, unknown first.
var Levels = []string{LevelUnknown, LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert}

// TaskView is a task with every foreign key resolved to a display name.
type TaskView struct {
	ID                int64    `json:"id"`
	TaskID            string   `json:"task_id"`
	Done              bool     `json:"done"`
	Task              string   `json:"task"`
	Description       string   `json:"description,omitempty"`
	Technology        string   `json:"technology"`
	Subcategory       string   `json:"subcategory"`
	Category          string   `json:"category"`
	Section           string   `json:"section"`
	EstimatedDuration int      `json:"estimated_duration"`
	Topics            []string `json:"topics"`
	Level             string   `json:"level"`
	Type              string   `json:"type"`
	Priority          string   `json:"priority"`
	Order             int      `json:"order"`
	Status            string   `json:"status"`
	Progress          int      `json:"progress"`
	Source            string   `json:"source"`
	DueDate           *Date    `json:"due_date"`
	StartDate         *Date    `json:"start_date"`
	EndDate           *Date    `json:"end_date"`
	ActualDuration    *int     `json:"actual_duration"`
	LessonID          *int64   `json:"lesson_id,omitempty"`
}

// TaskDetailed extends TaskView with its originating lesson and resource.
type TaskDetailed struct {
	TaskView
	Lesson      string     `json:"lesson,omitempty"`
	ResourceURL string     `json:"resource_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskCreate is the request body for POST /tasks. Foreign keys are optional
// so that quick-add and generated tasks need not carry a full classification.
type TaskCreate struct {
	Task              string  `json:"task" validate:"required,min=1,max=500"`
	Description       string  `json:"description" validate:"max=5000"`
	TechnologyID      *int64  `json:"technology_id" validate:"omitempty,gt=0"`
	SubcategoryID     *int64  `json:"subcategory_id" validate:"omitempty,gt=0"`
	CategoryID        *int64  `json:"category_id" validate:"omitempty,gt=0"`
	TopicIDs          []int64 `json:"topic_ids" validate:"max=50,dive,gt=0"`
	SectionID         *int64  `json:"section_id" validate:"omitempty,gt=0"`
	SourceID          *int64  `json:"source_id" validate:"omitempty,gt=0"`
	LessonID          *int64  `json:"lesson_id" validate:"omitempty,gt=0"`
	LevelID           *int64  `json:"level_id" validate:"omitempty,gt=0"`
	TypeID            *int64  `json:"type_id" validate:"omitempty,gt=0"`
	StatusID          *int64  `json:"status_id" validate:"omitempty,gt=0"`
	PriorityID        *int64  `json:"priority_id" validate:"omitempty,gt=0"`
	Progress          int     `json:"progress" validate:"gte=0,lte=100"`
	Order             *int    `json:"order" validate:"omitempty,gte=0"`
	DueDate           *Date   `json:"due_date"`
	StartDate         *Date   `json:"start_date"`
	EndDate           *Date   `json:"end_date"`
	EstimatedDuration *int    `json:"estimated_duration" validate:"omitempty,gte=0"`
	ActualDuration    *int    `json:"actual_duration" validate:"omitempty,gte=0"`
	Done              bool    `json:"done"`
}

// TaskUpdate is the request body for PUT /tasks/{id}. Nil fields are left
// unchanged. Status and priority are given by name.
type TaskUpdate struct {
	Task              *string `json:"task" validate:"omitempty,min=1,max=500"`
	Description       *string `json:"description" validate:"omitempty,max=5000"`
	Done              *bool   `json:"done"`
	Status            *string `json:"status" validate:"omitempty,task_status"`
	Priority          *string `json:"priority" validate:"omitempty,task_priority"`
	Progress          *int    `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Order             *int    `json:"order" validate:"omitempty,gte=0"`
	DueDate           *Date   `json:"due_date"`
	StartDate         *Date   `json:"start_date"`
	EndDate           *Date   `json:"end_date"`
	EstimatedDuration *int    `json:"estimated_duration" validate:"omitempty,gte=0"`
	ActualDuration    *int    `json:"actual_duration" validate:"omitempty,gte=0"`
	TopicIDs          []int64 `json:"topic_ids" validate:"omitempty,max=50,dive,gt=0"`
}

// TaskFilter narrows GET /tasks.
type TaskFilter struct {
	Status     string
	CategoryID int64
	LessonID   int64
	Done       *bool
	Limit      int
	Offset     int
}

// DailyCount is the number of tasks completed on one day.
type DailyCount struct {
	Date  Date  `json:"date"`
	Count int64 `json:"count"`
}
