// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package models

// CourseRead is a course row with its level and resource resolved to names.
type CourseRead struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Resource    string `json:"resource"`
}

// CourseDetails is returned by GET /courses/{id}/details.
type CourseDetails struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Level       string       `json:"level"`
	Resource    *Resource    `json:"resource"`
	Categories  []NamedItem  `json:"categories"`
	Modules     []Module     `json:"modules"`
	Lessons     []LessonRead `json:"lessons"`
}

// CourseCreate is the request body for POST /courses.
type CourseCreate struct {
	Title       string  `json:"title" validate:"required,min=1,max=500"`
	Description string  `json:"description" validate:"max=5000"`
	Level       string  `json:"level" validate:"omitempty,difficulty_level"`
	ResourceID  *int64  `json:"resource_id" validate:"omitempty,gt=0"`
	CategoryIDs []int64 `json:"category_ids" validate:"max=50,dive,gt=0"`
}

// CourseCategoriesUpdate replaces a course's categories.
type CourseCategoriesUpdate struct {
	CategoryIDs []int64 `json:"category_ids" validate:"max=50,dive,gt=0"`
}

// CategorySuggestion is one LLM-proposed category for a course.
type CategorySuggestion struct {
	Category  string `json:"category"`
	Reasoning string `json:"reasoning"`
}

// Module groups lessons inside a course.
type Module struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	CourseID int64  `json:"course_id"`
	Order    int    `json:"order"`
}

// ModuleCreate is the request body for POST /courses/{id}/modules.
type ModuleCreate struct {
	Title string `json:"title" validate:"required,min=1,max=500"`
	Order int    `json:"order" validate:"gte=0"`
}

// LessonRead is a lesson with module, course, level and resource resolved.
type LessonRead struct {
	ID                int64  `json:"id"`
	LessonID          string `json:"lesson_id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Module            string `json:"module"`
	Course            string `json:"course"`
	Level             string `json:"level"`
	Resource          string `json:"resource"`
	Content           string `json:"content"`
	VideoURL          string `json:"video_url,omitempty"`
	Order             int    `json:"order"`
	EstimatedDuration int    `json:"estimated_duration"` // minutes
}

// LessonDetails adds the lesson's taxonomy links.
type LessonDetails struct {
	LessonRead
	ResourceID    *int64           `json:"resource_id,omitempty"`
	ResourceURL   string           `json:"resource_url,omitempty"`
	Categories    []NamedItem      `json:"categories"`
	Subcategories []NamedItem      `json:"subcategories"`
	Technologies  []TechnologyRead `json:"technologies"`
	Topics        []NamedItem      `json:"topics"`
}

// LessonCreate is the request body for POST /lessons and PUT /lessons/{id}.
type LessonCreate struct {
	Title             string   `json:"title" validate:"required,min=1,max=500"`
	Description       string   `json:"description" validate:"max=5000"`
	ModuleID          *int64   `json:"module_id" validate:"omitempty,gt=0"`
	Level             string   `json:"level" validate:"omitempty,difficulty_level"`
	ResourceID        *int64   `json:"resource_id" validate:"omitempty,gt=0"`
	Content           string   `json:"content"`
	VideoURL          string   `json:"video_url" validate:"omitempty,url"`
	Order             int      `json:"order" validate:"gte=0"`
	EstimatedDuration int      `json:"estimated_duration" validate:"gte=0"`
	Topics            []string `json:"topics" validate:"max=50,dive,min=1,max=200"`
	CategoryIDs       []int64  `json:"category_ids" validate:"max=50,dive,gt=0"`
	SubcategoryIDs    []int64  `json:"subcategory_ids" validate:"max=50,dive,gt=0"`
	TechnologyIDs     []int64  `json:"technology_ids" validate:"max=100,dive,gt=0"`
}
