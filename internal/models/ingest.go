// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package models

import "time"

// Ingest job states.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// IngestRequest is the body of POST /ingest and the first websocket frame
// of /ingest/stream.
type IngestRequest struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

// BatchIngestRequest is the body of POST /ingest/batch.
type BatchIngestRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=100,dive,required,url,max=2048"`
}

// Progress is one pipeline progress frame.
type Progress struct {
	Progress int    `json:"progress"`
	Stage    string `json:"stage"`
}

// ResourceMetadata describes the ingested resource and its source.
type ResourceMetadata struct {
	ResourceTitle       string   `json:"resource_title"`
	ResourceDescription string   `json:"resource_description"`
	ResourceType        string   `json:"resource_type"`
	ResourceURL         string   `json:"resource_url"`
	SourceName          string   `json:"source_name"`
	SourceType          string   `json:"source_type"`
	SourceURL           string   `json:"source_url"`
	PublicationName     string   `json:"publication_name"`
	ResourceImageURL    string   `json:"resource_image_url"`
	ResourceAuthors     []string `json:"resource_authors"`
	SourceImageURL      string   `json:"source_image_url"`
	PublishedAt         string   `json:"published_at,omitempty"`
}

// CategoryAssignment is a category with the subcategories chosen under it.
type CategoryAssignment struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
}

// TechnologyAssignment is a technology with the subcategory it belongs to.
type TechnologyAssignment struct {
	Name        string `json:"name"`
	Subcategory string `json:"subcategory,omitempty"`
}

// LessonMetadata is the lesson derived from a resource.
type LessonMetadata struct {
	LessonTitle       string                 `json:"lesson_title"`
	LessonDescription string                 `json:"lesson_description"`
	EstimatedDuration string                 `json:"estimated_duration"` // ISO 8601, e.g. PT15M
	Level             string                 `json:"level"`
	Categories        []CategoryAssignment   `json:"categories"`
	Technologies      []TechnologyAssignment `json:"technologies"`
	Topics            []string               `json:"topics"`
}

// TaskMetadata is the follow-up task generated for a lesson.
type TaskMetadata struct {
	TaskName        string `json:"task_name"`
	TaskDescription string `json:"task_description"`
	TaskType        string `json:"task_type"`
	TaskStatus      string `json:"task_status"`
	TaskPriority    string `json:"task_priority"`
}

// EnrichedMetadata is the merged output of every pipeline stage.
type EnrichedMetadata struct {
	Resource ResourceMetadata `json:"resource"`
	Lesson   LessonMetadata   `json:"lesson"`
	Task     TaskMetadata     `json:"task"`
}

// IngestResult identifies the rows written for an ingested URL.
type IngestResult struct {
	ResourceID int64            `json:"resource_id"`
	SourceID   int64            `json:"source_id"`
	LessonID   int64            `json:"lesson_id"`
	TaskID     int64            `json:"task_id"`
	Created    bool             `json:"created"` // false when an earlier ingest of the URL was updated
	Metadata   EnrichedMetadata `json:"metadata"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// IngestJob tracks one asynchronous ingestion.
type IngestJob struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Status    string        `json:"status"`
	Progress  int           `json:"progress"`
	Stage     string        `json:"stage"`
	Error     string        `json:"error,omitempty"`
	Result    *IngestResult `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Terminal reports whether the job has finished.
func (j *IngestJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
