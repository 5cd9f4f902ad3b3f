// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package llm

import (
	"fmt"
	"strings"

	"github.com/tomtom215/techstack/internal/models"
)

// TaskVerb returns the action verb a task name starts with for a resource
// type.
func TaskVerb(resourceType string) string {
	t := strings.ToLower(resourceType)
	switch {
	case strings.Contains(t, "video"):
		return "Watch"
	case strings.Contains(t, "course"):
		return "Complete"
	case strings.Contains(t, "tutorial"):
		return "Follow"
	case strings.Contains(t, "github"), strings.Contains(t, "code"), strings.Contains(t, "repo"):
		return "Code"
	default:
		return "Read"
	}
}

// HeuristicTask builds a task without a model: verb plus quoted title,
// learning type, not started, medium priority.
func HeuristicTask(in TaskInput) models.TaskMetadata {
	title := strings.TrimSpace(in.ResourceTitle)
	if title == "" {
		title = "resource"
	}
	taskType := models.TaskTypeLearning
	if TaskVerb(in.ResourceType) == "Code" {
		taskType = models.TaskTypeImplementation
	}
	return models.TaskMetadata{
		TaskName:        fmt.Sprintf("%s %q", TaskVerb(in.ResourceType), title),
		TaskDescription: strings.TrimSpace(in.LessonDescription),
		TaskType:        taskType,
		TaskStatus:      models.TaskStatusNotStarted,
		TaskPriority:    models.TaskPriorityMedium,
	}
}
