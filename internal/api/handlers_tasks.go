// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/llm"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/models"
)

// taskFilter reads status, category_id, lesson_id, done, limit and offset.
func (h *Handler) taskFilter(r *http.Request) models.TaskFilter {
	limit, offset := h.pagination(r)
	return models.TaskFilter{
		Status:     r.URL.Query().Get("status"),
		CategoryID: int64(getIntParam(r, "category_id", 0)),
		LessonID:   int64(getIntParam(r, "lesson_id", 0)),
		Done:       getBoolParam(r, "done"),
		Limit:      limit,
		Offset:     offset,
	}
}

// ListTasks returns tasks with names resolved.
//
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param status query string false "Task status name"
// @Param category_id query int false "Category ID"
// @Param lesson_id query int false "Lesson ID"
// @Param done query bool false "Completion flag"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.APIResponse{data=[]models.TaskView}
// @Router /tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	f := h.taskFilter(r)
	tasks, err := h.db.ListTasks(r.Context(), f)
	if err != nil {
		respondStoreError(w, err, "Tasks not found")
		return
	}
	respondPage(w, tasks, f.Limit, f.Offset)
}

// ListTasksDetailed returns tasks with lesson title and resource URL.
//
// @Summary List tasks with lesson and resource
// @Tags Tasks
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.TaskDetailed}
// @Router /tasks/detailed [get]
func (h *Handler) ListTasksDetailed(w http.ResponseWriter, r *http.Request) {
	f := h.taskFilter(r)
	tasks, err := h.db.ListTasksDetailed(r.Context(), f)
	if err != nil {
		respondStoreError(w, err, "Tasks not found")
		return
	}
	respondPage(w, tasks, f.Limit, f.Offset)
}

// CountTasks counts tasks matching the filter.
//
// @Summary Count tasks
// @Tags Tasks
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CountResponse}
// @Router /tasks/count [get]
func (h *Handler) CountTasks(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.CountTasks(r.Context(), h.taskFilter(r))
	if err != nil {
		respondStoreError(w, err, "Tasks not found")
		return
	}
	respondData(w, http.StatusOK, models.CountResponse{Count: n})
}

// GetTask returns one task.
//
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} models.APIResponse{data=models.TaskDetailed}
// @Failure 404 {object} models.APIResponse "Task not found"
// @Router /tasks/{id} [get]
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.db.GetTask(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Task not found")
		return
	}
	respondData(w, http.StatusOK, task)
}

// CreateTask creates a task and links its topics.
//
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param task body models.TaskCreate true "Task"
// @Success 201 {object} models.APIResponse{data=models.TaskDetailed}
// @Failure 400 {object} models.APIResponse "Validation error"
// @Router /tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in models.TaskCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	task, err := h.db.CreateTask(r.Context(), in)
	if err != nil {
		respondStoreError(w, err, "Referenced entity not found")
		return
	}
	respondData(w, http.StatusCreated, task)
}

// UpdateTask applies a partial update. Marking a task done sets its status
// to completed, progress to 100 and records the completion time. A done
// flag that contradicts the status is rejected.
//
// @Summary Update task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param task body models.TaskUpdate true "Fields to change"
// @Success 200 {object} models.APIResponse{data=models.TaskDetailed}
// @Failure 400 {object} models.APIResponse "Invalid update"
// @Failure 404 {object} models.APIResponse "Task not found"
// @Router /tasks/{id} [put]
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in models.TaskUpdate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	task, err := h.db.UpdateTask(r.Context(), id, in)
	if err != nil {
		respondStoreError(w, err, "Task not found")
		return
	}
	respondData(w, http.StatusOK, task)
}

// DeleteTask removes a task and its topic links.
//
// @Summary Delete task
// @Tags Tasks
// @Param id path int true "Task ID"
// @Success 200 {object} models.APIResponse{data=models.MessageResponse}
// @Failure 404 {object} models.APIResponse "Task not found"
// @Router /tasks/{id} [delete]
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.db.DeleteTask(r.Context(), id); err != nil {
		respondStoreError(w, err, "Task not found")
		return
	}
	respondData(w, http.StatusOK, models.MessageResponse{Message: "Task deleted"})
}

// CompletedByDay returns completion counts for the last N days.
//
// @Summary Completed tasks per day
// @Tags Tasks
// @Produce json
// @Param days query int false "Number of days" default(7)
// @Success 200 {object} models.APIResponse{data=[]models.DailyCount}
// @Router /tasks/completed-by-day [get]
func (h *Handler) CompletedByDay(w http.ResponseWriter, r *http.Request) {
	days := getIntParam(r, "days", 7)
	if days <= 0 || days > 366 {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "days must be between 1 and 366", nil)
		return
	}
	counts, err := h.db.CompletedByDay(r.Context(), days, time.Now())
	if err != nil {
		respondStoreError(w, err, "No data")
		return
	}
	respondData(w, http.StatusOK, counts)
}

// listLookup returns a handler listing one lookup table.
func (h *Handler) listLookup(table database.LookupTable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.db.ListLookup(r.Context(), table)
		if err != nil {
			respondStoreError(w, err, "Not found")
			return
		}
		respondData(w, http.StatusOK, items)
	}
}

// createLookup returns a handler inserting into one lookup table.
func (h *Handler) createLookup(table database.LookupTable, after func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.NameCreate
		if !decodeAndValidate(w, r, &in) {
			return
		}
		item, err := h.db.CreateLookup(r.Context(), table, in.Name)
		if err != nil {
			respondStoreError(w, err, "Not found")
			return
		}
		if after != nil {
			after()
		}
		respondData(w, http.StatusCreated, item)
	}
}

// GeneratedTask is the body of POST /tasks/from-lesson/{lessonId}.
type GeneratedTask struct {
	Task     *models.TaskDetailed `json:"task"`
	Metadata models.TaskMetadata  `json:"metadata"`
	Warnings []string             `json:"warnings,omitempty"`
}

// TaskFromLesson generates (or refreshes) the task of an existing lesson.
// Without a language model, or when it fails, the task is derived from the
// resource type.
//
// @Summary Generate a task for a lesson
// @Tags Tasks
// @Produce json
// @Param lessonId path int true "Lesson ID"
// @Success 201 {object} models.APIResponse{data=GeneratedTask}
// @Failure 404 {object} models.APIResponse "Lesson not found"
// @Router /tasks/from-lesson/{lessonId} [post]
func (h *Handler) TaskFromLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonId")
	if !ok {
		return
	}
	ctx := r.Context()

	src, err := h.db.GetLessonSource(ctx, lessonID)
	if err != nil {
		respondStoreError(w, err, "Lesson not found")
		return
	}

	in := llm.TaskInput{
		ResourceTitle:     src.ResourceTitle,
		ResourceType:      src.ResourceType,
		LessonDescription: src.Description,
	}
	if in.ResourceTitle == "" {
		in.ResourceTitle = src.Title
	}

	var (
		meta     models.TaskMetadata
		warnings []string
	)
	if h.llm == nil {
		meta = llm.HeuristicTask(in)
		warnings = append(warnings, "language model not configured; task derived from resource type")
	} else if generated, genErr := h.llm.GenerateTask(ctx, in); genErr != nil {
		logging.Ctx(ctx).Warn().Err(genErr).Int64("lesson_id", lessonID).Msg("task generation failed, using heuristic")
		meta = llm.HeuristicTask(in)
		warnings = append(warnings, "task generation failed: "+genErr.Error())
	} else {
		meta = *generated
	}

	task, err := h.db.SaveLessonTask(ctx, lessonID, meta)
	if err != nil {
		respondStoreError(w, err, "Lesson not found")
		return
	}
	respondData(w, http.StatusCreated, GeneratedTask{Task: task, Metadata: meta, Warnings: warnings})
}
