// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"

	"github.com/tomtom215/techstack/internal/models"
)

// ListLessons returns lessons with module, course, level and resource names.
//
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.APIResponse{data=[]models.LessonRead}
// @Router /lessons [get]
func (h *Handler) ListLessons(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.pagination(r)
	lessons, err := h.db.ListLessons(r.Context(), limit, offset)
	if err != nil {
		respondStoreError(w, err, "Lessons not found")
		return
	}
	respondPage(w, lessons, limit, offset)
}

// CountLessons counts lessons.
//
// @Summary Count lessons
// @Tags Lessons
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CountResponse}
// @Router /lessons/count [get]
func (h *Handler) CountLessons(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.CountLessons(r.Context())
	if err != nil {
		respondStoreError(w, err, "Lessons not found")
		return
	}
	respondData(w, http.StatusOK, models.CountResponse{Count: n})
}

// GetLesson returns a lesson with its categories, subcategories,
// technologies and topics.
//
// @Summary Get lesson
// @Tags Lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.APIResponse{data=models.LessonDetails}
// @Failure 404 {object} models.APIResponse "Lesson not found"
// @Router /lessons/{id} [get]
func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lesson, err := h.db.GetLesson(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Lesson not found")
		return
	}
	respondData(w, http.StatusOK, lesson)
}

// CreateLesson creates a lesson and its taxonomy links.
//
// @Summary Create lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param lesson body models.LessonCreate true "Lesson"
// @Success 201 {object} models.APIResponse{data=models.LessonDetails}
// @Router /lessons [post]
func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var in models.LessonCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	lesson, err := h.db.CreateLesson(r.Context(), in)
	if err != nil {
		respondStoreError(w, err, "Referenced entity not found")
		return
	}
	respondData(w, http.StatusCreated, lesson)
}

// UpdateLesson replaces a lesson's fields and links.
//
// @Summary Update lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param lesson body models.LessonCreate true "Lesson"
// @Success 200 {object} models.APIResponse{data=models.LessonDetails}
// @Failure 404 {object} models.APIResponse "Lesson not found"
// @Router /lessons/{id} [put]
func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in models.LessonCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	lesson, err := h.db.UpdateLesson(r.Context(), id, in)
	if err != nil {
		respondStoreError(w, err, "Lesson not found")
		return
	}
	respondData(w, http.StatusOK, lesson)
}

// DeleteLesson removes a lesson and its links; its tasks are kept but
// detached.
//
// @Summary Delete lesson
// @Tags Lessons
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.APIResponse{data=models.MessageResponse}
// @Failure 404 {object} models.APIResponse "Lesson not found"
// @Router /lessons/{id} [delete]
func (h *Handler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.db.DeleteLesson(r.Context(), id); err != nil {
		respondStoreError(w, err, "Lesson not found")
		return
	}
	respondData(w, http.StatusOK, models.MessageResponse{Message: "Lesson deleted"})
}
