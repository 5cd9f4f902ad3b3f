// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"

	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/llm"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/models"
)

// ListCourses returns courses with level and resource names.
//
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.CourseRead}
// @Router /courses [get]
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.pagination(r)
	courses, err := h.db.ListCourses(r.Context(), limit, offset)
	if err != nil {
		respondStoreError(w, err, "Courses not found")
		return
	}
	respondPage(w, courses, limit, offset)
}

// CountCourses counts courses.
//
// @Summary Count courses
// @Tags Courses
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CountResponse}
// @Router /courses/count [get]
func (h *Handler) CountCourses(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.CountCourses(r.Context())
	if err != nil {
		respondStoreError(w, err, "Courses not found")
		return
	}
	respondData(w, http.StatusOK, models.CountResponse{Count: n})
}

// CourseDetails returns a course with its resource, source, categories,
// modules and lessons.
//
// @Summary Course details
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.APIResponse{data=models.CourseDetails}
// @Failure 404 {object} models.APIResponse "Course not found"
// @Router /courses/{id}/details [get]
func (h *Handler) CourseDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	course, err := h.db.GetCourseDetails(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Course not found")
		return
	}
	respondData(w, http.StatusOK, course)
}

// CreateCourse creates a course linked to categories.
//
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param course body models.CourseCreate true "Course"
// @Success 201 {object} models.APIResponse{data=models.CourseDetails}
// @Router /courses [post]
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var in models.CourseCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	course, err := h.db.CreateCourse(r.Context(), in)
	if err != nil {
		respondStoreError(w, err, "Referenced entity not found")
		return
	}
	respondData(w, http.StatusCreated, course)
}

// SetCourseCategories replaces a course's categories.
//
// @Summary Replace course categories
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param body body models.CourseCategoriesUpdate true "Category IDs"
// @Success 200 {object} models.APIResponse{data=[]models.NamedItem}
// @Router /courses/{id}/categories [put]
func (h *Handler) SetCourseCategories(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in models.CourseCategoriesUpdate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	cats, err := h.db.SetCourseCategories(r.Context(), id, in.CategoryIDs)
	if err != nil {
		respondStoreError(w, err, "Course not found")
		return
	}
	respondData(w, http.StatusOK, cats)
}

// ListModules returns the modules of a course in order.
//
// @Summary List course modules
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.APIResponse{data=[]models.Module}
// @Router /courses/{id}/modules [get]
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	modules, err := h.db.ListModules(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Course not found")
		return
	}
	respondData(w, http.StatusOK, modules)
}

// CreateModule adds a module to a course.
//
// @Summary Create course module
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param module body models.ModuleCreate true "Module"
// @Success 201 {object} models.APIResponse{data=models.Module}
// @Router /courses/{id}/modules [post]
func (h *Handler) CreateModule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in models.ModuleCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	module, err := h.db.CreateModule(r.Context(), id, in)
	if err != nil {
		respondStoreError(w, err, "Course not found")
		return
	}
	respondData(w, http.StatusCreated, module)
}

// ClassifyCourse asks the language model which existing categories fit a
// course. Suggestions are not applied; PUT /courses/{id}/categories does that.
//
// @Summary Suggest course categories
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.APIResponse{data=[]models.CategorySuggestion}
// @Failure 404 {object} models.APIResponse "Course not found"
// @Failure 503 {object} models.APIResponse "Language model unavailable"
// @Router /courses/{id}/classify [post]
func (h *Handler) ClassifyCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.llm == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeLLMUnavailable, "Language model not configured", nil)
		return
	}
	ctx := r.Context()

	course, err := h.db.GetCourseDetails(ctx, id)
	if err != nil {
		respondStoreError(w, err, "Course not found")
		return
	}
	categories, err := h.db.ListLookup(ctx, database.LookupCategory)
	if err != nil {
		respondStoreError(w, err, "Categories not found")
		return
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	in := llm.CourseInput{Title: course.Title, Description: course.Description}
	if course.Resource != nil {
		in.ResourceTitle = course.Resource.Title
		in.ResourceType = course.Resource.ResourceType
		if course.Resource.Source != nil {
			in.SourceName = course.Resource.Source.Name
		}
	}

	suggestions, err := h.llm.ClassifyCourse(ctx, in, names)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("course_id", id).Msg("course classification failed")
		respondError(w, http.StatusBadGateway, ErrCodeLLMUnavailable, "Course classification failed", nil)
		return
	}
	respondData(w, http.StatusOK, suggestions)
}
