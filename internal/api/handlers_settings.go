// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/techstack/internal/models"
)

// settingsHandlers builds the GET and PUT handlers of one learning goals tab.
// Every tab has the same shape: load a struct, or validate and store one.
func settingsHandlers[T any](
	get func(ctx context.Context) (*T, error),
	put func(ctx context.Context, in T) (*T, error),
) (http.HandlerFunc, http.HandlerFunc) {
	getHandler := func(w http.ResponseWriter, r *http.Request) {
		v, err := get(r.Context())
		if err != nil {
			respondStoreError(w, err, "Settings not found")
			return
		}
		respondData(w, http.StatusOK, v)
	}
	putHandler := func(w http.ResponseWriter, r *http.Request) {
		var in T
		if !decodeAndValidate(w, r, &in) {
			return
		}
		v, err := put(r.Context(), in)
		if err != nil {
			respondStoreError(w, err, "Settings not found")
			return
		}
		respondData(w, http.StatusOK, v)
	}
	return getHandler, putHandler
}

// StudyTime handles the study-time tab of the learning goals.
//
// @Summary Study time goals
// @Tags Settings
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.StudyTime}
// @Router /settings/learning-goals/study-time [get]
func (h *Handler) StudyTime() (get, put http.HandlerFunc) {
	return settingsHandlers[models.StudyTime](h.db.GetStudyTime, h.db.PutStudyTime)
}

// TaskQuotas handles the task-quotas tab. Only task types that already
// have a weight are updated; names match case-insensitively.
//
// @Summary Task quota goals
// @Tags Settings
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.TaskQuotas}
// @Router /settings/learning-goals/task-quotas [get]
func (h *Handler) TaskQuotas() (get, put http.HandlerFunc) {
	return settingsHandlers[models.TaskQuotas](h.db.GetTaskQuotas, h.db.PutTaskQuotas)
}

// QuizGoals handles the quiz-goals tab.
//
// @Summary Quiz goals
// @Tags Settings
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.QuizGoals}
// @Router /settings/learning-goals/quiz-goals [get]
func (h *Handler) QuizGoals() (get, put http.HandlerFunc) {
	return settingsHandlers[models.QuizGoals](h.db.GetQuizGoals, h.db.PutQuizGoals)
}

// DifficultyTargets handles the difficulty-targets tab.
//
// @Summary Difficulty targets
// @Tags Settings
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.DifficultyTarget}
// @Router /settings/learning-goals/difficulty-targets [get]
func (h *Handler) DifficultyTargets() (get, put http.HandlerFunc) {
	return settingsHandlers[models.DifficultyTarget](h.db.GetDifficultyTarget, h.db.PutDifficultyTarget)
}

// CategoryBalance handles the category-balance tab. Unknown category names
// are rejected with 400 and nothing is stored.
//
// @Summary Category balance goals
// @Tags Settings
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CategoryBalance}
// @Router /settings/learning-goals/category-balance [get]
func (h *Handler) CategoryBalance() (get, put http.HandlerFunc) {
	return settingsHandlers[models.CategoryBalance](h.db.GetCategoryBalance, h.db.PutCategoryBalance)
}
