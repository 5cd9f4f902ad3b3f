// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package validation provides struct validation using go-playground/validator v10.

A single validator instance is built on first use and cached, since the
library caches struct metadata per instance. Field names in errors are the
JSON names of the request body.

# Custom Tags

The following tags accept their values case-insensitively:

  - difficulty_level: unknown, beginner, intermediate, advanced, expert
  - task_status: not_started, in_progress, completed, on_hold, cancelled
  - task_priority: low, medium, high, critical
  - task_type: learning, implementation, research, documentation, maintenance
  - week_day: Mon, Tue, Wed, Thu, Fri, Sat, Sun

# Usage

	var req models.TaskUpdate
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusUnprocessableEntity, apiErr.Code, apiErr.Message, nil)
		return
	}

The enrichment pipeline calls ValidateURL before fetching anything.
*/
package validation
