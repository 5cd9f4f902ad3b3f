// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/techstack/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

func TestValidateStruct_CustomTags(t *testing.T) {
	status := func(s string) *string { return &s }

	tests := []struct {
		name    string
		input   interface{}
		wantErr bool
		field   string
		tag     string
	}{
		{
			name:  "lesson level case-insensitive",
			input: &models.LessonCreate{Title: "Intro", Level: "Beginner"},
		},
		{
			name:    "lesson level unknown value",
			input:   &models.LessonCreate{Title: "Intro", Level: "wizard"},
			wantErr: true, field: "level", tag: "difficulty_level",
		},
		{
			name:  "task status valid",
			input: &models.TaskUpdate{Status: status("IN_PROGRESS")},
		},
		{
			name:    "task status invalid",
			input:   &models.TaskUpdate{Status: status("paused")},
			wantErr: true, field: "status", tag: "task_status",
		},
		{
			name:    "task priority invalid",
			input:   &models.TaskUpdate{Priority: status("urgent")},
			wantErr: true, field: "priority", tag: "task_priority",
		},
		{
			name:  "study days valid",
			input: &models.StudyTime{DaysToStudy: []string{"mon", "Fri"}},
		},
		{
			name:    "study day invalid",
			input:   &models.StudyTime{DaysToStudy: []string{"Monday"}},
			wantErr: true, field: "days_to_study[0]", tag: "week_day",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), err)
			}
			if errs[0].Field() != tt.field {
				t.Errorf("field = %q, want %q", errs[0].Field(), tt.field)
			}
			if errs[0].Tag() != tt.tag {
				t.Errorf("tag = %q, want %q", errs[0].Tag(), tt.tag)
			}
		})
	}
}

func TestValidateStruct_BuiltinTags(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		message string
	}{
		{"required title", &models.CourseCreate{}, "title is required"},
		{"string max", &models.NameCreate{Name: strings.Repeat("x", 201)}, "name must be at most 200 characters"},
		{"progress lte", &models.TaskCreate{Task: "t", Progress: 101}, "progress must be less than or equal to 100"},
		{"url", &models.IngestRequest{URL: "not a url"}, "url must be a valid absolute URL"},
		{"batch min", &models.BatchIngestRequest{URLs: []string{}}, "urls must be at least 1 items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://go.dev/blog/pipelines"); err != nil {
		t.Errorf("expected valid URL, got %v", err)
	}
	if err := ValidateURL(""); err == nil {
		t.Error("expected error for empty URL")
	}
	if err := ValidateURL("ftp//broken"); err == nil {
		t.Error("expected error for malformed URL")
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := ValidateStruct(&models.NameCreate{})
		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("code = %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "name" {
			t.Errorf("details field = %v", apiErr.Details["field"])
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := ValidateStruct(&models.SubcategoryCreate{})
		apiErr := err.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("expected 2 field entries, got %v", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, "name: name is required") {
			t.Errorf("message = %q", apiErr.Message)
		}
	})

	t.Run("empty", func(t *testing.T) {
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("message = %q", apiErr.Message)
		}
	})
}
