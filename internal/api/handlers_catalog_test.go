// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/techstack/internal/models"
)

// categoryID looks up a seeded category by name through the API.
func categoryID(t *testing.T, ts *testServer, name string) int64 {
	t.Helper()
	w := ts.do(t, http.MethodGet, "/api/v1/categories", "")
	checkStatus(t, w, http.StatusOK)
	for _, item := range dataList(t, w) {
		m := item.(map[string]interface{})
		if m["name"] == name {
			return int64(m["id"].(float64))
		}
	}
	t.Fatalf("category %q not found", name)
	return 0
}

func TestLessonLifecycle(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)
	backend := categoryID(t, ts, "Backend")

	body := fmt.Sprintf(`{"title": "Channels", "level": "Beginner", "estimated_duration": 20,
		"topics": ["concurrency", "Concurrency"], "category_ids": [%d]}`, backend)
	w := ts.do(t, http.MethodPost, "/api/v1/lessons", body)
	checkStatus(t, w, http.StatusCreated)
	id := idOf(t, w)
	path := fmt.Sprintf("/api/v1/lessons/%d", id)

	w = ts.do(t, http.MethodGet, path, "")
	checkStatus(t, w, http.StatusOK)
	lesson := dataMap(t, w)
	if lesson["title"] != "Channels" {
		t.Errorf("title = %v", lesson["title"])
	}
	if cats, _ := lesson["categories"].([]interface{}); len(cats) != 1 {
		t.Errorf("categories = %v", lesson["categories"])
	}

	w = ts.do(t, http.MethodPut, path, `{"title": "Channels and select"}`)
	checkStatus(t, w, http.StatusOK)
	if got := dataMap(t, w)["title"]; got != "Channels and select" {
		t.Errorf("updated title = %v", got)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/lessons/count", "")
	if got := dataMap(t, w)["count"]; got != float64(1) {
		t.Errorf("lesson count = %v", got)
	}

	w = ts.do(t, http.MethodDelete, path, "")
	checkStatus(t, w, http.StatusOK)
	w = ts.do(t, http.MethodGet, path, "")
	checkStatus(t, w, http.StatusNotFound)

	w = ts.do(t, http.MethodPost, "/api/v1/lessons", `{"title": "x", "level": "wizard"}`)
	checkStatus(t, w, http.StatusBadRequest)
	checkErrorCode(t, w, ErrCodeValidation)
}

func TestCourseLifecycle(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/courses", `{"title": "Go in Practice", "level": "Intermediate"}`)
	checkStatus(t, w, http.StatusCreated)
	id := idOf(t, w)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/modules", id), `{"title": "Basics", "order": 1}`)
	checkStatus(t, w, http.StatusCreated)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/modules", id), "")
	checkStatus(t, w, http.StatusOK)
	if n := len(dataList(t, w)); n != 1 {
		t.Errorf("modules = %d", n)
	}

	devops := categoryID(t, ts, "DevOps")
	w = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/courses/%d/categories", id), fmt.Sprintf(`{"category_ids": [%d]}`, devops))
	checkStatus(t, w, http.StatusOK)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/details", id), "")
	checkStatus(t, w, http.StatusOK)
	details := dataMap(t, w)
	cats, _ := details["categories"].([]interface{})
	if len(cats) != 1 || cats[0].(map[string]interface{})["name"] != "DevOps" {
		t.Errorf("categories = %v", details["categories"])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/courses/9999/details", "")
	checkStatus(t, w, http.StatusNotFound)
	checkErrorCode(t, w, ErrCodeNotFound)

	w = ts.do(t, http.MethodPost, "/api/v1/courses/9999/modules", `{"title": "Orphan"}`)
	checkStatus(t, w, http.StatusNotFound)
}

func TestClassifyCourse(t *testing.T) {
	t.Parallel()

	t.Run("no model", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)
		w := ts.do(t, http.MethodPost, "/api/v1/courses/1/classify", "")
		checkStatus(t, w, http.StatusServiceUnavailable)
		checkErrorCode(t, w, ErrCodeLLMUnavailable)
	})

	t.Run("suggestions", func(t *testing.T) {
		t.Parallel()
		model := &fakeLLM{categories: []models.CategorySuggestion{{Category: "Backend", Reasoning: "server code"}}}
		ts := setupTestServer(t, func(ts *testServer) { ts.handler.SetLLM(model) })

		w := ts.do(t, http.MethodPost, "/api/v1/courses", `{"title": "Building APIs"}`)
		checkStatus(t, w, http.StatusCreated)
		id := idOf(t, w)

		w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/classify", id), "")
		checkStatus(t, w, http.StatusOK)
		got := dataList(t, w)
		if len(got) != 1 || got[0].(map[string]interface{})["category"] != "Backend" {
			t.Errorf("suggestions = %v", got)
		}
	})

	t.Run("model failure", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t, func(ts *testServer) { ts.handler.SetLLM(&fakeLLM{err: errors.New("timeout")}) })

		w := ts.do(t, http.MethodPost, "/api/v1/courses", `{"title": "Observability"}`)
		id := idOf(t, w)

		w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/classify", id), "")
		checkStatus(t, w, http.StatusBadGateway)
	})
}

func TestTaxonomyEndpoints(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/categories/tree", "")
	checkStatus(t, w, http.StatusOK)
	if n := len(dataList(t, w)); n != len(models.DefaultTaxonomy()) {
		t.Errorf("tree has %d categories, want %d", n, len(models.DefaultTaxonomy()))
	}

	backend := categoryID(t, ts, "Backend")
	w = ts.do(t, http.MethodPost, "/api/v1/subcategories", fmt.Sprintf(`{"name": "Concurrency", "category_id": %d}`, backend))
	checkStatus(t, w, http.StatusCreated)
	subID := idOf(t, w)
	if got := ts.taxonomy.calls.Load(); got != 1 {
		t.Errorf("invalidations after subcategory = %d, want 1", got)
	}

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/categories/%d/subcategories", backend), "")
	checkStatus(t, w, http.StatusOK)
	found := false
	for _, item := range dataList(t, w) {
		if item.(map[string]interface{})["name"] == "Concurrency" {
			found = true
		}
	}
	if !found {
		t.Error("new subcategory not listed under Backend")
	}

	w = ts.do(t, http.MethodPost, "/api/v1/technologies", fmt.Sprintf(`{"name": "Goroutines", "subcategory_id": %d}`, subID))
	checkStatus(t, w, http.StatusCreated)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/subcategories/%d/technologies", subID), "")
	checkStatus(t, w, http.StatusOK)
	if n := len(dataList(t, w)); n != 1 {
		t.Errorf("technologies under subcategory = %d", n)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/taxonomy/search?q=goroutine", "")
	checkStatus(t, w, http.StatusOK)
	techs, _ := dataMap(t, w)["technologies"].([]interface{})
	if len(techs) != 1 {
		t.Errorf("search technologies = %v", techs)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/taxonomy/search", "")
	checkStatus(t, w, http.StatusBadRequest)

	w = ts.do(t, http.MethodGet, "/api/v1/categories/9999/subcategories", "")
	checkStatus(t, w, http.StatusNotFound)
}

func TestCreateCategoryInvalidatesTaxonomy(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/categories", `{"name": "Mobile"}`)
	checkStatus(t, w, http.StatusCreated)
	if got := ts.taxonomy.calls.Load(); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}

	// Names compare case-insensitively; a conflict does not invalidate.
	w = ts.do(t, http.MethodPost, "/api/v1/categories", `{"name": "backend"}`)
	checkStatus(t, w, http.StatusConflict)
	checkErrorCode(t, w, ErrCodeConflict)
	if got := ts.taxonomy.calls.Load(); got != 1 {
		t.Errorf("invalidations after conflict = %d, want 1", got)
	}
}

func TestTopicsConflict(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)

	checkStatus(t, ts.do(t, http.MethodPost, "/api/v1/topics", `{"name": "generics"}`), http.StatusCreated)
	checkStatus(t, ts.do(t, http.MethodPost, "/api/v1/topics", `{"name": "Generics"}`), http.StatusConflict)
	checkStatus(t, ts.do(t, http.MethodPost, "/api/v1/topics", `{"name": ""}`), http.StatusBadRequest)
}

func TestSourcesAndResources(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/sources", `{"name": "go.dev", "source_type": "Website", "website": "https://go.dev"}`)
	checkStatus(t, w, http.StatusCreated)
	sourceID := idOf(t, w)
	checkStatus(t, ts.do(t, http.MethodPost, "/api/v1/sources", `{"name": "go.dev"}`), http.StatusConflict)

	body := fmt.Sprintf(`{"title": "Effective Go", "resource_type": "Article", "url": "https://go.dev/doc/effective_go",
		"source_id": %d, "authors": ["The Go Authors"]}`, sourceID)
	w = ts.do(t, http.MethodPost, "/api/v1/resources", body)
	checkStatus(t, w, http.StatusCreated)
	resourceID := idOf(t, w)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/resources/%d", resourceID), "")
	checkStatus(t, w, http.StatusOK)
	resource := dataMap(t, w)
	if resource["title"] != "Effective Go" || resource["resource_type"] != "Article" {
		t.Errorf("resource = %v", resource)
	}
	if authors, _ := resource["authors"].([]interface{}); len(authors) != 1 {
		t.Errorf("authors = %v", resource["authors"])
	}

	// The same URL cannot be stored twice.
	w = ts.do(t, http.MethodPost, "/api/v1/resources", `{"title": "Copy", "url": "https://go.dev/doc/effective_go"}`)
	checkStatus(t, w, http.StatusConflict)

	w = ts.do(t, http.MethodGet, "/api/v1/people", "")
	checkStatus(t, w, http.StatusOK)
	if n := len(dataList(t, w)); n != 1 {
		t.Errorf("people = %d, want the resource author", n)
	}
	checkStatus(t, ts.do(t, http.MethodPost, "/api/v1/people", `{"name": "The Go Authors"}`), http.StatusConflict)

	w = ts.do(t, http.MethodGet, "/api/v1/resources/types", "")
	checkStatus(t, w, http.StatusOK)

	w = ts.do(t, http.MethodGet, "/api/v1/resources/count", "")
	if got := dataMap(t, w)["count"]; got != float64(1) {
		t.Errorf("resource count = %v", got)
	}
	checkStatus(t, ts.do(t, http.MethodGet, "/api/v1/resources/9999", ""), http.StatusNotFound)
}
