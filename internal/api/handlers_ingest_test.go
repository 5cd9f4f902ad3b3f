// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/techstack/internal/ingest"
	"github.com/tomtom215/techstack/internal/models"
)

func withIngest(svc *fakeIngest) func(*testServer) {
	return func(ts *testServer) { ts.handler.SetIngest(svc, ts.taxonomy) }
}

func TestIngestDisabled(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/v1/ingest", `{"url": "https://example.com/a"}`},
		{http.MethodPost, "/api/v1/ingest/batch", `{"urls": ["https://example.com/a"]}`},
		{http.MethodGet, "/api/v1/ingest/jobs", ""},
		{http.MethodGet, "/api/v1/ingest/jobs/abc", ""},
		{http.MethodGet, "/api/v1/ingest/stream", ""},
	} {
		w := ts.do(t, tc.method, tc.path, tc.body)
		checkStatus(t, w, http.StatusServiceUnavailable)
		checkErrorCode(t, w, ErrCodeServiceUnavailable)
	}
}

func TestIngestAccepted(t *testing.T) {
	t.Parallel()
	svc := newFakeIngest()
	ts := setupTestServer(t, withIngest(svc))

	w := ts.do(t, http.MethodPost, "/api/v1/ingest", `{"url": "https://example.com/post"}`)
	checkStatus(t, w, http.StatusAccepted)
	accepted := dataMap(t, w)
	if accepted["job_id"] != "job-post" || accepted["status"] != models.JobQueued {
		t.Errorf("accepted = %v", accepted)
	}
	if loc := w.Header().Get("Location"); loc != "/api/v1/ingest/jobs/job-post" {
		t.Errorf("Location = %q", loc)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/ingest/jobs/job-post", "")
	checkStatus(t, w, http.StatusOK)
	if got := dataMap(t, w)["url"]; got != "https://example.com/post" {
		t.Errorf("job url = %v", got)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/ingest/jobs/missing", "")
	checkStatus(t, w, http.StatusNotFound)
	checkErrorCode(t, w, ErrCodeNotFound)

	w = ts.do(t, http.MethodPost, "/api/v1/ingest/batch", `{"urls": ["https://example.com/a", "https://example.com/b"]}`)
	checkStatus(t, w, http.StatusAccepted)
	jobs, _ := dataMap(t, w)["jobs"].([]interface{})
	if len(jobs) != 2 {
		t.Errorf("batch jobs = %v", jobs)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/ingest/jobs?limit=2", "")
	checkStatus(t, w, http.StatusOK)
	if n := len(dataList(t, w)); n != 2 {
		t.Errorf("listed %d jobs, want 2", n)
	}

	w = ts.do(t, http.MethodGet, "/health", "")
	health := dataMap(t, w)
	if health["ingest_enabled"] != true || health["ingest_queue_depth"] != float64(3) {
		t.Errorf("health = %v", health)
	}
}

func TestIngestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		path   string
		body   string
		status int
		code   string
	}{
		{"missing url", nil, "/api/v1/ingest", `{}`, http.StatusBadRequest, ErrCodeValidation},
		{"not a url", nil, "/api/v1/ingest", `{"url": "not a url"}`, http.StatusBadRequest, ErrCodeValidation},
		{"bad json", nil, "/api/v1/ingest", `{"url"`, http.StatusBadRequest, ErrCodeInvalidRequest},
		{"empty batch", nil, "/api/v1/ingest/batch", `{"urls": []}`, http.StatusBadRequest, ErrCodeValidation},
		{"rejected url", fmt.Errorf("%w: private address", ingest.ErrInvalidURL), "/api/v1/ingest", `{"url": "http://localhost/x"}`, http.StatusBadRequest, ErrCodeValidation},
		{"batch too large", ingest.ErrBatchTooLarge, "/api/v1/ingest/batch", `{"urls": ["https://example.com/a"]}`, http.StatusBadRequest, ErrCodeValidation},
		{"queue full", ingest.ErrQueueFull, "/api/v1/ingest", `{"url": "https://example.com/a"}`, http.StatusServiceUnavailable, ErrCodeQueueFull},
		{"batch exceeds free queue", fmt.Errorf("%w: batch needs 3 slots, 2 free", ingest.ErrQueueFull), "/api/v1/ingest/batch", `{"urls": ["https://example.com/a"]}`, http.StatusServiceUnavailable, ErrCodeQueueFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newFakeIngest()
			svc.err = tt.err
			ts := setupTestServer(t, withIngest(svc))

			w := ts.do(t, http.MethodPost, tt.path, tt.body)
			checkStatus(t, w, tt.status)
			checkErrorCode(t, w, tt.code)
			if tt.status == http.StatusServiceUnavailable && w.Header().Get("Retry-After") == "" {
				t.Error("Retry-After not set on a full queue")
			}
		})
	}
}

func TestIngestStreamThroughRouter(t *testing.T) {
	t.Parallel()
	svc := newFakeIngest()
	svc.run = func(_ context.Context, rawURL string, fn ingest.ProgressFunc) (*models.IngestResult, error) {
		fn(models.Progress{Progress: 10, Stage: ingest.MessageResource})
		fn(models.Progress{Progress: 100, Stage: ingest.MessageCompleted})
		return &models.IngestResult{LessonID: 4, Created: true}, nil
	}
	ts := setupTestServer(t, withIngest(svc))

	server := httptest.NewServer(ts.router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ingest/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(models.IngestRequest{URL: "https://example.com/video"}); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frames []map[string]interface{}
	for {
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		frames = append(frames, frame)
	}
	if len(frames) != 2 {
		t.Fatalf("frames = %v", frames)
	}
	if frames[0]["progress"] != float64(10) || frames[1]["progress"] != float64(100) {
		t.Errorf("progress = %v, %v", frames[0]["progress"], frames[1]["progress"])
	}
	if result, _ := frames[1]["result"].(map[string]interface{}); result["lesson_id"] != float64(4) {
		t.Errorf("result = %v", frames[1]["result"])
	}
}

func TestWebSocketWithoutHub(t *testing.T) {
	t.Parallel()
	ts := setupTestServer(t)
	w := ts.do(t, http.MethodGet, "/ws", "")
	checkStatus(t, w, http.StatusServiceUnavailable)
}

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()
	h := NewHandler(nil, testConfig(), nil)

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := h.checkWebSocketOrigin(req); got != tt.want {
			t.Errorf("checkWebSocketOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
