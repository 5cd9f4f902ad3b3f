// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/techstack/internal/config"
	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/ingest"
	"github.com/tomtom215/techstack/internal/llm"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "json",
		Output: io.Discard,
	})
}

// DuckDB allocates its buffer pool per instance; limit how many tests hold
// one at a time.
var (
	testDBSemaphore = make(chan struct{}, 4)
	testDBMutex     sync.Mutex
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	testDBMutex.Lock()
	db, err := database.New(&config.DatabaseConfig{
		Driver:       config.DriverDuckDB,
		Path:         ":memory:",
		MaxMemory:    "512MB",
		SeedTaxonomy: true,
	})
	testDBMutex.Unlock()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitDisabled: true,
		},
	}
}

// testServer bundles a handler with its router and fakes.
type testServer struct {
	handler  *Handler
	router   http.Handler
	taxonomy *fakeTaxonomy
}

// setupTestServer builds a handler on a fresh database without ingest or a
// language model. Options run before the router is built.
func setupTestServer(t *testing.T, opts ...func(*testServer)) *testServer {
	t.Helper()
	cfg := testConfig()
	ts := &testServer{
		handler:  NewHandler(setupTestDB(t), cfg, nil),
		taxonomy: &fakeTaxonomy{},
	}
	ts.handler.taxonomy = ts.taxonomy
	for _, opt := range opts {
		opt(ts)
	}
	ts.router = NewRouter(ts.handler, ChiMiddlewareConfigFrom(cfg.Security)).SetupChi()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return &resp
}

func checkStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

func checkErrorCode(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	resp := decodeResponse(t, w)
	if resp.Status != "error" || resp.Error == nil {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	if resp.Error.Code != want {
		t.Errorf("error code = %q, want %q", resp.Error.Code, want)
	}
}

// dataMap returns the envelope's data as an object.
func dataMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	resp := decodeResponse(t, w)
	m, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is not an object: %s", w.Body.String())
	}
	return m
}

// dataList returns the envelope's data as an array.
func dataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	resp := decodeResponse(t, w)
	l, ok := resp.Data.([]interface{})
	if !ok {
		t.Fatalf("data is not an array: %s", w.Body.String())
	}
	return l
}

// idOf returns the numeric id of a created entity.
func idOf(t *testing.T, w *httptest.ResponseRecorder) int64 {
	t.Helper()
	id, ok := dataMap(t, w)["id"].(float64)
	if !ok {
		t.Fatalf("no id in %s", w.Body.String())
	}
	return int64(id)
}

type fakeTaxonomy struct {
	calls atomic.Int32
}

func (f *fakeTaxonomy) InvalidateTaxonomy() { f.calls.Add(1) }

type fakeLLM struct {
	task       *models.TaskMetadata
	categories []models.CategorySuggestion
	err        error
}

func (f *fakeLLM) GenerateTask(context.Context, llm.TaskInput) (*models.TaskMetadata, error) {
	return f.task, f.err
}

func (f *fakeLLM) ClassifyCourse(context.Context, llm.CourseInput, []string) ([]models.CategorySuggestion, error) {
	return f.categories, f.err
}

// fakeIngest records submissions and returns canned results.
type fakeIngest struct {
	mu        sync.Mutex
	submitted []string
	jobs      map[string]*models.IngestJob
	err       error
	run       func(ctx context.Context, rawURL string, fn ingest.ProgressFunc) (*models.IngestResult, error)
}

func newFakeIngest() *fakeIngest {
	return &fakeIngest{jobs: make(map[string]*models.IngestJob)}
}

func (f *fakeIngest) newJob(rawURL string) *models.IngestJob {
	now := time.Now()
	job := &models.IngestJob{
		ID:        "job-" + rawURL[strings.LastIndex(rawURL, "/")+1:],
		URL:       rawURL,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.jobs[job.ID] = job
	f.submitted = append(f.submitted, rawURL)
	return job
}

func (f *fakeIngest) Submit(_ context.Context, rawURL string) (*models.IngestJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.newJob(rawURL), nil
}

func (f *fakeIngest) SubmitBatch(_ context.Context, urls []string) ([]*models.IngestJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	jobs := make([]*models.IngestJob, 0, len(urls))
	for _, u := range urls {
		jobs = append(jobs, f.newJob(u))
	}
	return jobs, nil
}

func (f *fakeIngest) Get(_ context.Context, id string) (*models.IngestJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, ingest.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeIngest) List(_ context.Context, limit int) ([]*models.IngestJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.IngestJob, 0, len(f.jobs))
	for _, job := range f.jobs {
		if len(out) == limit {
			break
		}
		out = append(out, job)
	}
	return out, nil
}

func (f *fakeIngest) QueueDepth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func (f *fakeIngest) RunNow(ctx context.Context, rawURL string, fn ingest.ProgressFunc) (*models.IngestResult, error) {
	if f.run == nil {
		return &models.IngestResult{}, nil
	}
	return f.run(ctx, rawURL, fn)
}
