// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/techstack/internal/config"
	"github.com/tomtom215/techstack/internal/models"
)

// runnerFunc adapts a function to Runner.
type runnerFunc func(ctx context.Context, rawURL string, progress ProgressFunc) (*models.IngestResult, error)

func (f runnerFunc) Run(ctx context.Context, rawURL string, progress ProgressFunc) (*models.IngestResult, error) {
	return f(ctx, rawURL, progress)
}

func succeed(ctx context.Context, rawURL string, progress ProgressFunc) (*models.IngestResult, error) {
	progress(models.Progress{Progress: 10, Stage: MessageResource})
	progress(models.Progress{Progress: 100, Stage: MessageCompleted})
	return &models.IngestResult{LessonID: 42}, nil
}

type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) BroadcastJSON(messageType string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev := data.(JobEvent)
	h.events = append(h.events, fmt.Sprintf("%s:%d", messageType, ev.Progress))
}

func (h *recordingHub) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{Workers: 2, QueueSize: 8, MaxBatch: 3}
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{RecentURLWindow: time.Minute, RecentURLCapacity: 10}
}

// startService runs the worker pool until the test ends.
func startService(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitForStatus(t *testing.T, s *Service, id, status string) *models.IngestJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.Get(context.Background(), id)
		if err == nil && job.Status == status {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := s.Get(context.Background(), id)
	t.Fatalf("job %s did not reach %s: %+v", id, status, job)
	return nil
}

func TestServiceRunsSubmittedJobs(t *testing.T) {
	t.Parallel()

	hub := &recordingHub{}
	s := NewService(runnerFunc(succeed), NewMemoryJobStore(0), hub, testIngestConfig(), testCacheConfig())
	startService(t, s)

	job, err := s.Submit(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.Status != models.JobQueued || job.ID == "" {
		t.Errorf("submitted job = %+v", job)
	}

	done := waitForStatus(t, s, job.ID, models.JobCompleted)
	if done.Progress != 100 || done.Stage != MessageCompleted || done.Result == nil || done.Result.LessonID != 42 {
		t.Errorf("completed job = %+v", done)
	}

	want := []string{"ingest_progress:10", "ingest_progress:100", "ingest_completed:100"}
	deadline := time.Now().Add(time.Second)
	for len(hub.snapshot()) < len(want) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	got := hub.snapshot()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestServiceRecordsFailures(t *testing.T) {
	t.Parallel()

	hub := &recordingHub{}
	failing := runnerFunc(func(context.Context, string, ProgressFunc) (*models.IngestResult, error) {
		return nil, &StageError{Stage: StageResource, Err: errors.New("boom")}
	})
	s := NewService(failing, NewMemoryJobStore(0), hub, testIngestConfig(), testCacheConfig())
	startService(t, s)

	job, err := s.Submit(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	failed := waitForStatus(t, s, job.ID, models.JobFailed)
	if failed.Error != "resource: boom" {
		t.Errorf("error = %q", failed.Error)
	}

	// A failed URL can be submitted again straight away.
	again, err := s.Submit(context.Background(), testURL)
	if err != nil {
		t.Fatalf("resubmit error = %v", err)
	}
	if again.ID == job.ID {
		t.Error("resubmitting a failed URL should create a new job")
	}
}

func TestServiceDeduplicatesRecentURLs(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	blocking := runnerFunc(func(ctx context.Context, _ string, _ ProgressFunc) (*models.IngestResult, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &models.IngestResult{}, nil
	})
	s := NewService(blocking, NewMemoryJobStore(0), nil, testIngestConfig(), testCacheConfig())
	startService(t, s)
	t.Cleanup(func() { close(release) })

	first, err := s.Submit(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	second, err := s.Submit(context.Background(), "  "+testURL+" ")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("duplicate submit created job %s, want %s", second.ID, first.ID)
	}

	other, _ := s.Submit(context.Background(), "https://example.com/other")
	if other.ID == first.ID {
		t.Error("different URL must get its own job")
	}
}

func TestServiceWithoutDedup(t *testing.T) {
	t.Parallel()

	s := NewService(runnerFunc(succeed), NewMemoryJobStore(0), nil, testIngestConfig(), config.CacheConfig{})
	a, _ := s.Submit(context.Background(), testURL)
	b, _ := s.Submit(context.Background(), testURL)
	if a.ID == b.ID {
		t.Error("dedup disabled: each submit should create a job")
	}
}

func TestServiceRejectsInvalidURL(t *testing.T) {
	t.Parallel()

	s := NewService(runnerFunc(succeed), NewMemoryJobStore(0), nil, testIngestConfig(), testCacheConfig())
	for _, u := range []string{"", "not a url", "ftp//broken"} {
		if _, err := s.Submit(context.Background(), u); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Submit(%q) error = %v", u, err)
		}
	}
}

func TestServiceQueueFull(t *testing.T) {
	t.Parallel()

	cfg := testIngestConfig()
	cfg.QueueSize = 1
	store := NewMemoryJobStore(0)
	s := NewService(runnerFunc(succeed), store, nil, cfg, testCacheConfig())

	if _, err := s.Submit(context.Background(), "https://example.com/1"); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if _, err := s.Submit(context.Background(), "https://example.com/2"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("second Submit() error = %v, want ErrQueueFull", err)
	}
	if s.QueueDepth() != 1 {
		t.Errorf("queue depth = %d", s.QueueDepth())
	}

	jobs, _ := store.List(context.Background(), 0)
	failed := 0
	for _, j := range jobs {
		if j.Status == models.JobFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("rejected job should be stored as failed, jobs = %+v", jobs)
	}
}

func TestServiceSubmitBatch(t *testing.T) {
	t.Parallel()

	s := NewService(runnerFunc(succeed), NewMemoryJobStore(0), nil, testIngestConfig(), testCacheConfig())

	urls := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	jobs, err := s.SubmitBatch(context.Background(), urls)
	if err != nil {
		t.Fatalf("SubmitBatch() error = %v", err)
	}
	for i, j := range jobs {
		if j.URL != urls[i] {
			t.Errorf("job %d url = %q, want %q", i, j.URL, urls[i])
		}
	}

	if _, err := s.SubmitBatch(context.Background(), append(urls, "https://example.com/d")); !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("oversized batch error = %v", err)
	}
	if _, err := s.SubmitBatch(context.Background(), []string{"https://example.com/e", "nope"}); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("invalid batch error = %v", err)
	}
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get(nope) = %v", err)
	}
}

func TestServiceSubmitBatchIsAllOrNothing(t *testing.T) {
	t.Parallel()

	cfg := testIngestConfig()
	cfg.QueueSize = 2
	store := NewMemoryJobStore(0)
	// No workers run, so queued jobs stay in the queue.
	s := NewService(runnerFunc(succeed), store, nil, cfg, testCacheConfig())

	urls := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	jobs, err := s.SubmitBatch(context.Background(), urls)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("SubmitBatch() error = %v, want ErrQueueFull", err)
	}
	if jobs != nil {
		t.Errorf("SubmitBatch() jobs = %+v, want none", jobs)
	}
	if s.QueueDepth() != 0 {
		t.Errorf("queue depth = %d, want 0", s.QueueDepth())
	}
	stored, _ := store.List(context.Background(), 0)
	if len(stored) != 0 {
		t.Errorf("stored jobs = %+v, want none", stored)
	}

	// The rejected URLs are not remembered, and a batch that fits is queued.
	jobs, err = s.SubmitBatch(context.Background(), urls[:2])
	if err != nil {
		t.Fatalf("SubmitBatch(fits) error = %v", err)
	}
	if len(jobs) != 2 || s.QueueDepth() != 2 {
		t.Fatalf("jobs = %d, queue depth = %d", len(jobs), s.QueueDepth())
	}
	for _, j := range jobs {
		if j.Status != models.JobQueued {
			t.Errorf("job %s status = %q", j.ID, j.Status)
		}
	}
}

func TestServiceSubmitBatchSharesRepeatedURLs(t *testing.T) {
	t.Parallel()

	cfg := testIngestConfig()
	cfg.QueueSize = 1
	s := NewService(runnerFunc(succeed), NewMemoryJobStore(0), nil, cfg, config.CacheConfig{})

	jobs, err := s.SubmitBatch(context.Background(), []string{"https://example.com/a", " https://example.com/a "})
	if err != nil {
		t.Fatalf("SubmitBatch() error = %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != jobs[1].ID {
		t.Errorf("repeated URL should share a job: %+v", jobs)
	}
	if s.QueueDepth() != 1 {
		t.Errorf("queue depth = %d, want 1", s.QueueDepth())
	}
}

func TestServiceRunNowForwardsProgress(t *testing.T) {
	t.Parallel()

	hub := &recordingHub{}
	store := NewMemoryJobStore(0)
	s := NewService(runnerFunc(succeed), store, hub, testIngestConfig(), testCacheConfig())

	var frames []int
	res, err := s.RunNow(context.Background(), testURL, func(p models.Progress) {
		frames = append(frames, p.Progress)
	})
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if res.LessonID != 42 || len(frames) != 2 || frames[1] != 100 {
		t.Errorf("RunNow() = %+v, frames %v", res, frames)
	}

	jobs, _ := s.List(context.Background(), 10)
	if len(jobs) != 1 || jobs[0].Status != models.JobCompleted {
		t.Errorf("RunNow should record a completed job: %+v", jobs)
	}
	if len(hub.snapshot()) != 3 {
		t.Errorf("events = %v", hub.snapshot())
	}
}

func TestServiceRecoverInterrupted(t *testing.T) {
	t.Parallel()

	store := NewMemoryJobStore(0)
	_ = store.Save(context.Background(), jobAt("left-running", models.JobRunning, time.Now()))

	s := NewService(runnerFunc(succeed), store, nil, testIngestConfig(), testCacheConfig())
	n, err := s.RecoverInterrupted(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("RecoverInterrupted() = %d, %v", n, err)
	}
	job, _ := s.Get(context.Background(), "left-running")
	if job.Status != models.JobFailed {
		t.Errorf("status = %q", job.Status)
	}
}

func TestServiceString(t *testing.T) {
	t.Parallel()

	s := NewService(runnerFunc(succeed), NewMemoryJobStore(0), nil, config.IngestConfig{}, config.CacheConfig{})
	if s.String() != "ingest-service" {
		t.Errorf("String() = %q", s.String())
	}
}
