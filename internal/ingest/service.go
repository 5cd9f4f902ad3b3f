// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/techstack/internal/cache"
	"github.com/tomtom215/techstack/internal/config"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/metrics"
	"github.com/tomtom215/techstack/internal/models"
	"github.com/tomtom215/techstack/internal/validation"
)

// Websocket message types broadcast by the service.
const (
	EventProgress  = "ingest_progress"
	EventCompleted = "ingest_completed"
	EventFailed    = "ingest_failed"
)

// Runner executes one ingestion. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, rawURL string, progress ProgressFunc) (*models.IngestResult, error)
}

// Broadcaster fans job events out to websocket clients.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// JobEvent is the payload of every ingest_* websocket message.
type JobEvent struct {
	JobID    string               `json:"job_id"`
	URL      string               `json:"url"`
	Status   string               `json:"status"`
	Progress int                  `json:"progress"`
	Stage    string               `json:"stage"`
	Error    string               `json:"error,omitempty"`
	Result   *models.IngestResult `json:"result,omitempty"`
}

// Service runs ingest jobs on a bounded worker pool.
type Service struct {
	runner Runner
	store  JobStore
	hub    Broadcaster
	cfg    config.IngestConfig
	queue  chan *models.IngestJob
	recent *cache.LRUCache // URL -> job ID, nil when dedup is off
	now    func() time.Time

	// submitMu serializes enqueues so a batch can reserve queue capacity.
	submitMu sync.Mutex
}

// NewService creates a Service. hub may be nil.
func NewService(runner Runner, store JobStore, hub Broadcaster, cfg config.IngestConfig, cacheCfg config.CacheConfig) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	s := &Service{
		runner: runner,
		store:  store,
		hub:    hub,
		cfg:    cfg,
		queue:  make(chan *models.IngestJob, cfg.QueueSize),
		now:    time.Now,
	}
	if cacheCfg.RecentURLWindow > 0 {
		s.recent = cache.NewLRUCache(cacheCfg.RecentURLCapacity, cacheCfg.RecentURLWindow)
	}
	return s
}

// Submit queues rawURL. A URL already submitted within the recent-URL
// window returns the existing job unless that job failed.
func (s *Service) Submit(ctx context.Context, rawURL string) (*models.IngestJob, error) {
	rawURL = strings.TrimSpace(rawURL)
	if verr := validation.ValidateURL(rawURL); verr != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	job, existing := s.newJob(ctx, rawURL)
	if existing {
		return job, nil
	}
	if err := s.store.Save(ctx, job); err != nil {
		s.forget(rawURL, job.ID)
		return nil, fmt.Errorf("save job: %w", err)
	}

	// The worker owns job from here on.
	snapshot := *job
	if !s.enqueue(job) {
		s.forget(rawURL, job.ID)
		s.finish(ctx, job, nil, ErrQueueFull)
		return nil, ErrQueueFull
	}

	logging.Ctx(ctx).Info().Str("job_id", job.ID).Str("url", rawURL).Msg("ingest queued")
	return &snapshot, nil
}

// SubmitBatch queues every URL, returning jobs in input order. Either every
// URL is queued or none is: URLs are validated and queue capacity for the
// whole batch is reserved before any job is stored. Repeated URLs share a
// job.
func (s *Service) SubmitBatch(ctx context.Context, urls []string) ([]*models.IngestJob, error) {
	if s.cfg.MaxBatch > 0 && len(urls) > s.cfg.MaxBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(urls), s.cfg.MaxBatch)
	}
	cleaned := make([]string, len(urls))
	for i, u := range urls {
		cleaned[i] = strings.TrimSpace(u)
		if verr := validation.ValidateURL(cleaned[i]); verr != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidURL, u)
		}
	}

	// Workers only drain the queue, so free capacity cannot shrink while
	// submitMu is held.
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	jobs := make([]*models.IngestJob, len(cleaned))
	byURL := make(map[string]*models.IngestJob, len(cleaned))
	var fresh []*models.IngestJob
	for i, u := range cleaned {
		if job, ok := byURL[u]; ok {
			jobs[i] = job
			continue
		}
		job, existing := s.newJob(ctx, u)
		byURL[u] = job
		jobs[i] = job
		if !existing {
			fresh = append(fresh, job)
		}
	}

	if free := cap(s.queue) - len(s.queue); len(fresh) > free {
		for _, job := range fresh {
			s.forget(job.URL, job.ID)
		}
		logging.Ctx(ctx).Warn().Int("needed", len(fresh)).Int("free", free).Msg("ingest batch rejected, queue full")
		return nil, fmt.Errorf("%w: batch needs %d slots, %d free", ErrQueueFull, len(fresh), free)
	}

	for i, job := range fresh {
		if err := s.store.Save(ctx, job); err != nil {
			for _, saved := range fresh[:i] {
				s.finish(ctx, saved, nil, err)
			}
			for _, j := range fresh {
				s.forget(j.URL, j.ID)
			}
			return nil, fmt.Errorf("save job: %w", err)
		}
	}

	out := make([]*models.IngestJob, len(jobs))
	for i, job := range jobs {
		snapshot := *job
		out[i] = &snapshot
	}
	for _, job := range fresh {
		if !s.enqueue(job) {
			s.forget(job.URL, job.ID)
			s.finish(ctx, job, nil, ErrQueueFull)
		}
	}

	logging.Ctx(ctx).Info().Int("urls", len(cleaned)).Int("queued", len(fresh)).Msg("ingest batch queued")
	return out, nil
}

// newJob returns the live job for rawURL when the recent-URL window holds
// one, otherwise a new queued job that is not yet stored. Callers hold
// submitMu.
func (s *Service) newJob(ctx context.Context, rawURL string) (*models.IngestJob, bool) {
	id := uuid.NewString()
	if s.recent != nil {
		if existing, loaded := s.recent.GetOrAdd(rawURL, id); loaded {
			job, err := s.store.Get(ctx, existing)
			if err == nil && job.Status != models.JobFailed {
				logging.Ctx(ctx).Debug().Str("url", rawURL).Str("job_id", job.ID).Msg("ingest deduplicated")
				return job, true
			}
			s.recent.Add(rawURL, id)
		}
	}

	now := s.now().UTC()
	return &models.IngestJob{
		ID:        id,
		URL:       rawURL,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, false
}

func (s *Service) enqueue(job *models.IngestJob) bool {
	select {
	case s.queue <- job:
		metrics.IngestJobsQueued.Inc()
		return true
	default:
		return false
	}
}

// RunNow runs rawURL on the caller's goroutine, recording it as a job, and
// forwards progress to fn as well as to the hub.
func (s *Service) RunNow(ctx context.Context, rawURL string, fn ProgressFunc) (*models.IngestResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if verr := validation.ValidateURL(rawURL); verr != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	now := s.now().UTC()
	job := &models.IngestJob{
		ID:        uuid.NewString(),
		URL:       rawURL,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.process(ctx, job, fn)
}

// Get returns a job by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.IngestJob, error) {
	return s.store.Get(ctx, id)
}

// List returns recent jobs, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]*models.IngestJob, error) {
	return s.store.List(ctx, limit)
}

// QueueDepth returns the number of jobs waiting for a worker.
func (s *Service) QueueDepth() int {
	return len(s.queue)
}

// RecoverInterrupted marks jobs a previous process left queued or running
// as failed. Call it once at startup, before anything is submitted.
func (s *Service) RecoverInterrupted(ctx context.Context) (int, error) {
	n, err := failInterrupted(ctx, s.store, s.now().UTC())
	if err != nil {
		return n, fmt.Errorf("recover interrupted jobs: %w", err)
	}
	if n > 0 {
		logging.Info().Int("jobs", n).Msg("marked interrupted ingest jobs as failed")
	}
	return n, nil
}

// Serve runs the worker pool until ctx is canceled. It implements
// suture.Service; queued jobs survive a restart of Serve.
func (s *Service) Serve(ctx context.Context) error {
	logging.Info().Int("workers", s.cfg.Workers).Int("queue_size", cap(s.queue)).Msg("ingest workers started")

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()

	logging.Info().Str("component", "ingest-service").Msg("ingest workers stopped")
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (s *Service) String() string {
	return "ingest-service"
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			metrics.IngestJobsQueued.Dec()
			if _, err := s.process(ctx, job, nil); err != nil && ctx.Err() == nil {
				logging.Ctx(ctx).Debug().Err(err).Str("job_id", job.ID).Msg("ingest job failed")
			}
		}
	}
}

// process runs one job through the pipeline and records every transition.
func (s *Service) process(ctx context.Context, job *models.IngestJob, fn ProgressFunc) (*models.IngestResult, error) {
	ctx = logging.ContextWithJobID(ctx, job.ID)

	job.Status = models.JobRunning
	job.UpdatedAt = s.now().UTC()
	s.save(ctx, job)

	result, err := s.runner.Run(ctx, job.URL, func(p models.Progress) {
		job.Progress = p.Progress
		job.Stage = p.Stage
		job.UpdatedAt = s.now().UTC()
		s.save(ctx, job)
		s.broadcast(EventProgress, job, nil)
		if fn != nil {
			fn(p)
		}
	})
	if err != nil {
		s.forget(job.URL, job.ID)
	}
	s.finish(ctx, job, result, err)
	return result, err
}

// finish stores the final state of job and announces it.
func (s *Service) finish(ctx context.Context, job *models.IngestJob, result *models.IngestResult, err error) {
	job.UpdatedAt = s.now().UTC()
	if err != nil {
		job.Status = models.JobFailed
		job.Error = err.Error()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logging.Ctx(ctx).Warn().Err(err).Str("url", job.URL).Msg("ingest canceled")
		} else {
			logging.Ctx(ctx).Error().Err(err).Str("url", job.URL).Msg("ingest failed")
		}
		metrics.RecordIngestJob(models.JobFailed)
		s.save(context.WithoutCancel(ctx), job)
		s.broadcast(EventFailed, job, nil)
		return
	}

	job.Status = models.JobCompleted
	job.Progress = 100
	job.Stage = MessageCompleted
	job.Result = result
	metrics.RecordIngestJob(models.JobCompleted)
	s.save(ctx, job)
	s.broadcast(EventCompleted, job, result)
}

func (s *Service) save(ctx context.Context, job *models.IngestJob) {
	if err := s.store.Save(ctx, job); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("job_id", job.ID).Msg("failed to persist ingest job")
	}
}

func (s *Service) broadcast(eventType string, job *models.IngestJob, result *models.IngestResult) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastJSON(eventType, JobEvent{
		JobID:    job.ID,
		URL:      job.URL,
		Status:   job.Status,
		Progress: job.Progress,
		Stage:    job.Stage,
		Error:    job.Error,
		Result:   result,
	})
}

// forget lets a URL be submitted again after its job failed.
func (s *Service) forget(rawURL, id string) {
	if s.recent == nil {
		return
	}
	if current, ok := s.recent.Get(rawURL); ok && current == id {
		s.recent.Remove(rawURL)
	}
}
