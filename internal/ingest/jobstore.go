// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/techstack/internal/models"
)

const jobKeyPrefix = "ingest_job:"

// JobStore persists ingest jobs.
type JobStore interface {
	Save(ctx context.Context, job *models.IngestJob) error
	Get(ctx context.Context, id string) (*models.IngestJob, error)
	// List returns up to limit jobs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*models.IngestJob, error)
	Close() error
}

// BadgerJobStore keeps jobs in BadgerDB so they survive restarts. Finished
// jobs expire after the retention period.
type BadgerJobStore struct {
	db        *badger.DB
	retention time.Duration
}

// OpenBadgerJobStore opens (or creates) the job database at path.
func OpenBadgerJobStore(path string, retention time.Duration) (*BadgerJobStore, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create job store directory: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	return NewBadgerJobStore(db, retention), nil
}

// NewBadgerJobStore wraps an open BadgerDB instance.
func NewBadgerJobStore(db *badger.DB, retention time.Duration) *BadgerJobStore {
	return &BadgerJobStore{db: db, retention: retention}
}

// Save writes the job. Terminal jobs get the retention TTL.
func (s *BadgerJobStore) Save(_ context.Context, job *models.IngestJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(jobKeyPrefix+job.ID), data)
		if job.Terminal() && s.retention > 0 {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	})
}

// Get returns the job or ErrJobNotFound.
func (s *BadgerJobStore) Get(_ context.Context, id string) (*models.IngestJob, error) {
	var job models.IngestJob

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(jobKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("get job: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &job)
		})
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns stored jobs, newest first.
func (s *BadgerJobStore) List(_ context.Context, limit int) ([]*models.IngestJob, error) {
	var jobs []*models.IngestJob

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(jobKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var job models.IngestJob
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &job)
			})
			if err != nil {
				return err
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return newestFirst(jobs, limit), nil
}

// Close closes the underlying database.
func (s *BadgerJobStore) Close() error {
	return s.db.Close()
}

// MemoryJobStore keeps jobs in memory. Terminal jobs older than the
// retention period are pruned on Save.
type MemoryJobStore struct {
	mu        sync.RWMutex
	jobs      map[string]models.IngestJob
	retention time.Duration
}

// NewMemoryJobStore creates an empty in-memory store.
func NewMemoryJobStore(retention time.Duration) *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]models.IngestJob), retention: retention}
}

// Save stores a copy of the job.
func (s *MemoryJobStore) Save(_ context.Context, job *models.IngestJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = *job
	if s.retention > 0 {
		cutoff := time.Now().Add(-s.retention)
		for id, j := range s.jobs {
			if j.Terminal() && j.UpdatedAt.Before(cutoff) {
				delete(s.jobs, id)
			}
		}
	}
	return nil
}

// Get returns a copy of the job or ErrJobNotFound.
func (s *MemoryJobStore) Get(_ context.Context, id string) (*models.IngestJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

// List returns copies of stored jobs, newest first.
func (s *MemoryJobStore) List(_ context.Context, limit int) ([]*models.IngestJob, error) {
	s.mu.RLock()
	jobs := make([]*models.IngestJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		j := j
		jobs = append(jobs, &j)
	}
	s.mu.RUnlock()

	return newestFirst(jobs, limit), nil
}

// Close is a no-op.
func (s *MemoryJobStore) Close() error { return nil }

func newestFirst(jobs []*models.IngestJob, limit int) []*models.IngestJob {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs
}

// failInterrupted marks jobs left queued or running by a previous process
// as failed. It returns how many jobs it changed.
func failInterrupted(ctx context.Context, store JobStore, now time.Time) (int, error) {
	jobs, err := store.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, job := range jobs {
		if job.Terminal() {
			continue
		}
		job.Status = models.JobFailed
		job.Error = "interrupted by restart"
		job.UpdatedAt = now
		if err := store.Save(ctx, job); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
