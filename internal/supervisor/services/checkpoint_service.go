// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package services

import (
	"context"
	"time"

	"github.com/tomtom215/techstack/internal/logging"
)

// Checkpointer is satisfied by *database.DB.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService flushes the database WAL on an interval and once more
// on shutdown, so a restart replays as little as possible. Failures are
// logged and retried on the next tick rather than restarting the service.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
	name     string
}

// NewCheckpointService creates the service. A non-positive interval
// defaults to five minutes.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CheckpointService{db: db, interval: interval, name: "db-checkpoint"}
}

// Serve implements suture.Service.
func (c *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush with a fresh deadline; ctx is already canceled.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			c.checkpoint(flushCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			c.checkpoint(ctx)
		}
	}
}

func (c *CheckpointService) checkpoint(ctx context.Context) {
	start := time.Now()
	if err := c.db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("database checkpoint failed")
		return
	}
	logging.Debug().Dur("duration", time.Since(start)).Msg("database checkpoint complete")
}

func (c *CheckpointService) String() string {
	return c.name
}
