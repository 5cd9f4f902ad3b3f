// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for URLs that fail request validation.
	ErrInvalidURL = errors.New("invalid url")

	// ErrQueueFull is returned when the worker queue cannot take another job.
	ErrQueueFull = errors.New("ingest queue is full")

	// ErrBatchTooLarge is returned when a batch exceeds the configured limit.
	ErrBatchTooLarge = errors.New("too many urls in batch")

	// ErrJobNotFound is returned by JobStore.Get for unknown IDs.
	ErrJobNotFound = errors.New("ingest job not found")
)

// StageError is a failure that aborted a pipeline run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
