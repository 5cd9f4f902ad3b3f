// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/techstack/internal/config"
)

var (
	// ErrNotConfigured is returned by New when no usable provider is configured.
	ErrNotConfigured = errors.New("llm provider not configured")

	// ErrInvalidResponse wraps model output that is not JSON or does not
	// match the expected schema.
	ErrInvalidResponse = errors.New("invalid llm response")
)

// jsonInstruction is appended to every system prompt.
const jsonInstruction = "\nRespond only in valid JSON format."

// Request is one chat completion.
type Request struct {
	// Operation labels metrics and logs (enrich_resource, enrich_lesson, ...).
	Operation string
	System    string
	Prompt    string
}

// Provider completes prompts against a language model.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm API returned HTTP %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether a request may succeed when repeated.
func (e *StatusError) retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// New builds the configured provider wrapped in a circuit breaker.
// It returns ErrNotConfigured when the provider is "none" or has no API key.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", config.LLMProviderNone:
		return nil, ErrNotConfigured
	case config.LLMProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: openai requires an API key", ErrNotConfigured)
		}
		p = NewOpenAIProvider(cfg)
	case config.LLMProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini requires an API key", ErrNotConfigured)
		}
		p, err = NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return NewBreakerProvider(p), nil
}
