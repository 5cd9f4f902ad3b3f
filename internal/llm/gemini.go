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
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/tomtom215/techstack/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider completes prompts with the Google GenAI SDK. Responses are
// requested as application/json so no fence stripping is needed.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	limiter     *rate.Limiter
}

// NewGeminiProvider creates a Gemini API client.
func NewGeminiProvider(ctx context.Context, cfg config.LLMConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini requires an API key", ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	// The shared default names an OpenAI model.
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultGeminiModel
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 60
	}

	return &GeminiProvider{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens), //nolint:gosec // bounded by config validation
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
	}, nil
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string { return config.LLMProviderGemini }

// Model returns the model name in use.
func (p *GeminiProvider) Model() string { return p.model }

// Complete sends one generate-content request.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	gcfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System+jsonInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(p.temperature),
		MaxOutputTokens:   p.maxTokens,
		ResponseMIMEType:  "application/json",
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), gcfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("no completion returned")
	}
	return text, nil
}
