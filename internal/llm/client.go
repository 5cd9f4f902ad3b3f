// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/metrics"
	"github.com/tomtom215/techstack/internal/models"
)

// Operation names used for metrics labels.
const (
	OpEnrichResource = "enrich_resource"
	OpEnrichLesson   = "enrich_lesson"
	OpGenerateTask   = "generate_task"
	OpClassifyCourse = "classify_course"
)

const defaultMaxInputChars = 3000

// ResourceInput is the scraped page handed to EnrichResource.
type ResourceInput struct {
	URL         string
	Title       string
	Description string
	SiteName    string
	OGType      string
	Authors     []string
	Text        string
}

// TaskInput describes the lesson a task is generated for.
type TaskInput struct {
	ResourceTitle     string
	ResourceType      string
	LessonDescription string
}

// CourseInput describes a course to classify.
type CourseInput struct {
	Title         string
	Description   string
	ResourceTitle string
	ResourceType  string
	SourceName    string
}

// Client runs the structured enrichment prompts against a Provider.
type Client struct {
	provider Provider
	maxInput int
}

// NewClient creates a Client. Page text is cut to maxInputChars characters
// before it is sent (3000 when zero).
func NewClient(p Provider, maxInputChars int) *Client {
	if maxInputChars <= 0 {
		maxInputChars = defaultMaxInputChars
	}
	return &Client{provider: p, maxInput: maxInputChars}
}

// ProviderName returns the name of the underlying provider.
func (c *Client) ProviderName() string { return c.provider.Name() }

// complete sends one prompt, validates the reply against schema and decodes
// it into out.
func (c *Client) complete(ctx context.Context, op, system, prompt string, schema *gojsonschema.Schema, out any) error {
	start := time.Now()
	raw, err := c.provider.Complete(ctx, Request{Operation: op, System: system, Prompt: prompt})
	if err != nil {
		metrics.RecordLLMRequest(c.provider.Name(), op, "error", time.Since(start))
		return err
	}

	err = decodeValidated(raw, schema, out)
	result := "success"
	if err != nil {
		result = "invalid"
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Str("raw", truncate(raw, 500)).Msg("llm returned unusable output")
	}
	metrics.RecordLLMRequest(c.provider.Name(), op, result, time.Since(start))
	return err
}

func decodeValidated(raw string, schema *gojsonschema.Schema, out any) error {
	data, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := validateDocument(schema, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(ErrInvalidResponse, err)
	}
	return nil
}

// EnrichResource classifies a page into resource, source and publication
// metadata.
func (c *Client) EnrichResource(ctx context.Context, in ResourceInput) (*models.ResourceMetadata, error) {
	var out models.ResourceMetadata
	prompt := resourcePrompt(in, truncate(in.Text, c.maxInput))
	if err := c.complete(ctx, OpEnrichResource, resourceSystemPrompt, prompt, resourceSchema, &out); err != nil {
		return nil, err
	}
	out.ResourceAuthors = cleanList(out.ResourceAuthors)
	return &out, nil
}

// EnrichLesson derives lesson metadata, constrained to taxonomy. The result
// is not yet validated against the taxonomy; the ingest pipeline does that.
func (c *Client) EnrichLesson(ctx context.Context, title, text string, taxonomy models.Taxonomy) (*models.LessonMetadata, error) {
	tree := make(map[string][]string, len(taxonomy))
	for _, node := range taxonomy {
		tree[node.Category] = node.Subcategories
	}
	taxJSON, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}

	var out models.LessonMetadata
	prompt := lessonPrompt(title, truncate(text, c.maxInput), string(taxJSON))
	if err := c.complete(ctx, OpEnrichLesson, lessonSystemPrompt, prompt, lessonSchema, &out); err != nil {
		return nil, err
	}
	out.Topics = cleanList(out.Topics)
	return &out, nil
}

// GenerateTask proposes the follow-up task for a lesson.
func (c *Client) GenerateTask(ctx context.Context, in TaskInput) (*models.TaskMetadata, error) {
	var out models.TaskMetadata
	if err := c.complete(ctx, OpGenerateTask, taskSystemPrompt, taskPrompt(in), taskSchema, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.TaskStatus) == "" {
		out.TaskStatus = models.TaskStatusNotStarted
	}
	return &out, nil
}

// ClassifyCourse suggests categories for a course. Suggestions outside
// categories are dropped and names are returned in their canonical form.
func (c *Client) ClassifyCourse(ctx context.Context, in CourseInput, categories []string) ([]models.CategorySuggestion, error) {
	var out struct {
		Categories []models.CategorySuggestion `json:"categories"`
	}
	if err := c.complete(ctx, OpClassifyCourse, classifySystemPrompt, classifyPrompt(in, categories), classifySchema, &out); err != nil {
		return nil, err
	}

	suggestions := make([]models.CategorySuggestion, 0, len(out.Categories))
	seen := make(map[string]bool)
	for _, s := range out.Categories {
		canonical, ok := matchFold(categories, s.Category)
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		suggestions = append(suggestions, models.CategorySuggestion{Category: canonical, Reasoning: strings.TrimSpace(s.Reasoning)})
	}
	return suggestions, nil
}

func matchFold(options []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, o := range options {
		if strings.EqualFold(o, name) {
			return o, true
		}
	}
	return "", false
}

// cleanList trims entries and drops empties and case-insensitive duplicates.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.Join(strings.Fields(item), " ")
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
