// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/techstack/internal/cache"
	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/llm"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/metrics"
	"github.com/tomtom215/techstack/internal/models"
	"github.com/tomtom215/techstack/internal/scraper"
)

// Stage labels, also used as the stage label on metrics.
const (
	StageResource = "resource"
	StageLesson   = "lesson"
	StageTask     = "task"
	StageSave     = "save"
)

// Progress messages sent to clients.
const (
	MessageResource  = "Retrieving Resource Metadata..."
	MessageLesson    = "Constructing Lesson Metadata..."
	MessageTask      = "Constructing Task Metadata..."
	MessageSave      = "Saving..."
	MessageCompleted = "Completed"
)

const (
	taxonomyCacheKey = "taxonomy"
	defaultArticle   = "Article"
	defaultSource    = "Website"
	maxContentRunes  = 20000
)

// Fetcher retrieves and parses a page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*scraper.Page, error)
}

// Enricher derives structured metadata with a language model.
type Enricher interface {
	EnrichResource(ctx context.Context, in llm.ResourceInput) (*models.ResourceMetadata, error)
	EnrichLesson(ctx context.Context, title, text string, taxonomy models.Taxonomy) (*models.LessonMetadata, error)
	GenerateTask(ctx context.Context, in llm.TaskInput) (*models.TaskMetadata, error)
}

// Store is the persistence the pipeline needs.
type Store interface {
	Taxonomy(ctx context.Context) (models.Taxonomy, error)
	SaveIngest(ctx context.Context, rec database.IngestRecord) (*database.IngestIDs, error)
}

// ProgressFunc receives one frame per completed stage boundary.
type ProgressFunc func(models.Progress)

// Pipeline runs the ingestion stages for a single URL.
type Pipeline struct {
	fetcher  Fetcher
	enricher Enricher // nil when no model is configured
	store    Store
	taxonomy *cache.Cache
	timeout  time.Duration
}

// NewPipeline creates a Pipeline. enricher may be nil, in which case every
// stage uses its heuristic fallback. taxonomy may be nil to always read the
// taxonomy from the store. A zero timeout disables the overall deadline.
func NewPipeline(fetcher Fetcher, enricher Enricher, store Store, taxonomy *cache.Cache, timeout time.Duration) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		enricher: enricher,
		store:    store,
		taxonomy: taxonomy,
		timeout:  timeout,
	}
}

// InvalidateTaxonomy empties the taxonomy cache so the next run reloads it.
func (p *Pipeline) InvalidateTaxonomy() {
	if p.taxonomy != nil {
		p.taxonomy.Clear()
	}
}

// run carries the state of one Run call.
type run struct {
	url      string
	progress ProgressFunc
	warnings []string
}

func (r *run) report(progress int, stage string) {
	if r.progress != nil {
		r.progress(models.Progress{Progress: progress, Stage: stage})
	}
}

func (r *run) warn(ctx context.Context, stage, msg string) {
	r.warnings = append(r.warnings, msg)
	metrics.IngestWarnings.WithLabelValues(stage).Inc()
	logging.Ctx(ctx).Warn().Str("stage", stage).Str("url", r.url).Msg(msg)
}

// Run ingests rawURL. Language model failures degrade to heuristics and are
// listed in the result's warnings; scrape and save failures are returned as
// *StageError.
func (p *Pipeline) Run(ctx context.Context, rawURL string, progress ProgressFunc) (*models.IngestResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	r := &run{url: strings.TrimSpace(rawURL), progress: progress}

	if p.enricher == nil {
		r.warn(ctx, StageResource, "language model not configured, using page metadata only")
	}

	// Stage 1: scrape and taxonomy load in parallel, then resource metadata.
	r.report(10, MessageResource)
	start := time.Now()

	var (
		page *scraper.Page
		tax  models.Taxonomy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = p.fetcher.Fetch(gctx, r.url)
		if err != nil {
			return &StageError{Stage: StageResource, Err: fmt.Errorf("scrape %s: %w", r.url, err)}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tax, err = p.loadTaxonomy(gctx)
		if err != nil {
			return &StageError{Stage: StageResource, Err: fmt.Errorf("load taxonomy: %w", err)}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resource := p.resourceStage(ctx, r, page)
	metrics.RecordIngestStage(StageResource, time.Since(start))

	// Stage 2: lesson constrained to the taxonomy.
	r.report(33, MessageLesson)
	start = time.Now()
	lesson := p.lessonStage(ctx, r, page, resource, tax)
	metrics.RecordIngestStage(StageLesson, time.Since(start))

	// Stage 3: follow-up task.
	r.report(84, MessageTask)
	start = time.Now()
	task := p.taskStage(ctx, r, resource, lesson)
	metrics.RecordIngestStage(StageTask, time.Since(start))

	// Stage 4: reconcile.
	r.report(95, MessageSave)
	start = time.Now()
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageSave, Err: err}
	}
	rec := database.IngestRecord{
		URL:      r.url,
		Resource: resource,
		Lesson:   lesson,
		Content:  truncateRunes(page.Text, maxContentRunes),
		Task:     task,
	}
	if minutes, ok := llm.ParseISODuration(lesson.EstimatedDuration); ok {
		rec.LessonMinutes = minutes
	} else if lesson.EstimatedDuration != "" {
		r.warn(ctx, StageLesson, fmt.Sprintf("unparseable estimated duration %q", lesson.EstimatedDuration))
	}
	if page.VideoID != "" {
		rec.VideoURL = "https://www.youtube.com/watch?v=" + page.VideoID
	}
	if t, ok := parsePublished(resource.PublishedAt); ok {
		rec.PublishedAt = &t
	}

	ids, err := p.store.SaveIngest(ctx, rec)
	if err != nil {
		return nil, &StageError{Stage: StageSave, Err: err}
	}
	metrics.RecordIngestStage(StageSave, time.Since(start))

	r.report(100, MessageCompleted)
	logging.Ctx(ctx).Info().
		Str("url", r.url).
		Int64("resource_id", ids.ResourceID).
		Int64("lesson_id", ids.LessonID).
		Bool("created", ids.Created).
		Int("warnings", len(r.warnings)).
		Msg("ingest completed")

	return &models.IngestResult{
		ResourceID: ids.ResourceID,
		SourceID:   ids.SourceID,
		LessonID:   ids.LessonID,
		TaskID:     ids.TaskID,
		Created:    ids.Created,
		Metadata:   models.EnrichedMetadata{Resource: resource, Lesson: lesson, Task: task},
		Warnings:   r.warnings,
	}, nil
}

func (p *Pipeline) loadTaxonomy(ctx context.Context) (models.Taxonomy, error) {
	if p.taxonomy == nil {
		return p.store.Taxonomy(ctx)
	}
	v, err := p.taxonomy.GetOrLoad(ctx, taxonomyCacheKey, func(ctx context.Context) (interface{}, error) {
		return p.store.Taxonomy(ctx)
	})
	if err != nil {
		return nil, err
	}
	tax, ok := v.(models.Taxonomy)
	if !ok {
		return nil, fmt.Errorf("unexpected taxonomy cache entry %T", v)
	}
	return tax, nil
}

func (p *Pipeline) resourceStage(ctx context.Context, r *run, page *scraper.Page) models.ResourceMetadata {
	scraped := heuristicResource(r.url, page)
	if p.enricher == nil {
		return scraped
	}
	meta, err := p.enricher.EnrichResource(ctx, llm.ResourceInput{
		URL:         r.url,
		Title:       page.Title,
		Description: page.Description,
		SiteName:    page.SiteName,
		OGType:      page.OGType,
		Authors:     page.Authors,
		Text:        page.Text,
	})
	if err != nil {
		r.warn(ctx, StageResource, fmt.Sprintf("resource enrichment failed, using page metadata: %v", err))
		return scraped
	}
	return mergeResource(*meta, scraped, page)
}

func (p *Pipeline) lessonStage(ctx context.Context, r *run, page *scraper.Page, resource models.ResourceMetadata, tax models.Taxonomy) models.LessonMetadata {
	lesson := models.LessonMetadata{
		LessonTitle:       resource.ResourceTitle,
		LessonDescription: resource.ResourceDescription,
		Level:             models.LevelUnknown,
	}
	if p.enricher != nil {
		meta, err := p.enricher.EnrichLesson(ctx, resource.ResourceTitle, page.Text, tax)
		if err != nil {
			r.warn(ctx, StageLesson, fmt.Sprintf("lesson enrichment failed, using resource title: %v", err))
		} else {
			lesson = *meta
		}
	}

	lesson, warnings := validateLesson(lesson, tax)
	for _, w := range warnings {
		r.warn(ctx, StageLesson, w)
	}
	if strings.TrimSpace(lesson.LessonTitle) == "" {
		lesson.LessonTitle = resource.ResourceTitle
	}
	if strings.TrimSpace(lesson.LessonDescription) == "" {
		lesson.LessonDescription = resource.ResourceDescription
	}
	return lesson
}

func (p *Pipeline) taskStage(ctx context.Context, r *run, resource models.ResourceMetadata, lesson models.LessonMetadata) models.TaskMetadata {
	in := llm.TaskInput{
		ResourceTitle:     resource.ResourceTitle,
		ResourceType:      resource.ResourceType,
		LessonDescription: lesson.LessonDescription,
	}
	fallback := llm.HeuristicTask(in)
	task := fallback
	if p.enricher != nil {
		meta, err := p.enricher.GenerateTask(ctx, in)
		if err != nil {
			r.warn(ctx, StageTask, fmt.Sprintf("task generation failed, using %q: %v", fallback.TaskName, err))
		} else {
			task = *meta
		}
	}

	task, warnings := validateTask(task)
	for _, w := range warnings {
		r.warn(ctx, StageTask, w)
	}
	if task.TaskName == "" {
		task.TaskName = fallback.TaskName
	}
	return task
}

// heuristicResource builds resource metadata from the page alone.
func heuristicResource(rawURL string, page *scraper.Page) models.ResourceMetadata {
	sourceURL, host := siteOf(rawURL)
	sourceName := firstNonEmpty(page.SiteName, host)

	resourceType := page.ResourceType()
	if resourceType == "" {
		resourceType = defaultArticle
	}
	sourceType := defaultSource
	if page.VideoID != "" {
		sourceType = "Video Platform"
	}

	return models.ResourceMetadata{
		ResourceTitle:       firstNonEmpty(page.Title, rawURL),
		ResourceDescription: page.Description,
		ResourceType:        resourceType,
		ResourceURL:         rawURL,
		SourceName:          sourceName,
		SourceType:          sourceType,
		SourceURL:           sourceURL,
		PublicationName:     sourceName,
		ResourceImageURL:    page.ImageURL,
		ResourceAuthors:     page.Authors,
		SourceImageURL:      page.FaviconURL,
		PublishedAt:         page.PublishedAt,
	}
}

// mergeResource fills gaps in the model's answer from the page. The page
// wins outright for resource type (PDF and video detection), image,
// favicon and authors, and the requested URL is always the resource URL.
func mergeResource(meta, scraped models.ResourceMetadata, page *scraper.Page) models.ResourceMetadata {
	out := meta
	out.ResourceURL = scraped.ResourceURL

	out.ResourceTitle = firstNonEmpty(meta.ResourceTitle, scraped.ResourceTitle)
	out.ResourceDescription = firstNonEmpty(meta.ResourceDescription, scraped.ResourceDescription)
	out.SourceName = firstNonEmpty(meta.SourceName, scraped.SourceName)
	out.SourceType = firstNonEmpty(meta.SourceType, scraped.SourceType)
	out.SourceURL = firstNonEmpty(meta.SourceURL, scraped.SourceURL)
	out.PublicationName = firstNonEmpty(meta.PublicationName, out.SourceName)
	out.PublishedAt = firstNonEmpty(scraped.PublishedAt, meta.PublishedAt)

	if t := page.ResourceType(); t != "" {
		out.ResourceType = t
	} else {
		out.ResourceType = firstNonEmpty(meta.ResourceType, scraped.ResourceType)
	}
	out.ResourceImageURL = firstNonEmpty(page.ImageURL, meta.ResourceImageURL)
	out.SourceImageURL = firstNonEmpty(page.FaviconURL, meta.SourceImageURL)
	if len(page.Authors) > 0 {
		out.ResourceAuthors = page.Authors
	}
	return out
}

// siteOf returns scheme://host and the host without a www. prefix.
func siteOf(rawURL string) (site, host string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", ""
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Hostname(), "www.")
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
