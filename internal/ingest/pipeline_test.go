// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package ingest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/techstack/internal/cache"
	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/llm"
	"github.com/tomtom215/techstack/internal/models"
	"github.com/tomtom215/techstack/internal/scraper"
)

const testURL = "https://blog.example.com/posts/chi-routing"

type fakeFetcher struct {
	page *scraper.Page
	err  error
	wait bool // block until the context is done
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*scraper.Page, error) {
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	p.URL = rawURL
	return &p, nil
}

type fakeEnricher struct {
	resource *models.ResourceMetadata
	lesson   *models.LessonMetadata
	task     *models.TaskMetadata
	err      error

	mu        sync.Mutex
	taxonomy  models.Taxonomy
	taskInput llm.TaskInput
}

func (f *fakeEnricher) EnrichResource(_ context.Context, _ llm.ResourceInput) (*models.ResourceMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.resource
	return &r, nil
}

func (f *fakeEnricher) EnrichLesson(_ context.Context, _, _ string, tax models.Taxonomy) (*models.LessonMetadata, error) {
	f.mu.Lock()
	f.taxonomy = tax
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	l := *f.lesson
	return &l, nil
}

func (f *fakeEnricher) GenerateTask(_ context.Context, in llm.TaskInput) (*models.TaskMetadata, error) {
	f.mu.Lock()
	f.taskInput = in
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t := *f.task
	return &t, nil
}

type fakeStore struct {
	tax     models.Taxonomy
	saveErr error

	mu            sync.Mutex
	taxonomyCalls int
	saved         []database.IngestRecord
}

func (s *fakeStore) Taxonomy(context.Context) (models.Taxonomy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxonomyCalls++
	return s.tax, nil
}

func (s *fakeStore) SaveIngest(_ context.Context, rec database.IngestRecord) (*database.IngestIDs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = append(s.saved, rec)
	return &database.IngestIDs{ResourceID: 1, SourceID: 2, LessonID: 3, TaskID: 4, Created: len(s.saved) == 1}, nil
}

func (s *fakeStore) lastSaved(t *testing.T) database.IngestRecord {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		t.Fatal("nothing saved")
	}
	return s.saved[len(s.saved)-1]
}

func testPage() *scraper.Page {
	return &scraper.Page{
		Title:       "Routing with chi",
		SiteName:    "Example Blog",
		Description: "How chi routes requests.",
		Authors:     []string{"Ada Lovelace"},
		PublishedAt: "2024-03-01T10:00:00Z",
		FaviconURL:  "https://blog.example.com/favicon.ico",
		ImageURL:    "https://blog.example.com/cover.png",
		Text:        "chi is a lightweight router for building Go HTTP services.",
	}
}

func testEnricher() *fakeEnricher {
	return &fakeEnricher{
		resource: &models.ResourceMetadata{
			ResourceTitle:       "Routing with chi",
			ResourceDescription: "A deep dive into chi routing.",
			ResourceType:        "Article",
			ResourceURL:         "https://elsewhere.example.com/",
			SourceName:          "Example Blog",
			SourceType:          "Blog",
			SourceURL:           "https://blog.example.com",
			PublicationName:     "Engineering",
			ResourceImageURL:    "https://cdn.example.com/model-image.png",
			ResourceAuthors:     []string{"Someone Else"},
		},
		lesson: &models.LessonMetadata{
			LessonTitle:       "chi routing",
			LessonDescription: "Learn chi's routing tree.",
			EstimatedDuration: "PT1H30M",
			Level:             "Intermediate",
			Categories: []models.CategoryAssignment{
				{Category: "backend", Subcategories: []string{"api framework"}},
			},
			Technologies: []models.TechnologyAssignment{{Name: "chi", Subcategory: "API Framework"}},
			Topics:       []string{"routing"},
		},
		task: &models.TaskMetadata{
			TaskName:        `Read "Routing with chi"`,
			TaskDescription: "Build a router.",
			TaskType:        "implementation",
			TaskStatus:      "not_started",
			TaskPriority:    "High",
		},
	}
}

func newTestPipeline(f Fetcher, e Enricher, s Store) *Pipeline {
	return NewPipeline(f, e, s, nil, 0)
}

func TestPipelineReportsStagesInOrder(t *testing.T) {
	t.Parallel()

	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := newTestPipeline(&fakeFetcher{page: testPage()}, testEnricher(), store)

	var frames []models.Progress
	res, err := p.Run(context.Background(), testURL, func(pr models.Progress) {
		frames = append(frames, pr)
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []models.Progress{
		{Progress: 10, Stage: MessageResource},
		{Progress: 33, Stage: MessageLesson},
		{Progress: 84, Stage: MessageTask},
		{Progress: 95, Stage: MessageSave},
		{Progress: 100, Stage: MessageCompleted},
	}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("frames = %+v\nwant %+v", frames, want)
	}
	if res.LessonID != 3 || res.TaskID != 4 || !res.Created {
		t.Errorf("result ids = %+v", res)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestPipelineMergesScrapedValues(t *testing.T) {
	t.Parallel()

	page := testPage()
	page.IsPDF = true
	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := newTestPipeline(&fakeFetcher{page: page}, testEnricher(), store)

	if _, err := p.Run(context.Background(), testURL, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r := store.lastSaved(t).Resource

	checks := []struct{ name, got, want string }{
		{"resource_url", r.ResourceURL, testURL},
		{"resource_type", r.ResourceType, scraper.TypePDF},
		{"resource_image_url", r.ResourceImageURL, page.ImageURL},
		{"source_image_url", r.SourceImageURL, page.FaviconURL},
		{"resource_description", r.ResourceDescription, "A deep dive into chi routing."},
		{"source_type", r.SourceType, "Blog"},
		{"publication_name", r.PublicationName, "Engineering"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if !reflect.DeepEqual(r.ResourceAuthors, []string{"Ada Lovelace"}) {
		t.Errorf("authors = %v, want scraped authors", r.ResourceAuthors)
	}
}

func TestPipelineValidatesAgainstTaxonomy(t *testing.T) {
	t.Parallel()

	e := testEnricher()
	e.lesson.Level = "Guru"
	e.lesson.Categories = []models.CategoryAssignment{
		{Category: "Backend", Subcategories: []string{"api framework", "Kubernetes"}},
		{Category: "Gardening", Subcategories: []string{"Roses"}},
	}
	e.lesson.Technologies = []models.TechnologyAssignment{
		{Name: "chi", Subcategory: "API Framework"},
		{Name: "Helm", Subcategory: "Kubernetes"},
		{Name: "Mystery", Subcategory: "Nonsense"},
	}
	e.task.TaskType = "homework"
	e.task.TaskStatus = "Not Started"
	e.task.TaskPriority = "urgent"

	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := newTestPipeline(&fakeFetcher{page: testPage()}, e, store)

	res, err := p.Run(context.Background(), testURL, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := store.lastSaved(t)

	wantCats := []models.CategoryAssignment{{Category: "Backend", Subcategories: []string{"API Framework"}}}
	if !reflect.DeepEqual(rec.Lesson.Categories, wantCats) {
		t.Errorf("categories = %+v", rec.Lesson.Categories)
	}
	wantTech := []models.TechnologyAssignment{
		{Name: "chi", Subcategory: "API Framework"},
		{Name: "Helm", Subcategory: "Kubernetes"},
		{Name: "Mystery", Subcategory: ""},
	}
	if !reflect.DeepEqual(rec.Lesson.Technologies, wantTech) {
		t.Errorf("technologies = %+v", rec.Lesson.Technologies)
	}
	if rec.Lesson.Level != models.LevelUnknown {
		t.Errorf("level = %q", rec.Lesson.Level)
	}
	if rec.Task.TaskType != models.TaskTypeLearning || rec.Task.TaskStatus != models.TaskStatusNotStarted || rec.Task.TaskPriority != models.TaskPriorityMedium {
		t.Errorf("task enums = %q/%q/%q", rec.Task.TaskType, rec.Task.TaskStatus, rec.Task.TaskPriority)
	}

	// Kubernetes under Backend, Gardening, Mystery's subcategory, level,
	// task type and priority.
	if len(res.Warnings) != 6 {
		t.Errorf("warnings = %d: %v", len(res.Warnings), res.Warnings)
	}
}

func TestPipelineFallsBackWhenModelFails(t *testing.T) {
	t.Parallel()

	e := testEnricher()
	e.err = errors.New("model unavailable")
	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := newTestPipeline(&fakeFetcher{page: testPage()}, e, store)

	res, err := p.Run(context.Background(), testURL, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := store.lastSaved(t)

	if rec.Resource.ResourceTitle != "Routing with chi" || rec.Resource.ResourceType != "Article" {
		t.Errorf("resource = %+v", rec.Resource)
	}
	if rec.Resource.SourceName != "Example Blog" || rec.Resource.SourceURL != "https://blog.example.com" {
		t.Errorf("source = %q %q", rec.Resource.SourceName, rec.Resource.SourceURL)
	}
	if rec.Lesson.LessonTitle != "Routing with chi" || rec.Lesson.LessonDescription != "How chi routes requests." {
		t.Errorf("lesson = %+v", rec.Lesson)
	}
	if len(rec.Lesson.Categories) != 0 || len(rec.Lesson.Technologies) != 0 {
		t.Errorf("fallback lesson should have no links: %+v", rec.Lesson)
	}
	if rec.Task.TaskName != `Read "Routing with chi"` {
		t.Errorf("task name = %q", rec.Task.TaskName)
	}
	if len(res.Warnings) != 3 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestPipelineWithoutModel(t *testing.T) {
	t.Parallel()

	page := testPage()
	page.VideoID = "dQw4w9WgXcQ"
	page.SiteName = ""
	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := newTestPipeline(&fakeFetcher{page: page}, nil, store)

	res, err := p.Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := store.lastSaved(t)

	if rec.Resource.ResourceType != scraper.TypeVideo || rec.Resource.SourceName != "youtube.com" {
		t.Errorf("resource = %+v", rec.Resource)
	}
	if rec.VideoURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("video url = %q", rec.VideoURL)
	}
	if rec.Task.TaskName != `Watch "Routing with chi"` {
		t.Errorf("task name = %q", rec.Task.TaskName)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestPipelineConvertsDurationAndDate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := newTestPipeline(&fakeFetcher{page: testPage()}, testEnricher(), store)

	if _, err := p.Run(context.Background(), testURL, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := store.lastSaved(t)

	if rec.LessonMinutes != 90 {
		t.Errorf("minutes = %d, want 90", rec.LessonMinutes)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if rec.PublishedAt == nil || !rec.PublishedAt.Equal(want) {
		t.Errorf("published_at = %v, want %v", rec.PublishedAt, want)
	}
	if rec.Content != testPage().Text {
		t.Errorf("content = %q", rec.Content)
	}
}

func TestPipelineScrapeFailure(t *testing.T) {
	t.Parallel()

	upstream := fmt.Errorf("%w: status 404", scraper.ErrUpstream)
	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := newTestPipeline(&fakeFetcher{err: upstream}, testEnricher(), store)

	_, err := p.Run(context.Background(), testURL, nil)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageResource {
		t.Fatalf("expected resource StageError, got %v", err)
	}
	if !errors.Is(err, scraper.ErrUpstream) {
		t.Errorf("error should wrap ErrUpstream: %v", err)
	}
	if len(store.saved) != 0 {
		t.Error("nothing should be saved after a scrape failure")
	}
}

func TestPipelineSaveFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{tax: models.DefaultTaxonomy(), saveErr: database.ErrConflict}
	p := newTestPipeline(&fakeFetcher{page: testPage()}, testEnricher(), store)

	var last models.Progress
	_, err := p.Run(context.Background(), testURL, func(pr models.Progress) { last = pr })
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageSave {
		t.Fatalf("expected save StageError, got %v", err)
	}
	if !errors.Is(err, database.ErrConflict) {
		t.Errorf("error should wrap ErrConflict: %v", err)
	}
	if last.Progress != 95 {
		t.Errorf("last progress = %d, want 95", last.Progress)
	}
}

func TestPipelineTimeout(t *testing.T) {
	t.Parallel()

	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := NewPipeline(&fakeFetcher{wait: true}, testEnricher(), store, nil, 20*time.Millisecond)

	_, err := p.Run(context.Background(), testURL, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPipelineCachesTaxonomy(t *testing.T) {
	t.Parallel()

	c := cache.New("taxonomy", time.Minute)
	t.Cleanup(c.Stop)

	e := testEnricher()
	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := NewPipeline(&fakeFetcher{page: testPage()}, e, store, c, 0)

	for i := 0; i < 2; i++ {
		if _, err := p.Run(context.Background(), testURL, nil); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}
	if store.taxonomyCalls != 1 {
		t.Errorf("taxonomy loads = %d, want 1", store.taxonomyCalls)
	}

	p.InvalidateTaxonomy()
	if _, err := p.Run(context.Background(), testURL, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if store.taxonomyCalls != 2 {
		t.Errorf("taxonomy loads after invalidate = %d, want 2", store.taxonomyCalls)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.taxonomy) != len(models.DefaultTaxonomy()) {
		t.Errorf("enricher saw %d taxonomy nodes", len(e.taxonomy))
	}
}

func TestPipelinePassesLessonToTaskGeneration(t *testing.T) {
	t.Parallel()

	e := testEnricher()
	store := &fakeStore{tax: models.DefaultTaxonomy()}
	p := newTestPipeline(&fakeFetcher{page: testPage()}, e, store)

	if _, err := p.Run(context.Background(), testURL, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	want := llm.TaskInput{
		ResourceTitle:     "Routing with chi",
		ResourceType:      "Article",
		LessonDescription: "Learn chi's routing tree.",
	}
	if e.taskInput != want {
		t.Errorf("task input = %+v", e.taskInput)
	}
}

func TestParsePublished(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-01T10:00:00Z", "2024-03-01T10:00:00Z", true},
		{"2024-03-01T12:00:00+02:00", "2024-03-01T10:00:00Z", true},
		{"2024-03-01", "2024-03-01T00:00:00Z", true},
		{"2024-03-01 08:30:00", "2024-03-01T08:30:00Z", true},
		{"", "", false},
		{"last tuesday", "", false},
	}
	for _, tt := range tests {
		got, ok := parsePublished(tt.in)
		if ok != tt.ok {
			t.Errorf("parsePublished(%q) ok = %v", tt.in, ok)
			continue
		}
		if ok && got.Format(time.RFC3339) != tt.want {
			t.Errorf("parsePublished(%q) = %s, want %s", tt.in, got.Format(time.RFC3339), tt.want)
		}
	}
}

func TestSiteOf(t *testing.T) {
	t.Parallel()

	site, host := siteOf("https://www.example.com:8443/a/b?c=d")
	if site != "https://www.example.com:8443" || host != "example.com" {
		t.Errorf("siteOf = %q, %q", site, host)
	}
	if site, host := siteOf("not a url"); site != "" || host != "" {
		t.Errorf("siteOf(invalid) = %q, %q", site, host)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	if got := truncateRunes("héllo wörld", 5); got != "héllo" {
		t.Errorf("truncateRunes = %q", got)
	}
	if got := truncateRunes(strings.Repeat("a", 3), 5); got != "aaa" {
		t.Errorf("truncateRunes = %q", got)
	}
}
