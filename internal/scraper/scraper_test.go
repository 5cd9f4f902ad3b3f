// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/techstack/internal/config"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>  Routing in   Go 1.22 </title>
  <meta property="og:site_name" content="The Go Blog">
  <meta property="og:type" content="article">
  <meta property="og:description" content="Enhanced routing patterns">
  <meta name="description" content="fallback description">
  <meta name="author" content="Jonathan Amsterdam, Eli Bendersky">
  <meta property="article:author" content="https://go.dev/authors/jba">
  <meta property="article:published_time" content="2024-02-13T00:00:00Z">
  <meta property="og:image" content="/images/routing.png">
  <link rel="shortcut icon" href="/static/favicon.png">
  <script>var tracking = "do not index";</script>
  <style>body { color: red; }</style>
</head>
<body>
  <h1>Routing   enhancements</h1>
  <p>Go 1.22 brings two enhancements to the net/http package's router.</p>
  <noscript>enable javascript</noscript>
  <script>console.log("hidden")</script>
</body>
</html>`

func newTestScraper(cfg config.ScraperConfig) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "TechstackTest/1.0"
	}
	return New(cfg)
}

func TestFetchExtractsHTMLMetadata(t *testing.T) {
	t.Parallel()

	gotUA := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML)
	}))
	defer ts.Close()

	page, err := newTestScraper(config.ScraperConfig{}).Fetch(context.Background(), ts.URL+"/blog/routing")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if ua := <-gotUA; ua != "TechstackTest/1.0" {
		t.Errorf("User-Agent = %q", ua)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"Title", page.Title, "Routing in Go 1.22"},
		{"SiteName", page.SiteName, "The Go Blog"},
		{"OGType", page.OGType, "article"},
		{"Description", page.Description, "Enhanced routing patterns"},
		{"PublishedAt", page.PublishedAt, "2024-02-13T00:00:00Z"},
		{"ImageURL", page.ImageURL, ts.URL + "/images/routing.png"},
		{"FaviconURL", page.FaviconURL, ts.URL + "/static/favicon.png"},
		{"ContentType", page.ContentType, "text/html"},
		{"Text", page.Text, "Routing enhancements Go 1.22 brings two enhancements to the net/http package's router."},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}

	if len(page.Authors) != 2 || page.Authors[0] != "Jonathan Amsterdam" || page.Authors[1] != "Eli Bendersky" {
		t.Errorf("Authors = %v", page.Authors)
	}
	if page.IsPDF || page.ResourceType() != "" {
		t.Errorf("unexpected classification: pdf=%v type=%q", page.IsPDF, page.ResourceType())
	}
}

func TestFetchDefaultsFaviconAndOGTitle(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><meta property="og:title" content="OG Title"><meta property="og:type" content="video.other"></head><body>hi</body></html>`)
	}))
	defer ts.Close()

	page, err := newTestScraper(config.ScraperConfig{}).Fetch(context.Background(), ts.URL+"/x")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if page.Title != "OG Title" {
		t.Errorf("Title = %q", page.Title)
	}
	if page.FaviconURL != ts.URL+"/favicon.ico" {
		t.Errorf("FaviconURL = %q", page.FaviconURL)
	}
	if page.ResourceType() != TypeVideo {
		t.Errorf("ResourceType() = %q, want %q", page.ResourceType(), TypeVideo)
	}
}

func TestFetchDetectsPDF(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".pdf") {
			w.Header().Set("Content-Type", "application/octet-stream")
		} else {
			w.Header().Set("Content-Type", "application/pdf")
		}
		fmt.Fprint(w, "%PDF-1.7 binary")
	}))
	defer ts.Close()

	tests := []struct {
		name      string
		path      string
		wantTitle string
	}{
		{"by content type", "/download?id=7", "download"},
		{"by suffix", "/papers/raft_extended-version.pdf", "raft extended version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := newTestScraper(config.ScraperConfig{}).Fetch(context.Background(), ts.URL+tt.path)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if !page.IsPDF {
				t.Fatal("IsPDF = false")
			}
			if page.ResourceType() != TypePDF {
				t.Errorf("ResourceType() = %q", page.ResourceType())
			}
			if page.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", page.Title, tt.wantTitle)
			}
			if page.Text != "" {
				t.Errorf("Text should be empty for PDFs, got %q", page.Text)
			}
		})
	}
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	s := newTestScraper(config.ScraperConfig{})

	if _, err := s.Fetch(context.Background(), ts.URL+"/missing"); !errors.Is(err, ErrUpstream) {
		t.Errorf("404: expected ErrUpstream, got %v", err)
	}

	for _, raw := range []string{"", "ftp://example.com/file", "not a url", "https://"} {
		if _, err := s.Fetch(context.Background(), raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("%q: expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestFetchRespectsBodyLimit(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>"+strings.Repeat("a", 100)+"</p><p>tail</p></body></html>")
	}))
	defer ts.Close()

	page, err := newTestScraper(config.ScraperConfig{MaxBodyBytes: 64}).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if strings.Contains(page.Text, "tail") {
		t.Errorf("text beyond the body limit was parsed: %q", page.Text)
	}
}

func TestFetchUsesHeadlessRendererForThinPages(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>App</title></head><body><div id="root"></div></body></html>`)
	}))
	defer ts.Close()

	rendered := "<html><head><title>App</title></head><body><article>" + strings.Repeat("rendered text ", 30) + "</article></body></html>"
	var calls int
	s := newTestScraper(config.ScraperConfig{MinTextChars: 200}).WithRenderer(func(ctx context.Context, rawURL string) (string, error) {
		calls++
		return rendered, nil
	})

	page, err := s.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("renderer calls = %d, want 1", calls)
	}
	if !strings.HasPrefix(page.Text, "rendered text") {
		t.Errorf("Text = %q", page.Text)
	}

	failing := newTestScraper(config.ScraperConfig{MinTextChars: 200}).WithRenderer(func(ctx context.Context, rawURL string) (string, error) {
		return "", errors.New("no chromium")
	})
	page, err = failing.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("render failure must keep the static page, got %v", err)
	}
	if page.Title != "App" {
		t.Errorf("Title = %q", page.Title)
	}
}

func TestFetchMeasuresTextInCharacters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		wantRender bool
	}{
		// 100 characters, 200 bytes.
		{"short cyrillic page", strings.Repeat("я", 100), true},
		// 160 characters, 320 bytes.
		{"long cyrillic page", strings.Repeat("я", 160), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				fmt.Fprint(w, "<html><body><p>"+tt.text+"</p></body></html>")
			}))
			defer ts.Close()

			var mu sync.Mutex
			calls := 0
			s := newTestScraper(config.ScraperConfig{MinTextChars: 150}).WithRenderer(func(ctx context.Context, rawURL string) (string, error) {
				mu.Lock()
				defer mu.Unlock()
				calls++
				return "<html><body><p>" + strings.Repeat("ж", 400) + "</p></body></html>", nil
			})
			if _, err := s.Fetch(context.Background(), ts.URL); err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			mu.Lock()
			defer mu.Unlock()
			if got := calls == 1; got != tt.wantRender {
				t.Errorf("rendered = %v, want %v", got, tt.wantRender)
			}
		})
	}
}

func TestFetchYouTubeUsesOEmbed(t *testing.T) {
	t.Parallel()

	gotURL := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL <- r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"Concurrency is not Parallelism","author_name":"Gopher Academy","provider_name":"YouTube","thumbnail_url":"https://i.ytimg.com/vi/oV9rvDllKEg/hqdefault.jpg"}`)
	}))
	defer ts.Close()

	s := newTestScraper(config.ScraperConfig{})
	s.oembedEndpoint = ts.URL

	page, err := s.Fetch(context.Background(), "https://youtu.be/oV9rvDllKEg")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if u := <-gotURL; u != "https://www.youtube.com/watch?v=oV9rvDllKEg" {
		t.Errorf("oembed url param = %q", u)
	}
	if page.VideoID != "oV9rvDllKEg" || page.ResourceType() != TypeVideo {
		t.Errorf("VideoID = %q, ResourceType = %q", page.VideoID, page.ResourceType())
	}
	if page.Title != "Concurrency is not Parallelism" || page.SiteName != "YouTube" {
		t.Errorf("Title = %q, SiteName = %q", page.Title, page.SiteName)
	}
	if len(page.Authors) != 1 || page.Authors[0] != "Gopher Academy" {
		t.Errorf("Authors = %v", page.Authors)
	}
}

func TestYouTubeVideoID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=oV9rvDllKEg", "oV9rvDllKEg"},
		{"https://www.youtube.com/watch?list=PL1&v=a_b-c1234XY&t=30", "a_b-c1234XY"},
		{"https://youtu.be/oV9rvDllKEg?si=abc", "oV9rvDllKEg"},
		{"https://www.youtube.com/channel/UC123", ""},
		{"https://example.com/article", ""},
	}
	for _, tt := range tests {
		if got := YouTubeVideoID(tt.url); got != tt.want {
			t.Errorf("YouTubeVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestIsYouTubeHost(t *testing.T) {
	t.Parallel()

	for host, want := range map[string]bool{
		"youtube.com":       true,
		"www.youtube.com":   true,
		"m.youtube.com:443": true,
		"youtu.be":          true,
		"notyoutube.com":    false,
		"example.com":       false,
	} {
		if got := isYouTubeHost(host); got != want {
			t.Errorf("isYouTubeHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestTitleFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/papers/raft-extended.pdf", "raft extended"},
		{"https://example.com/a%20b_c.pdf", "a b c"},
		{"https://example.com/", "example.com"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		if err != nil {
			t.Fatal(err)
		}
		if got := titleFromPath(u); got != tt.want {
			t.Errorf("titleFromPath(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	s := New(config.ScraperConfig{})
	if s.cfg.Timeout != 20*time.Second {
		t.Errorf("Timeout = %v", s.cfg.Timeout)
	}
	if s.cfg.MaxBodyBytes != 5*1024*1024 {
		t.Errorf("MaxBodyBytes = %d", s.cfg.MaxBodyBytes)
	}
	if s.render != nil {
		t.Error("renderer must be nil when headless is disabled")
	}
}
