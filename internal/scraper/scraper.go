// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tomtom215/techstack/internal/config"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/metrics"
)

// Resource types assigned by the scraper itself.
const (
	TypePDF   = "PDF"
	TypeVideo = "Video"
)

// Fetch kinds, used as the metrics label.
const (
	kindHTML     = "html"
	kindPDF      = "pdf"
	kindYouTube  = "youtube"
	kindHeadless = "headless"
)

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUpstream is returned when the page answers with a non-2xx status.
	ErrUpstream = errors.New("upstream error")
)

// Page is everything the scraper learned about a URL.
type Page struct {
	URL         string   `json:"url"`
	FinalURL    string   `json:"final_url"`
	ContentType string   `json:"content_type"`
	Title       string   `json:"title"`
	SiteName    string   `json:"site_name"`
	OGType      string   `json:"og_type"`
	Authors     []string `json:"authors"`
	PublishedAt string   `json:"published_at,omitempty"`
	Description string   `json:"description"`
	FaviconURL  string   `json:"favicon_url"`
	ImageURL    string   `json:"image_url"`
	Text        string   `json:"text"`
	VideoID     string   `json:"video_id,omitempty"`
	IsPDF       bool     `json:"is_pdf"`
}

// ResourceType returns the resource type the page content implies, or ""
// when only the LLM can tell.
func (p *Page) ResourceType() string {
	switch {
	case p.IsPDF:
		return TypePDF
	case p.VideoID != "":
		return TypeVideo
	case strings.HasPrefix(strings.ToLower(p.OGType), "video"):
		return TypeVideo
	}
	return ""
}

// Renderer returns the fully rendered HTML of a page.
type Renderer func(ctx context.Context, rawURL string) (string, error)

// Scraper fetches pages. It is safe for concurrent use.
type Scraper struct {
	cfg    config.ScraperConfig
	client *http.Client
	render Renderer

	oembedEndpoint string
}

// New creates a Scraper. The headless renderer is only wired when
// cfg.HeadlessEnabled is set.
func New(cfg config.ScraperConfig) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 * 1024 * 1024
	}
	s := &Scraper{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("stopped after 10 redirects")
				}
				return nil
			},
		},
		oembedEndpoint: youtubeOEmbedEndpoint,
	}
	if cfg.HeadlessEnabled {
		s.render = newRodRenderer(cfg.UserAgent, cfg.Timeout)
	}
	return s
}

// WithHTTPClient replaces the HTTP client.
func (s *Scraper) WithHTTPClient(c *http.Client) *Scraper {
	s.client = c
	return s
}

// WithRenderer replaces the headless renderer. nil disables rendering.
func (s *Scraper) WithRenderer(r Renderer) *Scraper {
	s.render = r
	return s
}

// Fetch retrieves rawURL and extracts its metadata.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if id := YouTubeVideoID(u.String()); id != "" && isYouTubeHost(u.Host) {
		start := time.Now()
		page, err := s.fetchYouTube(ctx, u, id)
		metrics.RecordScrape(kindYouTube, time.Since(start), err)
		if err == nil {
			return page, nil
		}
		logging.Ctx(ctx).Warn().Err(err).Str("url", u.String()).Msg("oEmbed lookup failed, falling back to HTML")
	}

	start := time.Now()
	page, kind, err := s.fetchDocument(ctx, u)
	metrics.RecordScrape(kind, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if s.render != nil && !page.IsPDF && utf8.RuneCountInString(page.Text) < s.cfg.MinTextChars {
		s.renderInto(ctx, page)
	}
	return page, nil
}

// fetchDocument performs the GET and dispatches on the content type.
func (s *Scraper) fetchDocument(ctx context.Context, u *url.URL) (*Page, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, kindHTML, fmt.Errorf("create request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, kindHTML, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // read-only body
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, kindHTML, fmt.Errorf("%w: %s returned HTTP %d", ErrUpstream, u, resp.StatusCode)
	}

	final := resp.Request.URL
	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType) //nolint:errcheck // empty on malformed header

	page := &Page{
		URL:         u.String(),
		FinalURL:    final.String(),
		ContentType: mediaType,
	}

	if mediaType == "application/pdf" || hasPDFSuffix(u) || hasPDFSuffix(final) {
		page.IsPDF = true
		page.Title = titleFromPath(final)
		page.SiteName = final.Hostname()
		page.FaviconURL = defaultFavicon(final)
		return page, kindPDF, nil
	}

	body := io.LimitReader(resp.Body, s.cfg.MaxBodyBytes)
	if err := parseHTMLInto(page, body, final); err != nil {
		return nil, kindHTML, fmt.Errorf("parse %s: %w", final, err)
	}
	if id := YouTubeVideoID(final.String()); id != "" && isYouTubeHost(final.Host) {
		page.VideoID = id
	}
	return page, kindHTML, nil
}

// renderInto re-parses the page from headless browser output. The static
// result is kept when rendering fails or yields less text.
func (s *Scraper) renderInto(ctx context.Context, page *Page) {
	start := time.Now()
	html, err := s.render(ctx, page.FinalURL)
	metrics.RecordScrape(kindHeadless, time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("url", page.FinalURL).Msg("headless render failed")
		return
	}

	base, err := url.Parse(page.FinalURL)
	if err != nil {
		return
	}
	rendered := &Page{URL: page.URL, FinalURL: page.FinalURL, ContentType: page.ContentType, VideoID: page.VideoID}
	if err := parseHTMLInto(rendered, strings.NewReader(html), base); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("url", page.FinalURL).Msg("parse rendered page failed")
		return
	}
	staticChars, renderedChars := utf8.RuneCountInString(page.Text), utf8.RuneCountInString(rendered.Text)
	if renderedChars <= staticChars {
		return
	}
	logging.Ctx(ctx).Debug().
		Str("url", page.FinalURL).
		Int("static_chars", staticChars).
		Int("rendered_chars", renderedChars).
		Msg("using headless render")
	*page = *rendered
}

func hasPDFSuffix(u *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// titleFromPath turns /papers/raft-extended.pdf into "raft extended".
func titleFromPath(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return u.Hostname()
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}

func defaultFavicon(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/favicon.ico"}).String()
}
