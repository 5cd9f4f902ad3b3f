// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

const youtubeOEmbedEndpoint = "https://www.youtube.com/oembed"

var youtubeIDPattern = regexp.MustCompile(`(?:v=|be/)([\w-]{11})`)

// YouTubeVideoID returns the 11 character video ID in rawURL, or "".
func YouTubeVideoID(rawURL string) string {
	m := youtubeIDPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func isYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

// oembedResponse is the subset of the oEmbed payload that is used.
type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s *Scraper) fetchYouTube(ctx context.Context, u *url.URL, videoID string) (*Page, error) {
	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+videoID)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.oembedEndpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create oembed request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oembed request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // read-only body
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: oembed returned HTTP %d", ErrUpstream, resp.StatusCode)
	}

	var data oembedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode oembed: %w", err)
	}

	site := firstNonEmpty(data.ProviderName, "YouTube")
	page := &Page{
		URL:         u.String(),
		FinalURL:    u.String(),
		ContentType: "text/html",
		Title:       data.Title,
		SiteName:    site,
		OGType:      "video.other",
		ImageURL:    data.ThumbnailURL,
		FaviconURL:  "https://www.youtube.com/favicon.ico",
		Text:        strings.TrimSpace(data.Title + " by " + data.AuthorName),
		VideoID:     videoID,
	}
	if data.AuthorName != "" {
		page.Authors = []string{data.AuthorName}
		page.Description = data.Title + " (" + data.AuthorName + ")"
	}
	return page, nil
}
