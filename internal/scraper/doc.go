// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package scraper retrieves a web page and extracts the metadata the ingest
pipeline needs before any LLM is involved.

Three kinds of URL are handled:

  - YouTube watch and short links: the video ID is taken from the URL and
    title, channel and thumbnail come from the public oEmbed endpoint.
  - PDF documents: detected by content type or a .pdf path; classified as
    resource type "PDF" without downloading the body.
  - Everything else: the HTML is parsed with golang.org/x/net/html and
    OpenGraph / article meta tags, favicon and visible text are collected.

When the static HTML yields less visible text than ScraperConfig.MinTextChars
and headless rendering is enabled, the page is rendered once with go-rod and
parsed again. Rendering failures are logged and the static result is kept.

Usage:

	s := scraper.New(cfg.Scraper)
	page, err := s.Fetch(ctx, "https://go.dev/blog/routing-enhancements")
	if err != nil {
	    return err
	}
	fmt.Println(page.Title, page.SiteName, page.Authors)
*/
package scraper
