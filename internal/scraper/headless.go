// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// newRodRenderer returns a Renderer that launches a headless Chromium per
// call. Pages needing it are rare, so no browser is kept running.
func newRodRenderer(userAgent string, timeout time.Duration) Renderer {
	return func(ctx context.Context, rawURL string) (string, error) {
		l := launcher.New().Headless(true).Context(ctx)
		controlURL, err := l.Launch()
		if err != nil {
			return "", fmt.Errorf("launch browser: %w", err)
		}
		defer l.Cleanup()

		browser := rod.New().ControlURL(controlURL).Context(ctx)
		if err := browser.Connect(); err != nil {
			return "", fmt.Errorf("connect to browser: %w", err)
		}
		defer func() {
			_ = browser.Close() //nolint:errcheck // best-effort shutdown
		}()

		page, err := browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return "", fmt.Errorf("open page: %w", err)
		}
		defer func() {
			_ = page.Close() //nolint:errcheck // closed with the browser anyway
		}()

		if userAgent != "" {
			if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
				return "", fmt.Errorf("set user agent: %w", err)
			}
		}

		p := page.Timeout(timeout)
		if err := p.Navigate(rawURL); err != nil {
			return "", fmt.Errorf("navigate: %w", err)
		}
		if err := p.WaitLoad(); err != nil {
			return "", fmt.Errorf("wait load: %w", err)
		}
		html, err := p.HTML()
		if err != nil {
			return "", fmt.Errorf("read html: %w", err)
		}
		return html, nil
	}
}
