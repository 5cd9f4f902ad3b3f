// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package models

import "time"

// Person is an author of a source or resource.
type Person struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Website string `json:"website"`
}

// PersonCreate is the request body for POST /people.
type PersonCreate struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Website string `json:"website" validate:"omitempty,url"`
}

// Source is a publisher: a blog, documentation site, channel or repository host.
type Source struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SourceType string `json:"source_type,omitempty"`
	Website    string `json:"website,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// SourceCreate is the request body for POST /sources. The source type is
// created on demand.
type SourceCreate struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	SourceType string `json:"source_type" validate:"max=100"`
	Website    string `json:"website" validate:"omitempty,url"`
	ImageURL   string `json:"image_url" validate:"omitempty,url"`
}

// Publication is a named outlet within a source (a newsletter, a column).
type Publication struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	SourceID int64  `json:"source_id"`
	Source   string `json:"source"`
}

// Resource is a single piece of content: an article, video, PDF or repository.
type Resource struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	URL          string     `json:"url,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	Source       *Source    `json:"source,omitempty"`
	Publication  string     `json:"publication,omitempty"`
	Authors      []string   `json:"authors"`
}

// ResourceCreate is the request body for POST /resources.
type ResourceCreate struct {
	Title        string   `json:"title" validate:"required,min=1,max=500"`
	Description  string   `json:"description" validate:"max=5000"`
	ResourceType string   `json:"resource_type" validate:"max=100"`
	URL          string   `json:"url" validate:"omitempty,url"`
	ImageURL     string   `json:"image_url" validate:"omitempty,url"`
	SourceID     *int64   `json:"source_id" validate:"omitempty,gt=0"`
	Authors      []string `json:"authors" validate:"max=20,dive,min=1,max=200"`
}
