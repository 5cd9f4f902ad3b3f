// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package models

// TechStats counts technologies by rollout state.
type TechStats struct {
	Total      int `json:"total"`
	Production int `json:"production"`
	Testing    int `json:"testing"`
	Planned    int `json:"planned"`
}

// TechStackResponse backs the /tech/* dashboard widgets.
type TechStackResponse struct {
	Stats   TechStats `json:"stats"`
	Updates []string  `json:"updates"`
}

// SecurityAlert is one dashboard alert; Level is high, medium or low.
type SecurityAlert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SecurityResponse backs the /security/alerts widget.
type SecurityResponse struct {
	Alerts []SecurityAlert `json:"alerts"`
}

// Metric is one dashboard metric; Trend is up, down or stable.
type Metric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Trend string `json:"trend"`
}

// MetricsResponse backs the /metrics widget.
type MetricsResponse struct {
	Data []Metric `json:"data"`
}

// CoverageItem is the learning coverage of one stack layer.
type CoverageItem struct {
	Category   string `json:"category"`
	Percentage int    `json:"percentage"`
}

// CoverageResponse backs the /coverage widget.
type CoverageResponse struct {
	Items           []CoverageItem `json:"items"`
	OverallProgress int            `json:"overallProgress"`
}
