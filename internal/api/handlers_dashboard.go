// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"

	"github.com/tomtom215/techstack/internal/models"
)

// Static dashboard panels. The frontend renders these until the panels are
// backed by real data.
var (
	dashboardTech = map[string]models.TechStackResponse{
		"languages": {
			Stats:   models.TechStats{Total: 24, Production: 14, Testing: 6, Planned: 4},
			Updates: []string{"Python updated to v3.12", "TypeScript v5.3 deployed", "React v18.2 in production"},
		},
		"backend": {
			Stats:   models.TechStats{Total: 666, Production: 12, Testing: 4, Planned: 2},
			Updates: []string{"Node.js v20 LTS deployed", "Django REST framework updated", "GraphQL Gateway testing"},
		},
		"storage": {
			Stats:   models.TechStats{Total: 15, Production: 8, Testing: 4, Planned: 3},
			Updates: []string{"PostgreSQL 16 migration complete", "Redis Cache layer expanded", "MongoDB Atlas evaluation"},
		},
		"devops": {
			Stats:   models.TechStats{Total: 20, Production: 11, Testing: 5, Planned: 4},
			Updates: []string{"Kubernetes v1.30 rollout", "Terraform modules updated", "New CI/CD pipeline active"},
		},
	}

	dashboardAlerts = models.SecurityResponse{Alerts: []models.SecurityAlert{
		{Level: "high", Message: "Dependencies security audit needed"},
		{Level: "medium", Message: "JWT token expiration review"},
		{Level: "low", Message: "SSL certificate renewal in 30 days"},
	}}

	dashboardMetrics = models.MetricsResponse{Data: []models.Metric{
		{Name: "System Uptime", Value: "99.98%", Trend: "up"},
		{Name: "API Response Time", Value: "245ms", Trend: "stable"},
		{Name: "Error Rate", Value: "0.02%", Trend: "down"},
	}}

	dashboardCoverage = models.CoverageResponse{
		Items: []models.CoverageItem{
			{Category: "Frontend", Percentage: 70},
			{Category: "Middleware", Percentage: 30},
			{Category: "Backend", Percentage: 60},
			{Category: "Database", Percentage: 50},
			{Category: "Messaging", Percentage: 10},
			{Category: "DevOps", Percentage: 40},
			{Category: "Security", Percentage: 20},
			{Category: "Monitoring", Percentage: 10},
		},
		OverallProgress: 37,
	}
)

// TechPanel returns the stats panel for one area (languages, backend,
// storage or devops).
//
// @Summary Tech stack panel
// @Tags Dashboard
// @Produce json
// @Param area path string true "languages, backend, storage or devops"
// @Success 200 {object} models.APIResponse{data=models.TechStackResponse}
// @Router /tech/{area} [get]
func (h *Handler) TechPanel(area string) http.HandlerFunc {
	panel := dashboardTech[area]
	return func(w http.ResponseWriter, _ *http.Request) {
		respondData(w, http.StatusOK, panel)
	}
}

// SecurityAlerts returns the alerts panel.
//
// @Summary Security alerts panel
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.SecurityResponse}
// @Router /security/alerts [get]
func (h *Handler) SecurityAlerts(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, dashboardAlerts)
}

// DashboardMetrics returns the system metrics panel.
//
// @Summary System metrics panel
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.MetricsResponse}
// @Router /metrics [get]
func (h *Handler) DashboardMetrics(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, dashboardMetrics)
}

// Coverage returns the learning coverage panel.
//
// @Summary Coverage panel
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CoverageResponse}
// @Router /coverage [get]
func (h *Handler) Coverage(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, dashboardCoverage)
}
