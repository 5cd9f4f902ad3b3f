// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/middleware"
)

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.perfMon.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/", h.Root)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Health probes are exempt from rate limiting.
	r.Route("/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// Websockets bypass compression and security headers; the upgrade
	// needs the raw connection.
	r.Get("/ws", h.WebSocket)
	r.Get("/api/v1/ws", h.WebSocket)
	r.Get("/api/v1/ingest/stream", h.IngestStream)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.Compression)

		r.Get("/summary", h.Summary)
		r.Get("/performance", h.Performance)

		router.taskRoutes(r)
		router.lessonRoutes(r)
		router.courseRoutes(r)
		router.taxonomyRoutes(r)
		router.sourceRoutes(r)
		router.settingsRoutes(r)
		router.dashboardRoutes(r)
		router.ingestRoutes(r)
	})

	return r
}

func (router *Router) taskRoutes(r chi.Router) {
	h := router.handler
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Get("/count", h.CountTasks)
		r.Get("/detailed", h.ListTasksDetailed)
		r.Get("/completed-by-day", h.CompletedByDay)
		r.Get("/priorities", h.listLookup(database.LookupTaskPriority))
		r.Get("/statuses", h.listLookup(database.LookupTaskStatus))
		r.Get("/types", h.listLookup(database.LookupTaskType))
		r.Get("/levels", h.listLookup(database.LookupLevel))
		r.Get("/sections", h.listLookup(database.LookupSection))
		r.Get("/sources", h.ListSources)
		r.With(router.chiMiddleware.RateLimitIngest()).Post("/from-lesson/{lessonId}", h.TaskFromLesson)
		r.Get("/{id}", h.GetTask)
		r.Put("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
	})
}

func (router *Router) lessonRoutes(r chi.Router) {
	h := router.handler
	r.Route("/lessons", func(r chi.Router) {
		r.Get("/", h.ListLessons)
		r.Post("/", h.CreateLesson)
		r.Get("/count", h.CountLessons)
		r.Get("/{id}", h.GetLesson)
		r.Put("/{id}", h.UpdateLesson)
		r.Delete("/{id}", h.DeleteLesson)
	})
}

func (router *Router) courseRoutes(r chi.Router) {
	h := router.handler
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.ListCourses)
		r.Post("/", h.CreateCourse)
		r.Get("/count", h.CountCourses)
		r.Get("/{id}/details", h.CourseDetails)
		r.Put("/{id}/categories", h.SetCourseCategories)
		r.Get("/{id}/modules", h.ListModules)
		r.Post("/{id}/modules", h.CreateModule)
		r.With(router.chiMiddleware.RateLimitIngest()).Post("/{id}/classify", h.ClassifyCourse)
	})
}

func (router *Router) taxonomyRoutes(r chi.Router) {
	h := router.handler
	r.Get("/categories", h.listCategories())
	r.Post("/categories", h.createCategory())
	r.Get("/categories/tree", h.CategoryTree)
	r.Get("/categories/{id}/subcategories", h.CategorySubcategories)

	r.Get("/subcategories", h.ListSubcategories)
	r.Post("/subcategories", h.CreateSubcategory)
	r.Get("/subcategories/{id}/technologies", h.SubcategoryTechnologies)

	r.Get("/technologies", h.ListTechnologies)
	r.Post("/technologies", h.CreateTechnology)
	r.Get("/technologies/count", h.CountTechnologies)
	r.Get("/technologies/detailed", h.ListTechnologiesDetailed)

	r.Get("/topics", h.listLookup(database.LookupTopic))
	r.Post("/topics", h.createLookup(database.LookupTopic, nil))
	r.Get("/levels", h.listLookup(database.LookupLevel))
	r.Get("/taxonomy/search", h.SearchTaxonomy)
}

func (router *Router) sourceRoutes(r chi.Router) {
	h := router.handler
	r.Get("/people", h.ListPeople)
	r.Post("/people", h.CreatePerson)
	r.Get("/people/count", h.CountPeople)

	r.Get("/sources", h.ListSources)
	r.Post("/sources", h.CreateSource)
	r.Get("/sources/count", h.CountSources)
	r.Get("/sources/types", h.listLookup(database.LookupSourceType))

	r.Get("/publications", h.ListPublications)

	r.Get("/resources", h.ListResources)
	r.Post("/resources", h.CreateResource)
	r.Get("/resources/count", h.CountResources)
	r.Get("/resources/types", h.listLookup(database.LookupResourceType))
	r.Get("/resources/{id}", h.GetResource)
}

func (router *Router) settingsRoutes(r chi.Router) {
	h := router.handler
	tabs := []struct {
		path     string
		handlers func() (http.HandlerFunc, http.HandlerFunc)
	}{
		{"study-time", h.StudyTime},
		{"task-quotas", h.TaskQuotas},
		{"quiz-goals", h.QuizGoals},
		{"difficulty-targets", h.DifficultyTargets},
		{"category-balance", h.CategoryBalance},
	}
	r.Route("/settings/learning-goals", func(r chi.Router) {
		for _, tab := range tabs {
			get, put := tab.handlers()
			r.Get("/"+tab.path, get)
			r.Put("/"+tab.path, put)
		}
	})
}

func (router *Router) dashboardRoutes(r chi.Router) {
	h := router.handler
	for _, area := range []string{"languages", "backend", "storage", "devops"} {
		r.Get("/tech/"+area, h.TechPanel(area))
	}
	r.Get("/security/alerts", h.SecurityAlerts)
	r.Get("/metrics", h.DashboardMetrics)
	r.Get("/coverage", h.Coverage)
}

func (router *Router) ingestRoutes(r chi.Router) {
	h := router.handler
	r.Route("/ingest", func(r chi.Router) {
		r.With(router.chiMiddleware.RateLimitIngest()).Post("/", h.Ingest)
		r.With(router.chiMiddleware.RateLimitIngest()).Post("/batch", h.IngestBatch)
		r.Get("/jobs", h.IngestJobs)
		r.Get("/jobs/{id}", h.IngestJob)
	})
}
