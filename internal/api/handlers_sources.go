// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"

	"github.com/tomtom215/techstack/internal/models"
)

// ListPeople lists authors.
//
// @Summary List people
// @Tags Sources
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Person}
// @Router /people [get]
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.db.ListPeople(r.Context())
	if err != nil {
		respondStoreError(w, err, "People not found")
		return
	}
	respondData(w, http.StatusOK, people)
}

// CreatePerson creates an author.
//
// @Summary Create person
// @Tags Sources
// @Accept json
// @Produce json
// @Param person body models.PersonCreate true "Person"
// @Success 201 {object} models.APIResponse{data=models.Person}
// @Failure 409 {object} models.APIResponse "Already exists"
// @Router /people [post]
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var in models.PersonCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	person, err := h.db.CreatePerson(r.Context(), in)
	if err != nil {
		respondStoreError(w, err, "Not found")
		return
	}
	respondData(w, http.StatusCreated, person)
}

// CountPeople counts authors.
//
// @Summary Count people
// @Tags Sources
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CountResponse}
// @Router /people/count [get]
func (h *Handler) CountPeople(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.CountPeople(r.Context())
	if err != nil {
		respondStoreError(w, err, "People not found")
		return
	}
	respondData(w, http.StatusOK, models.CountResponse{Count: n})
}

// ListSources lists sources with their type.
//
// @Summary List sources
// @Tags Sources
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Source}
// @Router /sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.db.ListSources(r.Context())
	if err != nil {
		respondStoreError(w, err, "Sources not found")
		return
	}
	respondData(w, http.StatusOK, sources)
}

// CreateSource creates or updates a source by name.
//
// @Summary Create source
// @Tags Sources
// @Accept json
// @Produce json
// @Param source body models.SourceCreate true "Source"
// @Success 201 {object} models.APIResponse{data=models.Source}
// @Router /sources [post]
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var in models.SourceCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	source, err := h.db.CreateSource(r.Context(), in)
	if err != nil {
		respondStoreError(w, err, "Not found")
		return
	}
	respondData(w, http.StatusCreated, source)
}

// CountSources counts sources.
//
// @Summary Count sources
// @Tags Sources
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CountResponse}
// @Router /sources/count [get]
func (h *Handler) CountSources(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.CountSources(r.Context())
	if err != nil {
		respondStoreError(w, err, "Sources not found")
		return
	}
	respondData(w, http.StatusOK, models.CountResponse{Count: n})
}

// ListPublications lists publications with their source.
//
// @Summary List publications
// @Tags Sources
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Publication}
// @Router /publications [get]
func (h *Handler) ListPublications(w http.ResponseWriter, r *http.Request) {
	pubs, err := h.db.ListPublications(r.Context())
	if err != nil {
		respondStoreError(w, err, "Publications not found")
		return
	}
	respondData(w, http.StatusOK, pubs)
}

// ListResources lists resources with source and authors.
//
// @Summary List resources
// @Tags Resources
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.APIResponse{data=[]models.Resource}
// @Router /resources [get]
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.pagination(r)
	resources, err := h.db.ListResources(r.Context(), limit, offset)
	if err != nil {
		respondStoreError(w, err, "Resources not found")
		return
	}
	respondPage(w, resources, limit, offset)
}

// GetResource returns one resource.
//
// @Summary Get resource
// @Tags Resources
// @Produce json
// @Param id path int true "Resource ID"
// @Success 200 {object} models.APIResponse{data=models.Resource}
// @Failure 404 {object} models.APIResponse "Resource not found"
// @Router /resources/{id} [get]
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	resource, err := h.db.GetResource(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Resource not found")
		return
	}
	respondData(w, http.StatusOK, resource)
}

// CreateResource creates a resource. A URL that already exists is a conflict.
//
// @Summary Create resource
// @Tags Resources
// @Accept json
// @Produce json
// @Param resource body models.ResourceCreate true "Resource"
// @Success 201 {object} models.APIResponse{data=models.Resource}
// @Failure 409 {object} models.APIResponse "URL already exists"
// @Router /resources [post]
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var in models.ResourceCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	resource, err := h.db.CreateResource(r.Context(), in)
	if err != nil {
		respondStoreError(w, err, "Source not found")
		return
	}
	respondData(w, http.StatusCreated, resource)
}

// CountResources counts resources.
//
// @Summary Count resources
// @Tags Resources
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CountResponse}
// @Router /resources/count [get]
func (h *Handler) CountResources(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.CountResources(r.Context())
	if err != nil {
		respondStoreError(w, err, "Resources not found")
		return
	}
	respondData(w, http.StatusOK, models.CountResponse{Count: n})
}
