// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/models"
)

// CategoryTree returns every category with its subcategory names.
//
// @Summary Category tree
// @Tags Taxonomy
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Taxonomy}
// @Router /categories/tree [get]
func (h *Handler) CategoryTree(w http.ResponseWriter, r *http.Request) {
	tax, err := h.db.Taxonomy(r.Context())
	if err != nil {
		respondStoreError(w, err, "Categories not found")
		return
	}
	respondData(w, http.StatusOK, tax)
}

// CategorySubcategories lists the subcategories of one category.
//
// @Summary Subcategories of a category
// @Tags Taxonomy
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.APIResponse{data=[]models.Subcategory}
// @Failure 404 {object} models.APIResponse "Category not found"
// @Router /categories/{id}/subcategories [get]
func (h *Handler) CategorySubcategories(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	exists, err := h.db.CategoryExists(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Category not found")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Category not found", nil)
		return
	}
	subs, err := h.db.ListSubcategories(r.Context(), &id)
	if err != nil {
		respondStoreError(w, err, "Category not found")
		return
	}
	respondData(w, http.StatusOK, subs)
}

// ListSubcategories lists subcategories, optionally filtered by category_id.
//
// @Summary List subcategories
// @Tags Taxonomy
// @Produce json
// @Param category_id query int false "Category ID"
// @Success 200 {object} models.APIResponse{data=[]models.Subcategory}
// @Router /subcategories [get]
func (h *Handler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	var categoryID *int64
	if id := int64(getIntParam(r, "category_id", 0)); id > 0 {
		categoryID = &id
	}
	subs, err := h.db.ListSubcategories(r.Context(), categoryID)
	if err != nil {
		respondStoreError(w, err, "Subcategories not found")
		return
	}
	respondData(w, http.StatusOK, subs)
}

// CreateSubcategory adds a subcategory under an existing category.
//
// @Summary Create subcategory
// @Tags Taxonomy
// @Accept json
// @Produce json
// @Param subcategory body models.SubcategoryCreate true "Subcategory"
// @Success 201 {object} models.APIResponse{data=models.Subcategory}
// @Failure 409 {object} models.APIResponse "Already exists"
// @Router /subcategories [post]
func (h *Handler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var in models.SubcategoryCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	sub, err := h.db.CreateSubcategory(r.Context(), in)
	if err != nil {
		respondStoreError(w, err, "Category not found")
		return
	}
	h.invalidateTaxonomy()
	respondData(w, http.StatusCreated, sub)
}

// SubcategoryTechnologies lists the technologies linked to a subcategory.
//
// @Summary Technologies of a subcategory
// @Tags Taxonomy
// @Produce json
// @Param id path int true "Subcategory ID"
// @Success 200 {object} models.APIResponse{data=[]models.Technology}
// @Router /subcategories/{id}/technologies [get]
func (h *Handler) SubcategoryTechnologies(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	techs, err := h.db.ListTechnologiesBySubcategory(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Subcategory not found")
		return
	}
	respondData(w, http.StatusOK, techs)
}

// ListTechnologies lists technologies by name.
//
// @Summary List technologies
// @Tags Taxonomy
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Technology}
// @Router /technologies [get]
func (h *Handler) ListTechnologies(w http.ResponseWriter, r *http.Request) {
	techs, err := h.db.ListTechnologies(r.Context())
	if err != nil {
		respondStoreError(w, err, "Technologies not found")
		return
	}
	respondData(w, http.StatusOK, techs)
}

// ListTechnologiesDetailed lists technologies with subcategory and category.
//
// @Summary List technologies with their taxonomy
// @Tags Taxonomy
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.TechnologyRead}
// @Router /technologies/detailed [get]
func (h *Handler) ListTechnologiesDetailed(w http.ResponseWriter, r *http.Request) {
	techs, err := h.db.ListTechnologiesDetailed(r.Context())
	if err != nil {
		respondStoreError(w, err, "Technologies not found")
		return
	}
	respondData(w, http.StatusOK, techs)
}

// CountTechnologies counts technologies.
//
// @Summary Count technologies
// @Tags Taxonomy
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CountResponse}
// @Router /technologies/count [get]
func (h *Handler) CountTechnologies(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.CountTechnologies(r.Context())
	if err != nil {
		respondStoreError(w, err, "Technologies not found")
		return
	}
	respondData(w, http.StatusOK, models.CountResponse{Count: n})
}

// CreateTechnology creates a technology (or reuses one with the same name)
// and links it to a subcategory.
//
// @Summary Create technology
// @Tags Taxonomy
// @Accept json
// @Produce json
// @Param technology body models.TechnologyCreate true "Technology"
// @Success 201 {object} models.APIResponse{data=models.Technology}
// @Failure 404 {object} models.APIResponse "Subcategory not found"
// @Router /technologies [post]
func (h *Handler) CreateTechnology(w http.ResponseWriter, r *http.Request) {
	var in models.TechnologyCreate
	if !decodeAndValidate(w, r, &in) {
		return
	}
	tech, err := h.db.CreateTechnology(r.Context(), in)
	if err != nil {
		respondStoreError(w, err, "Subcategory not found")
		return
	}
	respondData(w, http.StatusCreated, tech)
}

// TaxonomySearchResult is the body of GET /taxonomy/search.
type TaxonomySearchResult struct {
	Query        string                  `json:"query"`
	Categories   models.Taxonomy         `json:"categories"`
	Technologies []models.TechnologyRead `json:"technologies"`
}

// SearchTaxonomy finds categories, subcategories and technologies whose
// names contain q, case-insensitively.
//
// @Summary Search the taxonomy
// @Tags Taxonomy
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} models.APIResponse{data=TaxonomySearchResult}
// @Failure 400 {object} models.APIResponse "Missing query"
// @Router /taxonomy/search [get]
func (h *Handler) SearchTaxonomy(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Query parameter q is required", nil)
		return
	}
	ctx := r.Context()

	tax, err := h.db.Taxonomy(ctx)
	if err != nil {
		respondStoreError(w, err, "Categories not found")
		return
	}
	techs, err := h.db.ListTechnologiesDetailed(ctx)
	if err != nil {
		respondStoreError(w, err, "Technologies not found")
		return
	}

	needle := strings.ToLower(q)
	matched := []models.TechnologyRead{}
	for _, t := range techs {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			matched = append(matched, t)
		}
	}

	respondData(w, http.StatusOK, TaxonomySearchResult{
		Query:        q,
		Categories:   tax.Search(q),
		Technologies: matched,
	})
}

// Categories are a plain lookup table; creating one invalidates the taxonomy cache.
func (h *Handler) listCategories() http.HandlerFunc {
	return h.listLookup(database.LookupCategory)
}

func (h *Handler) createCategory() http.HandlerFunc {
	return h.createLookup(database.LookupCategory, h.invalidateTaxonomy)
}
