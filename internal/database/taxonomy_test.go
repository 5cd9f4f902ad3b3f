// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/techstack/internal/models"
)

func TestSubcategories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	backendID, err := db.CategoryID(ctx, "backend")
	checkNoError(t, err)

	subs, err := db.ListSubcategories(ctx, &backendID)
	checkNoError(t, err)
	checkIntEqual(t, "backend subcategories", len(subs), 4)
	for _, s := range subs {
		checkInt64Equal(t, "category_id", s.CategoryID, backendID)
	}

	created, err := db.CreateSubcategory(ctx, models.SubcategoryCreate{Name: "Message Queues", CategoryID: backendID})
	checkNoError(t, err)
	checkStringEqual(t, "name", created.Name, "Message Queues")

	_, err = db.CreateSubcategory(ctx, models.SubcategoryCreate{Name: "message queues", CategoryID: backendID})
	checkErrorIs(t, err, ErrConflict)

	_, err = db.CreateSubcategory(ctx, models.SubcategoryCreate{Name: "Orphan", CategoryID: 9999})
	checkErrorIs(t, err, ErrInvalid)

	missing := int64(9999)
	_, err = db.ListSubcategories(ctx, &missing)
	checkErrorIs(t, err, ErrNotFound)

	all, err := db.ListSubcategories(ctx, nil)
	checkNoError(t, err)
	want := 1
	for _, node := range models.DefaultTaxonomy() {
		want += len(node.Subcategories)
	}
	checkIntEqual(t, "all subcategories", len(all), want)
}

func TestSameSubcategoryNameUnderTwoCategories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	backendAuth, err := db.SubcategoryID(ctx, "Backend", "Authentication")
	checkNoError(t, err)
	securityAuth, err := db.SubcategoryID(ctx, "Security", "authentication")
	checkNoError(t, err)
	if backendAuth == securityAuth {
		t.Error("Authentication under Backend and Security must be distinct rows")
	}
}

func TestCreateTechnologyLinksAdditionalSubcategory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	api, err := db.SubcategoryID(ctx, "Backend", "API Framework")
	checkNoError(t, err)
	web, err := db.SubcategoryID(ctx, "Backend", "Web Framework")
	checkNoError(t, err)

	first, err := db.CreateTechnology(ctx, models.TechnologyCreate{Name: "Chi", SubcategoryID: api})
	checkNoError(t, err)
	second, err := db.CreateTechnology(ctx, models.TechnologyCreate{Name: "chi", Description: "Lightweight router", SubcategoryID: web})
	checkNoError(t, err)
	checkInt64Equal(t, "technology id", second.ID, first.ID)
	checkStringEqual(t, "description", second.Description, "Lightweight router")

	count, err := db.CountTechnologies(ctx)
	checkNoError(t, err)
	checkInt64Equal(t, "technologies", count, 1)

	detailed, err := db.ListTechnologiesDetailed(ctx)
	checkNoError(t, err)
	checkIntEqual(t, "detailed rows", len(detailed), 2)
	for _, row := range detailed {
		checkStringEqual(t, "category", row.Category, "Backend")
	}

	bySub, err := db.ListTechnologiesBySubcategory(ctx, web)
	checkNoError(t, err)
	checkIntEqual(t, "technologies in Web Framework", len(bySub), 1)

	_, err = db.ListTechnologiesBySubcategory(ctx, 9999)
	checkErrorIs(t, err, ErrNotFound)

	_, err = db.CreateTechnology(ctx, models.TechnologyCreate{Name: "Gin", SubcategoryID: 9999})
	checkErrorIs(t, err, ErrInvalid)
}

func TestTaxonomySnapshot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tax, err := db.Taxonomy(ctx)
	checkNoError(t, err)
	for i, node := range models.DefaultTaxonomy() {
		checkStringEqual(t, "category", tax[i].Category, node.Category)
		checkIntEqual(t, node.Category+" subcategories", len(tax[i].Subcategories), len(node.Subcategories))
		if tax[i].ID <= 0 {
			t.Errorf("%s: expected positive id", node.Category)
		}
	}
}
