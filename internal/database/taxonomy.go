// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/techstack/internal/models"
)

// ListSubcategories returns subcategories, optionally restricted to one
// category. A missing category yields ErrNotFound.
func (db *DB) ListSubcategories(ctx context.Context, categoryID *int64) ([]models.Subcategory, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT id, name, category_id FROM subcategory ORDER BY category_id, id`
	var args []any
	if categoryID != nil {
		ok, err := exists(ctx, db.conn, "category", *categoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
		query = `SELECT id, name, category_id FROM subcategory WHERE category_id = $1 ORDER BY id`
		args = append(args, *categoryID)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		observe("list_subcategories", start, err)
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer closeQuietly(rows)

	subs := []models.Subcategory{}
	for rows.Next() {
		var s models.Subcategory
		if err := rows.Scan(&s.ID, &s.Name, &s.CategoryID); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		subs = append(subs, s)
	}
	observe("list_subcategories", start, rows.Err())
	return subs, rows.Err()
}

// CreateSubcategory adds a subcategory to an existing category.
func (db *DB) CreateSubcategory(ctx context.Context, in models.SubcategoryCreate) (*models.Subcategory, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	ok, err := exists(ctx, db.conn, "category", in.CategoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: category %d does not exist", ErrInvalid, in.CategoryID)
	}
	if _, err := findSubcategoryID(ctx, db.conn, in.CategoryID, in.Name); err == nil {
		return nil, ErrConflict
	}

	id, err := getOrCreateSubcategory(ctx, db.conn, in.CategoryID, in.Name)
	if err != nil {
		return nil, err
	}
	return &models.Subcategory{ID: id, Name: strings.TrimSpace(in.Name), CategoryID: in.CategoryID}, nil
}

// ListTechnologies returns every technology ordered by name.
func (db *DB) ListTechnologies(ctx context.Context) ([]models.Technology, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	return db.queryTechnologies(ctx,
		`SELECT id, name, COALESCE(description, '') FROM technology ORDER BY name`)
}

// ListTechnologiesBySubcategory returns the technologies linked to a
// subcategory. A missing subcategory yields ErrNotFound.
func (db *DB) ListTechnologiesBySubcategory(ctx context.Context, subcategoryID int64) ([]models.Technology, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	ok, err := exists(ctx, db.conn, "subcategory", subcategoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return db.queryTechnologies(ctx, `
		SELECT t.id, t.name, COALESCE(t.description, '')
		FROM technology t
		JOIN technology_subcategory ts ON ts.technology_id = t.id
		WHERE ts.subcategory_id = $1
		ORDER BY t.name`, subcategoryID)
}

func (db *DB) queryTechnologies(ctx context.Context, query string, args ...any) ([]models.Technology, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		observe("list_technologies", start, err)
		return nil, fmt.Errorf("list technologies: %w", err)
	}
	defer closeQuietly(rows)

	techs := []models.Technology{}
	for rows.Next() {
		var t models.Technology
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("scan technology: %w", err)
		}
		techs = append(techs, t)
	}
	observe("list_technologies", start, rows.Err())
	return techs, rows.Err()
}

// ListTechnologiesDetailed returns one row per technology and subcategory
// link. Unlinked technologies appear once with empty names.
func (db *DB) ListTechnologiesDetailed(ctx context.Context) ([]models.TechnologyRead, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, COALESCE(s.name, ''), COALESCE(c.name, '')
		FROM technology t
		LEFT JOIN technology_subcategory ts ON ts.technology_id = t.id
		LEFT JOIN subcategory s ON s.id = ts.subcategory_id
		LEFT JOIN category c ON c.id = s.category_id
		ORDER BY t.name, c.name, s.name`)
	if err != nil {
		observe("list_technologies_detailed", start, err)
		return nil, fmt.Errorf("list technologies: %w", err)
	}
	out, err := scanTechnologyReads(rows)
	observe("list_technologies_detailed", start, err)
	return out, err
}

// CreateTechnology creates a technology, or reuses one with the same name,
// and links it to the subcategory.
func (db *DB) CreateTechnology(ctx context.Context, in models.TechnologyCreate) (*models.Technology, error) {
	var tech models.Technology
	err := db.inTx(ctx, "create_technology", func(q querier) error {
		ok, err := exists(ctx, q, "subcategory", in.SubcategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: subcategory %d does not exist", ErrInvalid, in.SubcategoryID)
		}

		id, err := getOrCreateTechnology(ctx, q, in.Name, in.Description)
		if err != nil {
			return err
		}
		if err := linkTechnologySubcategory(ctx, q, id, in.SubcategoryID); err != nil {
			return err
		}
		tech = models.Technology{ID: id, Name: strings.TrimSpace(in.Name), Description: in.Description}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tech, nil
}

// getOrCreateTechnology fills in a missing description on an existing row.
func getOrCreateTechnology(ctx context.Context, q querier, name, description string) (int64, error) {
	id, err := getOrCreateNamed(ctx, q, "technology", name)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(description) != "" {
		if _, err := q.ExecContext(ctx,
			`UPDATE technology SET description = $1 WHERE id = $2 AND (description IS NULL OR description = '')`,
			description, id); err != nil {
			return 0, fmt.Errorf("update technology description: %w", err)
		}
	}
	return id, nil
}

func linkTechnologySubcategory(ctx context.Context, q querier, technologyID, subcategoryID int64) error {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO technology_subcategory (technology_id, subcategory_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		technologyID, subcategoryID); err != nil {
		return fmt.Errorf("link technology to subcategory: %w", err)
	}
	return nil
}

// CountTechnologies returns the number of technologies.
func (db *DB) CountTechnologies(ctx context.Context) (int64, error) {
	return db.count(ctx, "technology")
}

// CategoryExists reports whether a category id exists.
func (db *DB) CategoryExists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return exists(ctx, db.conn, "category", id)
}

// CategoryID resolves a category name case-insensitively.
func (db *DB) CategoryID(ctx context.Context, name string) (int64, error) {
	return db.LookupID(ctx, LookupCategory, name)
}

// SubcategoryID resolves a subcategory under a named category.
func (db *DB) SubcategoryID(ctx context.Context, category, name string) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	categoryID, err := findNamedID(ctx, db.conn, "category", category)
	if err != nil {
		return 0, err
	}
	return findSubcategoryID(ctx, db.conn, categoryID, name)
}

// Taxonomy returns the category tree ordered by category id, subcategories
// by id.
func (db *DB) Taxonomy(ctx context.Context) (models.Taxonomy, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(s.name, '')
		FROM category c
		LEFT JOIN subcategory s ON s.category_id = c.id
		ORDER BY c.id, s.id`)
	if err != nil {
		observe("taxonomy", start, err)
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	defer closeQuietly(rows)

	tax := models.Taxonomy{}
	for rows.Next() {
		var (
			id        int64
			cat, name string
		)
		if err := rows.Scan(&id, &cat, &name); err != nil {
			return nil, fmt.Errorf("scan taxonomy: %w", err)
		}
		if n := len(tax); n == 0 || tax[n-1].ID != id {
			tax = append(tax, models.TaxonomyNode{ID: id, Category: cat, Subcategories: []string{}})
		}
		if name != "" {
			last := &tax[len(tax)-1]
			last.Subcategories = append(last.Subcategories, name)
		}
	}
	observe("taxonomy", start, rows.Err())
	return tax, rows.Err()
}

func scanTechnologyReads(rows *sql.Rows) ([]models.TechnologyRead, error) {
	defer closeQuietly(rows)

	out := []models.TechnologyRead{}
	for rows.Next() {
		var t models.TechnologyRead
		if err := rows.Scan(&t.ID, &t.Name, &t.Subcategory, &t.Category); err != nil {
			return nil, fmt.Errorf("scan technology: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
