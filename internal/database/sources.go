// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/techstack/internal/models"
)

// ListPeople returns every person ordered by name.
func (db *DB) ListPeople(ctx context.Context) ([]models.Person, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, COALESCE(website, '') FROM person ORDER BY name`)
	if err != nil {
		observe("list_people", start, err)
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer closeQuietly(rows)

	people := []models.Person{}
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Website); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, p)
	}
	observe("list_people", start, rows.Err())
	return people, rows.Err()
}

// CreatePerson inserts a person; an existing name yields ErrConflict.
func (db *DB) CreatePerson(ctx context.Context, in models.PersonCreate) (*models.Person, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if _, err := findNamedID(ctx, db.conn, "person", in.Name); err == nil {
		return nil, ErrConflict
	}
	id, err := getOrCreatePerson(ctx, db.conn, in.Name, in.Website)
	if err != nil {
		return nil, err
	}
	return &models.Person{ID: id, Name: strings.TrimSpace(in.Name), Website: in.Website}, nil
}

func getOrCreatePerson(ctx context.Context, q querier, name, website string) (int64, error) {
	id, err := getOrCreateNamed(ctx, q, "person", name)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(website) != "" {
		if _, err := q.ExecContext(ctx,
			`UPDATE person SET website = $1 WHERE id = $2 AND (website IS NULL OR website = '')`, website, id); err != nil {
			return 0, fmt.Errorf("update person website: %w", err)
		}
	}
	return id, nil
}

// CountPeople returns the number of people.
func (db *DB) CountPeople(ctx context.Context) (int64, error) {
	return db.count(ctx, "person")
}

// ListSources returns every source with its type name.
func (db *DB) ListSources(ctx context.Context) ([]models.Source, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.id, s.name, COALESCE(st.name, ''), COALESCE(s.website, ''), COALESCE(s.image_url, '')
		FROM source s
		LEFT JOIN sourcetype st ON st.id = s.sourcetype_id
		ORDER BY s.name`)
	if err != nil {
		observe("list_sources", start, err)
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer closeQuietly(rows)

	sources := []models.Source{}
	for rows.Next() {
		var s models.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.SourceType, &s.Website, &s.ImageURL); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, s)
	}
	observe("list_sources", start, rows.Err())
	return sources, rows.Err()
}

// CreateSource inserts a source, creating its source type on demand. An
// existing name yields ErrConflict.
func (db *DB) CreateSource(ctx context.Context, in models.SourceCreate) (*models.Source, error) {
	var out *models.Source
	err := db.inTx(ctx, "create_source", func(q querier) error {
		if _, err := findNamedID(ctx, q, "source", in.Name); err == nil {
			return ErrConflict
		}
		id, err := upsertSource(ctx, q, in)
		if err != nil {
			return err
		}
		out = &models.Source{ID: id, Name: strings.TrimSpace(in.Name), SourceType: in.SourceType, Website: in.Website, ImageURL: in.ImageURL}
		return nil
	})
	return out, err
}

// upsertSource finds a source by name and overwrites the non-empty fields of in.
func upsertSource(ctx context.Context, q querier, in models.SourceCreate) (int64, error) {
	var typeID *int64
	if strings.TrimSpace(in.SourceType) != "" {
		id, err := getOrCreateNamed(ctx, q, "sourcetype", in.SourceType)
		if err != nil {
			return 0, err
		}
		typeID = &id
	}

	id, err := getOrCreateNamed(ctx, q, "source", in.Name)
	if err != nil {
		return 0, err
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE source SET
			sourcetype_id = COALESCE($1, sourcetype_id),
			website = COALESCE($2, website),
			image_url = COALESCE($3, image_url)
		WHERE id = $4`,
		nullableID(typeID), nullString(in.Website), nullString(in.ImageURL), id); err != nil {
		return 0, fmt.Errorf("update source: %w", err)
	}
	return id, nil
}

// CountSources returns the number of sources.
func (db *DB) CountSources(ctx context.Context) (int64, error) {
	return db.count(ctx, "source")
}

// ListPublications returns every publication with its source name.
func (db *DB) ListPublications(ctx context.Context) ([]models.Publication, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT p.id, p.name, p.source_id, COALESCE(s.name, '')
		FROM publication p
		LEFT JOIN source s ON s.id = p.source_id
		ORDER BY s.name, p.name`)
	if err != nil {
		observe("list_publications", start, err)
		return nil, fmt.Errorf("list publications: %w", err)
	}
	defer closeQuietly(rows)

	pubs := []models.Publication{}
	for rows.Next() {
		var p models.Publication
		if err := rows.Scan(&p.ID, &p.Name, &p.SourceID, &p.Source); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		pubs = append(pubs, p)
	}
	observe("list_publications", start, rows.Err())
	return pubs, rows.Err()
}

func getOrCreatePublication(ctx context.Context, q querier, sourceID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	find := func() (int64, error) {
		var id int64
		err := q.QueryRowContext(ctx,
			`SELECT id FROM publication WHERE source_id = $1 AND lower(name) = lower($2) ORDER BY id LIMIT 1`,
			sourceID, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return id, err
	}

	id, err := find()
	if err == nil || !errors.Is(err, ErrNotFound) {
		return id, err
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO publication (name, source_id) VALUES ($1, $2) ON CONFLICT (source_id, name) DO NOTHING`,
		name, sourceID); err != nil {
		return 0, fmt.Errorf("insert publication: %w", err)
	}
	return find()
}

const resourceSelect = `
	SELECT r.id, r.title, COALESCE(r.description, ''), COALESCE(rt.name, ''),
		COALESCE(r.url, ''), COALESCE(r.image_url, ''), r.published_at,
		r.source_id, COALESCE(s.name, ''), COALESCE(st.name, ''), COALESCE(s.website, ''), COALESCE(s.image_url, ''),
		COALESCE(p.name, '')
	FROM resource r
	LEFT JOIN resourcetype rt ON rt.id = r.resourcetype_id
	LEFT JOIN source s ON s.id = r.source_id
	LEFT JOIN sourcetype st ON st.id = s.sourcetype_id
	LEFT JOIN publication p ON p.id = r.publication_id`

func scanResource(scan func(dest ...any) error) (models.Resource, error) {
	var (
		r         models.Resource
		published sql.NullTime
		sourceID  sql.NullInt64
		src       models.Source
	)
	if err := scan(&r.ID, &r.Title, &r.Description, &r.ResourceType, &r.URL, &r.ImageURL, &published,
		&sourceID, &src.Name, &src.SourceType, &src.Website, &src.ImageURL, &r.Publication); err != nil {
		return r, err
	}
	if published.Valid {
		t := published.Time.UTC()
		r.PublishedAt = &t
	}
	if sourceID.Valid {
		src.ID = sourceID.Int64
		r.Source = &src
	}
	r.Authors = []string{}
	return r, nil
}

// ListResources returns a page of resources, newest first.
func (db *DB) ListResources(ctx context.Context, limit, offset int) ([]models.Resource, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, resourceSelect+` ORDER BY r.id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		observe("list_resources", start, err)
		return nil, fmt.Errorf("list resources: %w", err)
	}

	resources := []models.Resource{}
	for rows.Next() {
		r, err := scanResource(rows.Scan)
		if err != nil {
			closeQuietly(rows)
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	closeQuietly(rows)
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range resources {
		authors, err := resourceAuthors(ctx, db.conn, resources[i].ID)
		if err != nil {
			return nil, err
		}
		resources[i].Authors = authors
	}
	observe("list_resources", start, nil)
	return resources, nil
}

// GetResource returns a resource with its source and authors.
func (db *DB) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return getResource(ctx, db.conn, id)
}

func getResource(ctx context.Context, q querier, id int64) (*models.Resource, error) {
	r, err := scanResource(q.QueryRowContext(ctx, resourceSelect+` WHERE r.id = $1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resource %d: %w", id, err)
	}
	if r.Authors, err = resourceAuthors(ctx, q, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func resourceAuthors(ctx context.Context, q querier, resourceID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT p.name FROM resource_author ra
		JOIN person p ON p.id = ra.person_id
		WHERE ra.resource_id = $1
		ORDER BY p.name`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("resource authors: %w", err)
	}
	defer closeQuietly(rows)

	authors := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		authors = append(authors, name)
	}
	return authors, rows.Err()
}

// CreateResource inserts a resource and its authors. A URL that already
// exists yields ErrConflict.
func (db *DB) CreateResource(ctx context.Context, in models.ResourceCreate) (*models.Resource, error) {
	var id int64
	err := db.inTx(ctx, "create_resource", func(q querier) error {
		if in.URL != "" {
			if _, err := findResourceByURL(ctx, q, in.URL); err == nil {
				return ErrConflict
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		}
		if err := requireOptionalID(ctx, q, "source", in.SourceID); err != nil {
			return err
		}

		var typeID *int64
		if strings.TrimSpace(in.ResourceType) != "" {
			tid, err := getOrCreateNamed(ctx, q, "resourcetype", in.ResourceType)
			if err != nil {
				return err
			}
			typeID = &tid
		}

		if err := q.QueryRowContext(ctx, `
			INSERT INTO resource (title, description, resourcetype_id, url, source_id, image_url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			in.Title, in.Description, nullableID(typeID), nullString(in.URL), nullableID(in.SourceID),
			nullString(in.ImageURL), time.Now().UTC()).Scan(&id); err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}
		return linkAuthors(ctx, q, "resource_author", "resource_id", id, in.Authors)
	})
	if err != nil {
		return nil, err
	}
	return db.GetResource(ctx, id)
}

func findResourceByURL(ctx context.Context, q querier, url string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM resource WHERE url = $1`, url).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find resource by url: %w", err)
	}
	return id, nil
}

// linkAuthors creates people for names and links them through table.
func linkAuthors(ctx context.Context, q querier, table, ownerCol string, owner int64, names []string) error {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		id, err := getOrCreatePerson(ctx, q, name, "")
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	return addLinks(ctx, q, table, ownerCol, "person_id", owner, ids, nil)
}

// CountResources returns the number of resources.
func (db *DB) CountResources(ctx context.Context) (int64, error) {
	return db.count(ctx, "resource")
}
