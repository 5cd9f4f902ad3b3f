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

// LookupTable names a table with the (id, name UNIQUE) shape.
type LookupTable string

// Lookup tables exposed through the API.
const (
	LookupCategory     LookupTable = "category"
	LookupTopic        LookupTable = "topic"
	LookupLevel        LookupTable = "level"
	LookupSection      LookupTable = "section"
	LookupSourceType   LookupTable = "sourcetype"
	LookupResourceType LookupTable = "resourcetype"
	LookupTaskType     LookupTable = "task_type"
	LookupTaskStatus   LookupTable = "task_status"
	LookupTaskPriority LookupTable = "task_priority"
)

func (t LookupTable) valid() bool {
	switch t {
	case LookupCategory, LookupTopic, LookupLevel, LookupSection, LookupSourceType,
		LookupResourceType, LookupTaskType, LookupTaskStatus, LookupTaskPriority:
		return true
	}
	return false
}

// ListLookup returns every row of a lookup table ordered by id.
func (db *DB) ListLookup(ctx context.Context, table LookupTable) ([]models.NamedItem, error) {
	if !table.valid() {
		return nil, fmt.Errorf("unknown lookup table %q", table)
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	//nolint:gosec // table is one of the LookupTable constants
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, table))
	if err != nil {
		observe("list_"+string(table), start, err)
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	items, err := scanNamedItems(rows)
	observe("list_"+string(table), start, err)
	return items, err
}

// CreateLookup inserts a name into a lookup table. An existing name,
// compared case-insensitively, yields ErrConflict.
func (db *DB) CreateLookup(ctx context.Context, table LookupTable, name string) (*models.NamedItem, error) {
	if !table.valid() {
		return nil, fmt.Errorf("unknown lookup table %q", table)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalid)
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if _, err := findNamedID(ctx, db.conn, string(table), name); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id, err := getOrCreateNamed(ctx, db.conn, string(table), name)
	if err != nil {
		return nil, err
	}
	return &models.NamedItem{ID: id, Name: name}, nil
}

// LookupID resolves a name case-insensitively, returning ErrNotFound.
func (db *DB) LookupID(ctx context.Context, table LookupTable, name string) (int64, error) {
	if !table.valid() {
		return 0, fmt.Errorf("unknown lookup table %q", table)
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return findNamedID(ctx, db.conn, string(table), name)
}

// LevelID resolves a difficulty level, falling back to "unknown".
func (db *DB) LevelID(ctx context.Context, name string) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return levelID(ctx, db.conn, name)
}

func levelID(ctx context.Context, q querier, name string) (int64, error) {
	if strings.TrimSpace(name) != "" {
		id, err := findNamedID(ctx, q, "level", name)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
	}
	return getOrCreateNamed(ctx, q, "level", models.LevelUnknown)
}

// optionalLevelID returns nil for an empty level name.
func optionalLevelID(ctx context.Context, q querier, name string) (*int64, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	id, err := levelID(ctx, q, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// findNamedID returns the lowest id whose name matches case-insensitively.
func findNamedID(ctx context.Context, q querier, table, name string) (int64, error) {
	var id int64
	//nolint:gosec // table names are package constants
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`, table),
		strings.TrimSpace(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find %s %q: %w", table, name, err)
	}
	return id, nil
}

// getOrCreateNamed returns the id of name in table, inserting it first when
// no case-insensitive match exists.
func getOrCreateNamed(ctx context.Context, q querier, table, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty %s name", ErrInvalid, table)
	}

	id, err := findNamedID(ctx, q, table, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	//nolint:gosec // table names are package constants
	if _, err := q.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table), name); err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", table, name, err)
	}
	return findNamedID(ctx, q, table, name)
}

// getOrCreateSubcategory returns the id of a subcategory under categoryID.
func getOrCreateSubcategory(ctx context.Context, q querier, categoryID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty subcategory name", ErrInvalid)
	}

	id, err := findSubcategoryID(ctx, q, categoryID, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return id, err
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO subcategory (name, category_id) VALUES ($1, $2) ON CONFLICT (category_id, name) DO NOTHING`,
		name, categoryID); err != nil {
		return 0, fmt.Errorf("insert subcategory %q: %w", name, err)
	}
	return findSubcategoryID(ctx, q, categoryID, name)
}

func findSubcategoryID(ctx context.Context, q querier, categoryID int64, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM subcategory WHERE category_id = $1 AND lower(name) = lower($2) ORDER BY id LIMIT 1`,
		categoryID, strings.TrimSpace(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find subcategory %q: %w", name, err)
	}
	return id, nil
}

// exists reports whether a row with id exists in table.
func exists(ctx context.Context, q querier, table string, id int64) (bool, error) {
	var n int64
	//nolint:gosec // table names are package constants
	if err := q.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = $1`, table), id).Scan(&n); err != nil {
		return false, fmt.Errorf("check %s %d: %w", table, id, err)
	}
	return n > 0, nil
}

// requireIDs returns ErrInvalid when any id is missing from table.
func requireIDs(ctx context.Context, q querier, table string, ids []int64) error {
	for _, id := range ids {
		ok, err := exists(ctx, q, table, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s %d does not exist", ErrInvalid, table, id)
		}
	}
	return nil
}

// requireOptionalID is requireIDs for a single nullable reference.
func requireOptionalID(ctx context.Context, q querier, table string, id *int64) error {
	if id == nil {
		return nil
	}
	return requireIDs(ctx, q, table, []int64{*id})
}

// count returns the row count of table.
func (db *DB) count(ctx context.Context, table string) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var n int64
	//nolint:gosec // table names are package constants
	err := db.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n)
	observe("count_"+table, start, err)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func scanNamedItems(rows *sql.Rows) ([]models.NamedItem, error) {
	defer closeQuietly(rows)

	items := []models.NamedItem{}
	for rows.Next() {
		var item models.NamedItem
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// syncLinks makes the rows of a link table for owner equal to want. Only
// removed pairs are deleted and only new pairs are inserted.
func syncLinks(ctx context.Context, q querier, table, ownerCol, targetCol string, owner int64, want []int64) error {
	//nolint:gosec // table and column names are package constants
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, targetCol, table, ownerCol), owner)
	if err != nil {
		return fmt.Errorf("read %s: %w", table, err)
	}
	current := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			closeQuietly(rows)
			return fmt.Errorf("scan %s: %w", table, err)
		}
		current[id] = true
	}
	closeQuietly(rows)
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read %s: %w", table, err)
	}

	wanted := map[int64]bool{}
	for _, id := range want {
		wanted[id] = true
	}

	for id := range current {
		if wanted[id] {
			continue
		}
		//nolint:gosec // table and column names are package constants
		if _, err := q.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, table, ownerCol, targetCol), owner, id); err != nil {
			return fmt.Errorf("unlink %s: %w", table, err)
		}
	}
	return addLinks(ctx, q, table, ownerCol, targetCol, owner, want, current)
}

// addLinks inserts the pairs in want that are not already present.
func addLinks(ctx context.Context, q querier, table, ownerCol, targetCol string, owner int64, want []int64, present map[int64]bool) error {
	seen := map[int64]bool{}
	for _, id := range want {
		if present[id] || seen[id] {
			continue
		}
		seen[id] = true
		//nolint:gosec // table and column names are package constants
		if _, err := q.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, ownerCol, targetCol),
			owner, id); err != nil {
			return fmt.Errorf("link %s: %w", table, err)
		}
	}
	return nil
}

// placeholders returns "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// dateArg converts an optional Date to a driver value.
func dateArg(d *models.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time
}

// nullableID converts an optional id to a driver value.
func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
