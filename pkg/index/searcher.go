// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Searcher answers coordinate-prefix/phrase queries against a database
// built by Build, opened read-only per spec.md §5.
type Searcher struct {
	db *sql.DB
}

// OpenSearcher opens the database at path read-only.
func OpenSearcher(path string) (*Searcher, error) {
	db, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	return &Searcher{db: db}, nil
}

// NewSearcher wraps an already-open database handle, useful for tests that
// build a database in-process.
func NewSearcher(db *sql.DB) *Searcher {
	return &Searcher{db: db}
}

// Close releases the underlying database handle.
func (s *Searcher) Close() error {
	return s.db.Close()
}

var sortColumns = map[string]string{
	"group_id":    "group_id",
	"artifact_id": "artifact_id",
	"coordinates": "coordinates",
}

// Query describes one search request, per spec.md §4.K.
type Query struct {
	Text       string
	Limit      int
	Offset     int
	ExactMatch bool
	Field      string
	SortBy     string
	SortOrder  string
}

// Result is the search envelope spec.md §4.K requires.
type Result struct {
	Results    []PackageRow
	TotalCount int
	HasMore    bool
}

// PackageRow is one search hit.
type PackageRow struct {
	ID          int64  `json:"id"`
	GroupID     string `json:"groupId"`
	ArtifactID  string `json:"artifactId"`
	Coordinates string `json:"coordinates"`
}

// Search implements spec.md §4.K: exact-match equality, or an FTS5 prefix
// /phrase query when exactMatch is false and Text is non-empty; the full
// table, paginated, when Text is empty.
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	sortCol, sortOrder := normalizeSort(q.SortBy, q.SortOrder)
	limit, offset := q.Limit, q.Offset
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var countRow *sql.Row
	var err error

	switch {
	case q.Text == "":
		countRow = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM packages`)
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(
			`SELECT id, group_id, artifact_id, coordinates FROM packages ORDER BY %s %s LIMIT ? OFFSET ?`,
			sortCol, sortOrder), limit, offset)
	case q.ExactMatch:
		field := q.Field
		if field == "" {
			field = "coordinates"
		}
		col, ok := sortColumns[field]
		if !ok {
			col = "coordinates"
		}
		countRow = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM packages WHERE %s = ?`, col), q.Text)
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(
			`SELECT id, group_id, artifact_id, coordinates FROM packages WHERE %s = ? ORDER BY %s %s LIMIT ? OFFSET ?`,
			col, sortCol, sortOrder), q.Text, limit, offset)
	default:
		match := prepareFTSQuery(q.Text)
		if match == "" {
			return &Result{Results: []PackageRow{}, TotalCount: 0}, nil
		}
		countRow = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM packages_fts WHERE packages_fts MATCH ?`, match)
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(
			`SELECT p.id, p.group_id, p.artifact_id, p.coordinates
			 FROM packages_fts JOIN packages p ON p.id = packages_fts.rowid
			 WHERE packages_fts MATCH ? ORDER BY p.%s %s LIMIT ? OFFSET ?`,
			sortCol, sortOrder), match, limit, offset)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying index")
	}
	defer rows.Close()

	var out []PackageRow
	for rows.Next() {
		var row PackageRow
		if err := rows.Scan(&row.ID, &row.GroupID, &row.ArtifactID, &row.Coordinates); err != nil {
			return nil, errors.Wrap(err, "scanning index row")
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating index rows")
	}
	if out == nil {
		out = []PackageRow{}
	}

	var total int
	if err := countRow.Scan(&total); err != nil {
		return nil, errors.Wrap(err, "counting index rows")
	}

	return &Result{
		Results:    out,
		TotalCount: total,
		HasMore:    offset+len(out) < total,
	}, nil
}

// normalizeSort implements spec.md §4.K's restriction: sortBy must be one
// of group_id/artifact_id/coordinates and sortOrder one of ASC/DESC, or
// both fall back to "coordinates ASC" together.
func normalizeSort(sortBy, sortOrder string) (string, string) {
	col, ok := sortColumns[sortBy]
	order := strings.ToUpper(sortOrder)
	if !ok || (order != "ASC" && order != "DESC") {
		return "coordinates", "ASC"
	}
	return col, order
}

var ftsAllowed = regexp.MustCompile(`[^\w\-_.:\s]`)

// prepareFTSQuery implements spec.md §4.K's query-preparation rules:
// strip disallowed characters, split a "groupId:artifactId" query into an
// ANDed pair, and turn remaining terms into prefix matches.
func prepareFTSQuery(text string) string {
	cleaned := ftsAllowed.ReplaceAllString(text, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ""
	}
	if strings.Contains(cleaned, ":") {
		parts := strings.SplitN(cleaned, ":", 2)
		g, a := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if g == "" || a == "" {
			return ""
		}
		return fmt.Sprintf(`%q AND %q`, g, a)
	}
	terms := strings.Fields(cleaned)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf(`%q*`, t)
	}
	return strings.Join(quoted, " AND ")
}
