// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package index builds and serves the full-text package-coordinate store
// described in spec.md §4.J/§4.K: a periodic job downloads the Nexus Maven
// index and loads it into a SQLite table with an FTS5 projection, and a
// read-only Searcher answers prefix/phrase queries against it.
package index

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// schema creates the packages table, its three B-tree indexes, the FTS5
// projection, and the triggers that keep the projection synchronized, per
// spec.md §6's persisted-state description.
const schema = `
CREATE TABLE IF NOT EXISTS packages (
	id INTEGER PRIMARY KEY,
	group_id TEXT NOT NULL,
	artifact_id TEXT NOT NULL,
	coordinates TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(group_id, artifact_id)
);
CREATE INDEX IF NOT EXISTS idx_packages_group_id ON packages(group_id);
CREATE INDEX IF NOT EXISTS idx_packages_artifact_id ON packages(artifact_id);
CREATE INDEX IF NOT EXISTS idx_packages_coordinates ON packages(coordinates);

CREATE VIRTUAL TABLE IF NOT EXISTS packages_fts USING fts5(
	group_id, artifact_id, coordinates, content='packages', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS packages_ai AFTER INSERT ON packages BEGIN
	INSERT INTO packages_fts(rowid, group_id, artifact_id, coordinates)
	VALUES (new.id, new.group_id, new.artifact_id, new.coordinates);
END;
CREATE TRIGGER IF NOT EXISTS packages_ad AFTER DELETE ON packages BEGIN
	INSERT INTO packages_fts(packages_fts, rowid, group_id, artifact_id, coordinates)
	VALUES ('delete', old.id, old.group_id, old.artifact_id, old.coordinates);
END;
CREATE TRIGGER IF NOT EXISTS packages_au AFTER UPDATE ON packages BEGIN
	INSERT INTO packages_fts(packages_fts, rowid, group_id, artifact_id, coordinates)
	VALUES ('delete', old.id, old.group_id, old.artifact_id, old.coordinates);
	INSERT INTO packages_fts(rowid, group_id, artifact_id, coordinates)
	VALUES (new.id, new.group_id, new.artifact_id, new.coordinates);
END;
`

// Package is one row of the packages table, per spec.md §3's Index store
// entity.
type Package struct {
	ID         int64
	GroupID    string
	ArtifactID string
}

// Coordinates returns the "groupId:artifactId" form stored alongside the
// split columns.
func (p Package) Coordinates() string {
	return p.GroupID + ":" + p.ArtifactID
}

// OpenWriter opens (creating if absent) the database at path for
// read-write access and ensures the schema exists. Only the Index Builder
// (module J) should hold a writer handle, per spec.md §5's
// single-writer/many-reader discipline.
func OpenWriter(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening index database for write")
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers on one *DB
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrating index schema")
	}
	return db, nil
}

// OpenReader opens the database at path read-only, per spec.md §5 ("the
// live server opens the database read-only").
func OpenReader(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening index database for read")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging index database")
	}
	return db, nil
}
