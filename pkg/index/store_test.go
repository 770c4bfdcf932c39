// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"path/filepath"
	"testing"
)

func TestOpenWriter_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := OpenWriter(path)
	if err != nil {
		t.Fatalf("OpenWriter() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO packages(group_id, artifact_id, coordinates) VALUES (?, ?, ?)`,
		"junit", "junit", "junit:junit"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM packages_fts WHERE packages_fts MATCH 'junit'`).Scan(&count); err != nil {
		t.Fatalf("fts query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("fts count = %d, want 1", count)
	}
}

func TestOpenWriter_DuplicateCoordinatesIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := OpenWriter(path)
	if err != nil {
		t.Fatalf("OpenWriter() error = %v", err)
	}
	defer db.Close()

	insert := `INSERT OR IGNORE INTO packages(group_id, artifact_id, coordinates) VALUES (?, ?, ?)`
	if _, err := db.Exec(insert, "junit", "junit", "junit:junit"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := db.Exec(insert, "junit", "junit", "junit:junit"); err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM packages`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("packages count = %d, want 1 (unique constraint should dedupe)", count)
	}
}
