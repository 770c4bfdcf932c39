// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"context"
	"path/filepath"
	"testing"
)

// seedFixture loads the {(org.junit, junit), (junit, junit), (io.grpc,
// grpc-core)} fixture from spec.md §8's FTS-correctness scenario.
func seedFixture(t *testing.T) *Searcher {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := OpenWriter(path)
	if err != nil {
		t.Fatalf("OpenWriter() error = %v", err)
	}
	rows := [][2]string{
		{"org.junit", "junit"},
		{"junit", "junit"},
		{"io.grpc", "grpc-core"},
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO packages(group_id, artifact_id, coordinates) VALUES (?, ?, ?)`,
			r[0], r[1], r[0]+":"+r[1]); err != nil {
			t.Fatalf("seeding row %v: %v", r, err)
		}
	}
	db.Close()

	s, err := OpenSearcher(path)
	if err != nil {
		t.Fatalf("OpenSearcher() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSearch_PrefixMatchOnArtifactID(t *testing.T) {
	s := seedFixture(t)
	res, err := s.Search(context.Background(), Query{Text: "junit"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(res.Results))
	}
}

func TestSearch_CoordinatePair(t *testing.T) {
	s := seedFixture(t)
	res, err := s.Search(context.Background(), Query{Text: "org.junit:junit"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(res.Results))
	}
}

func TestSearch_PrefixMatchShortTerm(t *testing.T) {
	s := seedFixture(t)
	res, err := s.Search(context.Background(), Query{Text: "gr"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].ArtifactID != "grpc-core" {
		t.Fatalf("Results = %+v, want one grpc-core hit", res.Results)
	}
}

func TestSearch_ExactMatchOnField(t *testing.T) {
	s := seedFixture(t)
	res, err := s.Search(context.Background(), Query{
		Text: "junit", ExactMatch: true, Field: "artifact_id",
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(res.Results))
	}
}

func TestSearch_EmptyQueryPaginatesFullTable(t *testing.T) {
	s := seedFixture(t)
	res, err := s.Search(context.Background(), Query{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.TotalCount != 3 {
		t.Fatalf("TotalCount = %d, want 3", res.TotalCount)
	}
	if !res.HasMore {
		t.Fatalf("HasMore = false, want true (2 of 3 returned)")
	}
}

func TestSearch_UnknownSortFallsBackToCoordinatesAsc(t *testing.T) {
	s := seedFixture(t)
	res, err := s.Search(context.Background(), Query{SortBy: "bogus", SortOrder: "bogus"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	var prev string
	for _, row := range res.Results {
		if prev != "" && row.Coordinates < prev {
			t.Fatalf("results not sorted ascending by coordinates: %q before %q", prev, row.Coordinates)
		}
		prev = row.Coordinates
	}
}
