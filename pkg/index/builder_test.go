// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"

	"github.com/xregistry-gateway/maven-gateway/internal/httpx/httpxtest"
)

func TestParseFldLine(t *testing.T) {
	tests := []struct {
		line         string
		wantGroup    string
		wantArtifact string
		wantOK       bool
	}{
		{"value org.junit|junit|jar", "org.junit", "junit", true},
		{"value junit|junit", "junit", "junit", true},
		{"not a value line", "", "", false},
		{"value onlyone", "", "", false},
		{"value |junit", "", "", false},
	}
	for _, tc := range tests {
		g, a, ok := parseFldLine(tc.line)
		if ok != tc.wantOK || g != tc.wantGroup || a != tc.wantArtifact {
			t.Errorf("parseFldLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.line, g, a, ok, tc.wantGroup, tc.wantArtifact, tc.wantOK)
		}
	}
}

func TestBuild_EndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	workFS := memfs.New()

	client := &httpxtest.MockClient{
		SkipURLValidation: true,
		Calls: []httpxtest.Call{{
			Response: &http.Response{
				StatusCode: http.StatusOK,
				Status:     "200 OK",
				Header:     http.Header{},
				Body:       httpxtest.Body("fake-gzip-bytes"),
			},
		}},
	}

	fakeExtract := func(ctx context.Context, dir string) error {
		f, err := workFS.Create("export/nexus-maven-repository-index.fld")
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.Write([]byte("value org.junit|junit|jar\nvalue io.grpc|grpc-core|jar\nvalue org.junit|junit|jar\n"))
		return err
	}

	err := Build(context.Background(), BuilderConfig{
		DBPath:  dbPath,
		WorkDir: workFS,
		Client:  client,
		Extract: fakeExtract,
		Force:   true,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	s, err := OpenSearcher(dbPath)
	if err != nil {
		t.Fatalf("OpenSearcher() error = %v", err)
	}
	defer s.Close()

	res, err := s.Search(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2 (deduplicated)", res.TotalCount)
	}
}

func TestBuild_SkipsWhenFresh(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	db, err := OpenWriter(dbPath)
	if err != nil {
		t.Fatalf("OpenWriter() error = %v", err)
	}
	db.Close()

	called := false
	err = Build(context.Background(), BuilderConfig{
		DBPath:    dbPath,
		Freshness: time.Hour,
		Client: &httpxtest.MockClient{
			SkipURLValidation: true,
			Calls: []httpxtest.Call{{Response: &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Header: http.Header{}, Body: httpxtest.Body("")}}},
		},
		Extract: func(ctx context.Context, dir string) error { called = true; return nil },
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if called {
		t.Fatal("Build() invoked the extractor despite a fresh database being present")
	}
}

func TestIsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	if fresh, err := isFresh(path, time.Hour); err != nil || fresh {
		t.Fatalf("isFresh() on missing file = (%v, %v), want (false, nil)", fresh, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if fresh, err := isFresh(path, time.Hour); err != nil || !fresh {
		t.Fatalf("isFresh() on new file = (%v, %v), want (true, nil)", fresh, err)
	}
}
