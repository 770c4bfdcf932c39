// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/xregistry-gateway/maven-gateway/internal/xregistry"
	"github.com/xregistry-gateway/maven-gateway/internal/xregistry/xregistrytest"
)

// stubRegistry answers Search/Metadata/POM from canned data, for exercising
// the adapter end to end without a live Searcher or upstream.
type stubRegistry struct {
	search   []SearchResult
	metadata map[string]*Metadata
	poms     map[string]*POM
}

func (s *stubRegistry) Search(ctx context.Context, groupID, artifactID, version string, rows, start int) ([]SearchResult, int, error) {
	return s.search, len(s.search), nil
}

func (s *stubRegistry) ReleaseFile(ctx context.Context, groupID, artifactID, version, typ string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRegistry) ReleaseURL(groupID, artifactID, version, typ string) string { return "" }

func (s *stubRegistry) Metadata(ctx context.Context, groupID, artifactID string) (*Metadata, error) {
	m, ok := s.metadata[groupID+":"+artifactID]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

func (s *stubRegistry) POM(ctx context.Context, groupID, artifactID, version string) (*POM, error) {
	p, ok := s.poms[groupID+":"+artifactID+":"+version]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

var _ Registry = (*stubRegistry)(nil)

func newTestRegistry() *stubRegistry {
	return &stubRegistry{
		search: []SearchResult{{GroupID: "junit", ArtifactID: "junit", Version: "4.13.2"}},
		metadata: map[string]*Metadata{
			"junit:junit": {
				GroupID: "junit", ArtifactID: "junit",
				Versions: []string{"4.12", "4.13", "4.13.2"},
				Release:  "4.13.2",
			},
		},
		poms: map[string]*POM{
			"junit:junit:4.13.2": {
				GroupID: "junit", ArtifactID: "junit", Version: "4.13.2", Packaging: "jar",
				Homepage: "https://junit.org/junit4/",
				Licenses: []License{{Name: "Eclipse Public License 1.0", URL: "https://www.eclipse.org/legal/epl-v10.html"}},
			},
		},
	}
}

// newTestHandler builds the full request pipeline in front of a Maven
// adapter backed by reg, mirroring how cmd/registry/main.go wires the
// router, with no bulk Searcher (so ResourceCollection takes the Solr
// fallback path through filterCoordinate).
func newTestHandler(t *testing.T, reg Registry, apiKey string) http.Handler {
	t.Helper()
	adapter, err := NewAdapter(reg, nil, "maven-central", "Maven Central", 1, time.Now())
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	router := mux.NewRouter()
	adapter.AttachToApp(router, xregistry.AttachOptions{Quiet: true})
	return xregistry.Build(xregistry.PipelineConfig{APIKey: apiKey, Quiet: true})(router)
}

func TestResourceCollection_PaginationAndFilter(t *testing.T) {
	handler := newTestHandler(t, newTestRegistry(), "")
	req := xregistrytest.NewRequest(t, "/javaregistries/maven-central/packages?limit=2&offset=0&filter=groupId=junit,artifactId=junit")
	rec, body := xregistrytest.DoJSON(t, handler, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%v)", rec.Code, body)
	}
	entry, ok := body["junit:junit"].(map[string]any)
	if !ok {
		t.Fatalf("expected body[junit:junit] entry, got %v", body)
	}
	if entry["groupId"] != "junit" || entry["artifactId"] != "junit" {
		t.Errorf("entry = %v, want groupId/artifactId junit", entry)
	}
	if link := rec.Header().Get("Link"); link == "" {
		t.Errorf("expected a Link header on a paginated collection response")
	}
}

func TestResourceDetail_Shape(t *testing.T) {
	handler := newTestHandler(t, newTestRegistry(), "")
	req := xregistrytest.NewRequest(t, "/javaregistries/maven-central/packages/junit:junit")
	rec, body := xregistrytest.DoJSON(t, handler, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%v)", rec.Code, body)
	}
	wantXID := "/javaregistries/maven-central/packages/junit:junit/versions/4.13.2"
	if body["xid"] != wantXID {
		t.Errorf("xid = %v, want %v", body["xid"], wantXID)
	}
	if body["self"] == nil {
		t.Errorf("expected a self link in the response body")
	}
	if body["groupId"] != "junit" || body["artifactId"] != "junit" {
		t.Errorf("body = %v, want groupId/artifactId junit", body)
	}
	if body["versionsurl"] == nil {
		t.Errorf("expected a versionsurl field")
	}
}

func TestDetailsSuffix_RejectsXML(t *testing.T) {
	handler := newTestHandler(t, newTestRegistry(), "")
	req := xregistrytest.NewRequest(t, "/javaregistries/maven-central/packages/junit:junit$details")
	req.Header.Set("Accept", "application/xml")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotAcceptable {
		t.Fatalf("status = %d, want 406 (body=%s)", rec.Code, rec.Body.String())
	}
}

func TestAuth_MissingBearerToken(t *testing.T) {
	handler := newTestHandler(t, newTestRegistry(), "s3cret")
	req := xregistrytest.NewRequest(t, "/javaregistries/maven-central/packages/junit:junit")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 (body=%s)", rec.Code, rec.Body.String())
	}

	req = xregistrytest.NewRequest(t, "/javaregistries/maven-central/packages/junit:junit")
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with a valid bearer token (body=%s)", rec.Code, rec.Body.String())
	}
}

func TestResourceDetail_InlineMeta(t *testing.T) {
	handler := newTestHandler(t, newTestRegistry(), "")
	req := xregistrytest.NewRequest(t, "/javaregistries/maven-central/packages/junit:junit?inline=meta")
	rec, body := xregistrytest.DoJSON(t, handler, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%v)", rec.Code, body)
	}
	if _, stillLinked := body["metaurl"]; stillLinked {
		t.Errorf("expected metaurl to be replaced by an inlined meta object")
	}
	meta, ok := body["meta"].(map[string]any)
	if !ok {
		t.Fatalf("expected an inlined meta object, got %v", body["meta"])
	}
	if meta["defaultversionid"] != "4.13.2" {
		t.Errorf("meta.defaultversionid = %v, want 4.13.2", meta["defaultversionid"])
	}
	if meta["readonly"] != true {
		t.Errorf("meta.readonly = %v, want true", meta["readonly"])
	}
	if meta["compatibility"] != "none" {
		t.Errorf("meta.compatibility = %v, want none", meta["compatibility"])
	}
	if xid, _ := meta["xid"].(string); xid == "" || xid[len(xid)-5:] != "/meta" {
		t.Errorf("meta.xid = %v, want a path ending in /meta", meta["xid"])
	}
}
