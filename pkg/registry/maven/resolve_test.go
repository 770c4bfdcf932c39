// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
)

// fakeRegistry answers Metadata from a canned map and fails every other
// method, since ResolveDependency only calls Metadata.
type fakeRegistry struct {
	metadata map[string]*Metadata
}

func (f *fakeRegistry) Search(ctx context.Context, groupID, artifactID, version string, rows, start int) ([]SearchResult, int, error) {
	return nil, 0, errors.New("not implemented")
}
func (f *fakeRegistry) ReleaseFile(ctx context.Context, groupID, artifactID, version, typ string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRegistry) ReleaseURL(groupID, artifactID, version, typ string) string { return "" }
func (f *fakeRegistry) POM(ctx context.Context, groupID, artifactID, version string) (*POM, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRegistry) Metadata(ctx context.Context, groupID, artifactID string) (*Metadata, error) {
	m, ok := f.metadata[groupID+":"+artifactID]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

const resourcePath = "/javaregistries/maven-central/packages/com.google.guava:guava"

func TestResolveDependency_ExactVersion(t *testing.T) {
	reg := &fakeRegistry{metadata: map[string]*Metadata{
		"com.google.guava:guava": {Versions: []string{"32.0.0-jre", "33.0.0-jre"}},
	}}
	dep := Dependency{GroupID: "com.google.guava", ArtifactID: "guava", Version: "33.0.0-jre"}
	got := ResolveDependency(context.Background(), reg, dep, resourcePath)
	if got.ResolvedVersion != "33.0.0-jre" {
		t.Errorf("ResolvedVersion = %q, want 33.0.0-jre", got.ResolvedVersion)
	}
	if got.Package != resourcePath+"/versions/33.0.0-jre" {
		t.Errorf("Package = %q", got.Package)
	}
}

func TestResolveDependency_BracketedExactVersion(t *testing.T) {
	reg := &fakeRegistry{metadata: map[string]*Metadata{
		"com.google.guava:guava": {Versions: []string{"33.0.0-jre"}},
	}}
	dep := Dependency{GroupID: "com.google.guava", ArtifactID: "guava", Version: "[33.0.0-jre]"}
	got := ResolveDependency(context.Background(), reg, dep, resourcePath)
	if got.ResolvedVersion != "33.0.0-jre" {
		t.Errorf("ResolvedVersion = %q, want 33.0.0-jre", got.ResolvedVersion)
	}
}

func TestResolveDependency_OpenRangePrefersNonSnapshot(t *testing.T) {
	reg := &fakeRegistry{metadata: map[string]*Metadata{
		"com.google.guava:guava": {Versions: []string{"31.0.0-jre", "32.0.0-jre", "33.0.0-SNAPSHOT"}},
	}}
	dep := Dependency{GroupID: "com.google.guava", ArtifactID: "guava", Version: "[31.0.0-jre,)"}
	got := ResolveDependency(context.Background(), reg, dep, resourcePath)
	if got.ResolvedVersion != "32.0.0-jre" {
		t.Errorf("ResolvedVersion = %q, want 32.0.0-jre (newest non-SNAPSHOT >= min)", got.ResolvedVersion)
	}
}

func TestResolveDependency_OpenRangeFallsBackToSnapshot(t *testing.T) {
	reg := &fakeRegistry{metadata: map[string]*Metadata{
		"com.google.guava:guava": {Versions: []string{"33.0.0-SNAPSHOT"}},
	}}
	dep := Dependency{GroupID: "com.google.guava", ArtifactID: "guava", Version: "[31.0.0-jre,)"}
	got := ResolveDependency(context.Background(), reg, dep, resourcePath)
	if got.ResolvedVersion != "33.0.0-SNAPSHOT" {
		t.Errorf("ResolvedVersion = %q, want 33.0.0-SNAPSHOT (only candidate)", got.ResolvedVersion)
	}
}

func TestResolveDependency_BaseArtifactOnly(t *testing.T) {
	reg := &fakeRegistry{metadata: map[string]*Metadata{
		"com.google.guava:guava": {Versions: []string{"1.0.0"}},
	}}
	dep := Dependency{GroupID: "com.google.guava", ArtifactID: "guava", Version: "${revision}"}
	got := ResolveDependency(context.Background(), reg, dep, resourcePath)
	if got.ResolvedVersion != "" {
		t.Errorf("ResolvedVersion = %q, want empty", got.ResolvedVersion)
	}
	if got.Package != resourcePath {
		t.Errorf("Package = %q, want base resource path", got.Package)
	}
}

func TestResolveDependency_Unresolvable(t *testing.T) {
	reg := &fakeRegistry{metadata: map[string]*Metadata{}}
	dep := Dependency{GroupID: "com.unknown", ArtifactID: "nope", Version: "1.0.0"}
	got := ResolveDependency(context.Background(), reg, dep, "/javaregistries/maven-central/packages/com.unknown:nope")
	if got.Package != "" {
		t.Errorf("Package = %q, want empty", got.Package)
	}
}

func TestResolveDependency_ScopeAndOptionalDefaults(t *testing.T) {
	reg := &fakeRegistry{metadata: map[string]*Metadata{}}
	dep := Dependency{GroupID: "g", ArtifactID: "a", Version: "1.0.0"}
	got := ResolveDependency(context.Background(), reg, dep, "/p")
	if got.Scope != "compile" {
		t.Errorf("Scope = %q, want compile", got.Scope)
	}
	if got.Optional {
		t.Errorf("Optional = true, want false")
	}
}

var _ Registry = (*fakeRegistry)(nil)
