// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package maven provides an interface with Maven Central and the xRegistry
// adapter built on top of it.
package maven

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/xregistry-gateway/maven-gateway/internal/httpx"
	"github.com/xregistry-gateway/maven-gateway/internal/urlx"
)

var (
	searchURL = urlx.MustParse("https://search.maven.org")
	repoURL   = urlx.MustParse("https://repo1.maven.org/maven2/")
)

const (
	// TypePOM is a POM file.
	TypePOM string = ".pom"
	// TypeSources is a sources jar.
	TypeSources string = "-sources.jar"
	// TypeJar is a binary jar.
	TypeJar string = ".jar"
	// TypeJavadoc is a javadoc jar.
	TypeJavadoc string = "-javadoc.jar"
	// TypeModule is a Gradle module descriptor.
	TypeModule string = ".module"
	// TypeMetadata is the maven-metadata.xml descriptor.
	TypeMetadata string = "maven-metadata.xml"
)

// solrSearch is the Solr select response shape documented in spec.md §6.
type solrSearch struct {
	Response solrResponse `json:"response"`
}

type solrResponse struct {
	NumFound int            `json:"numFound"`
	Docs     []SearchResult `json:"docs"`
}

// SearchResult is one Solr "gav" core document.
type SearchResult struct {
	GroupID        string `json:"g"`
	ArtifactID     string `json:"a"`
	Version        string `json:"v"`
	PublishedMilli int64  `json:"timestamp"`
	Files          []string `json:"ec"`
}

// Published converts PublishedMilli to a time.Time.
func (r SearchResult) Published() time.Time {
	return time.UnixMilli(r.PublishedMilli)
}

// Registry is a Maven Central package registry.
type Registry interface {
	Search(ctx context.Context, groupID, artifactID, version string, rows, start int) ([]SearchResult, int, error)
	ReleaseFile(ctx context.Context, groupID, artifactID, version, typ string) (io.ReadCloser, error)
	ReleaseURL(groupID, artifactID, version, typ string) string
	Metadata(ctx context.Context, groupID, artifactID string) (*Metadata, error)
	POM(ctx context.Context, groupID, artifactID, version string) (*POM, error)
}

// HTTPRegistry is a Registry implementation built on search.maven.org and
// repo1.maven.org, with every outbound call routed through an
// httpx.BasicClient (in production, an httpx.ConditionalClient so requests
// are cached and revalidated per spec.md §4.A).
type HTTPRegistry struct {
	Client httpx.BasicClient
}

var _ Registry = &HTTPRegistry{}

// Search issues a Solr "gav" core query against search.maven.org. version
// may be empty to match any version of groupID:artifactID.
func (r HTTPRegistry) Search(ctx context.Context, groupID, artifactID, version string, rows, start int) ([]SearchResult, int, error) {
	q := fmt.Sprintf("g:%s AND a:%s", groupID, artifactID)
	if version != "" {
		q += fmt.Sprintf(" AND v:%s", version)
	}
	u, _ := url.Parse(path.Join("solrsearch", "select"))
	u = searchURL.ResolveReference(u)
	params := u.Query()
	params.Set("q", q)
	params.Set("core", "gav")
	params.Set("rows", fmt.Sprintf("%d", rows))
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("wt", "json")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building search request")
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "searching maven central")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, errors.Errorf("maven search error: %s", resp.Status)
	}
	var s solrSearch
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, 0, errors.Wrap(err, "decoding search response")
	}
	return s.Response.Docs, s.Response.NumFound, nil
}

// ReleaseURL returns the repo1.maven.org URL for one release artifact.
func (r HTTPRegistry) ReleaseURL(groupID, artifactID, version, typ string) string {
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	var filename string
	if typ == TypeMetadata {
		filename = TypeMetadata
	} else {
		filename = fmt.Sprintf("%s-%s%s", artifactID, version, typ)
	}
	relPath := filepath.Join(groupPath, artifactID, version, filename)
	u, _ := url.Parse(relPath)
	return repoURL.ResolveReference(u).String()
}

// ReleaseFile fetches one release artifact's content.
func (r HTTPRegistry) ReleaseFile(ctx context.Context, groupID, artifactID, version, typ string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.ReleaseURL(groupID, artifactID, version, typ), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building release request")
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching release file")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("maven registry error: %s", resp.Status)
	}
	return resp.Body, nil
}

// Metadata fetches and parses groupID:artifactID's maven-metadata.xml.
func (r HTTPRegistry) Metadata(ctx context.Context, groupID, artifactID string) (*Metadata, error) {
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	relPath := filepath.Join(groupPath, artifactID, TypeMetadata)
	u, _ := url.Parse(relPath)
	fullURL := repoURL.ResolveReference(u).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building metadata request")
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching maven-metadata.xml")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("maven registry error: %s", resp.Status)
	}
	return ParseMetadata(resp.Body)
}

// POM fetches and parses one release's project descriptor.
func (r HTTPRegistry) POM(ctx context.Context, groupID, artifactID, version string) (*POM, error) {
	content, err := r.ReleaseFile(ctx, groupID, artifactID, version, TypePOM)
	if err != nil {
		return nil, err
	}
	defer content.Close()
	return ParsePOM(content)
}
