// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"context"
	"regexp"
	"strings"
)

// ResolvedDependency is one POM dependency after spec.md §4.I's
// resolution algorithm has run. Package is the xRegistry-relative path
// (not yet absolutized) the dependency's xid field should carry: a
// version-specific path when resolved, the bare resource path when only
// existence could be confirmed, or "" when neither could be established.
type ResolvedDependency struct {
	GroupID         string
	ArtifactID      string
	Scope           string
	Optional        bool
	ResolvedVersion string
	Package         string
}

var (
	exactVersion = regexp.MustCompile(`^\[?([^,\[\]]+)\]?$`)
	openRange    = regexp.MustCompile(`^\[\s*([^,\[\]]+)\s*,\s*\)$`)
)

// ResolveDependency implements spec.md §4.I's four-branch algorithm.
// resourcePath is the unversioned xRegistry path of the dependency's own
// resource (e.g. "/javaregistries/maven-central/packages/junit:junit"),
// used to build the "package" cross-reference.
func ResolveDependency(ctx context.Context, reg Registry, dep Dependency, resourcePath string) ResolvedDependency {
	out := ResolvedDependency{
		GroupID:    dep.GroupID,
		ArtifactID: dep.ArtifactID,
		Scope:      dep.EffectiveScope(),
		Optional:   bool(dep.Optional),
	}

	version := strings.TrimSpace(dep.Version)
	meta, metaErr := reg.Metadata(ctx, dep.GroupID, dep.ArtifactID)

	if m := exactVersion.FindStringSubmatch(version); m != nil && !strings.Contains(version, ",") {
		candidate := strings.TrimSpace(m[1])
		if metaErr == nil && meta.HasVersion(candidate) {
			out.ResolvedVersion = candidate
			out.Package = resourcePath + "/versions/" + candidate
			return out
		}
	} else if m := openRange.FindStringSubmatch(version); m != nil {
		minVer := strings.TrimSpace(m[1])
		if metaErr == nil {
			if best, ok := newestAtLeast(meta.Versions, minVer); ok {
				out.ResolvedVersion = best
				out.Package = resourcePath + "/versions/" + best
				return out
			}
		}
	}

	// Branch 3: the base artifact's existence could be confirmed (its
	// maven-metadata.xml fetched successfully) even though the declared
	// version range did not resolve to a specific release.
	if metaErr == nil {
		out.Package = resourcePath
		return out
	}

	// Branch 4: existence could not be confirmed; leave Package empty.
	return out
}

// newestAtLeast picks the newest version in versions that is >= minVer by
// CompareVersions, preferring a non-SNAPSHOT release when one qualifies,
// per spec.md §4.I step 2.
func newestAtLeast(versions []string, minVer string) (string, bool) {
	var bestAny, bestStable string
	haveAny, haveStable := false, false
	for _, v := range versions {
		if CompareVersions(v, minVer) < 0 {
			continue
		}
		if !haveAny || CompareVersions(v, bestAny) > 0 {
			bestAny = v
			haveAny = true
		}
		if !strings.Contains(strings.ToUpper(v), "SNAPSHOT") {
			if !haveStable || CompareVersions(v, bestStable) > 0 {
				bestStable = v
				haveStable = true
			}
		}
	}
	if haveStable {
		return bestStable, true
	}
	if haveAny {
		return bestAny, true
	}
	return "", false
}
