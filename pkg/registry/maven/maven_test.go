// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import "testing"

func TestReleaseURL(t *testing.T) {
	r := HTTPRegistry{}
	got := r.ReleaseURL("com.google.guava", "guava", "33.4.8-jre", TypePOM)
	want := "https://repo1.maven.org/maven2/com/google/guava/guava/33.4.8-jre/guava-33.4.8-jre.pom"
	if got != want {
		t.Errorf("ReleaseURL() = %v, want %v", got, want)
	}
}

func TestReleaseURL_Metadata(t *testing.T) {
	r := HTTPRegistry{}
	got := r.ReleaseURL("junit", "junit", "", TypeMetadata)
	want := "https://repo1.maven.org/maven2/junit/junit/maven-metadata.xml"
	if got != want {
		t.Errorf("ReleaseURL() = %v, want %v", got, want)
	}
}
