// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
)

// Metadata is the decoded maven-metadata.xml document for one
// groupId:artifactId, carrying the version list used for version listings
// and dependency range resolution.
type Metadata struct {
	GroupID     string   `xml:"groupId"`
	ArtifactID  string   `xml:"artifactId"`
	Versions    []string `xml:"versioning>versions>version"`
	Latest      string   `xml:"versioning>latest"`
	Release     string   `xml:"versioning>release"`
	LastUpdated string   `xml:"versioning>lastUpdated"`
}

// ParseMetadata decodes a maven-metadata.xml document from r.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	var m Metadata
	d := xml.NewDecoder(r)
	d.Strict = false
	if err := d.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "decoding maven-metadata.xml")
	}
	return &m, nil
}

// HasVersion reports whether v appears verbatim in m's version list.
func (m *Metadata) HasVersion(v string) bool {
	for _, candidate := range m.Versions {
		if candidate == v {
			return true
		}
	}
	return false
}
