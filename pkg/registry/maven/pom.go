// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// TruthyBool decodes a Maven POM boolean, which upstream sometimes writes
// as a bare "true"/"false" string element rather than a real XML boolean.
// Grounded on the same upstream quirk google-deps.dev's POM model works
// around for the <optional> dependency element.
type TruthyBool bool

// UnmarshalXML decodes the element's character data as a bool, treating
// any unparsable or empty value as false rather than failing the whole
// document.
func (t *TruthyBool) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		*t = false
		return nil
	}
	*t = TruthyBool(b)
	return nil
}

// Organization is a POM's <organization> element.
type Organization struct {
	Name string `xml:"name"`
	URL  string `xml:"url"`
}

// Developer is one entry of a POM's <developers> list.
type Developer struct {
	Name  string `xml:"name"`
	Email string `xml:"email"`
}

// License is one entry of a POM's <licenses> list.
type License struct {
	Name string `xml:"name"`
	URL  string `xml:"url"`
}

// SCM is a POM's <scm> element.
type SCM struct {
	URL                 string `xml:"url"`
	Connection          string `xml:"connection"`
	DeveloperConnection string `xml:"developerConnection"`
}

// IssueManagement is a POM's <issueManagement> element.
type IssueManagement struct {
	System string `xml:"system"`
	URL    string `xml:"url"`
}

// Dependency is one entry of a POM's <dependencies> list, prior to
// resolution (see resolve.go for resolved_version/package).
type Dependency struct {
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Version    string     `xml:"version"`
	Scope      string     `xml:"scope"`
	Optional   TruthyBool `xml:"optional"`
}

// EffectiveScope returns Scope, defaulting to "compile" per spec.md §4.I.
func (d Dependency) EffectiveScope() string {
	if d.Scope == "" {
		return "compile"
	}
	return d.Scope
}

// POM is a decoded Maven project descriptor. Repeated children
// (dependencies/dependency, developers/developer, licenses/license) always
// decode to slices, even for a single child, because Go's encoding/xml
// naturally produces a one-element slice for a singular repeated tag —
// unlike some upstream POM tooling that collapses a single child to a bare
// object, this never needs special-casing on the reader's side.
type POM struct {
	XMLName         xml.Name        `xml:"project"`
	GroupID         string          `xml:"groupId"`
	ArtifactID      string          `xml:"artifactId"`
	Version         string          `xml:"version"`
	Packaging       string          `xml:"packaging"`
	Homepage        string          `xml:"url"`
	Organization    Organization    `xml:"organization"`
	Developers      []Developer     `xml:"developers>developer"`
	Licenses        []License       `xml:"licenses>license"`
	SCM             SCM             `xml:"scm"`
	Dependencies    []Dependency    `xml:"dependencies>dependency"`
	IssueManagement IssueManagement `xml:"issueManagement"`
}

// ParsePOM decodes a POM document from r. The POM field tags carry no
// namespace, so encoding/xml matches elements by local name whatever
// namespace the document declares.
func ParsePOM(r io.Reader) (*POM, error) {
	var p POM
	d := xml.NewDecoder(r)
	d.Strict = false
	if err := d.Decode(&p); err != nil {
		return nil, errors.Wrap(err, "decoding pom")
	}
	return &p, nil
}
