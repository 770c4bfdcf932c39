// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package xregistry

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AttrType is the declared semantic type of a model attribute.
type AttrType string

const (
	AttrString  AttrType = "string"
	AttrNumber  AttrType = "number"
	AttrBoolean AttrType = "boolean"
	AttrObject  AttrType = "object"
	AttrArray   AttrType = "array"
	AttrXID     AttrType = "xid"
)

// Attribute describes one declared field of a resource type: its name,
// semantic type, whether it is optional, and (for object/array/xid types)
// the nested shape it carries.
type Attribute struct {
	Name       string      `yaml:"name"`
	Type       AttrType    `yaml:"type"`
	Target     string      `yaml:"target,omitempty"`
	Optional   bool        `yaml:"optional,omitempty"`
	Item       *Attribute  `yaml:"item,omitempty"`
	Properties []Attribute `yaml:"properties,omitempty"`
}

// Model is a group type's declarative resource schema, as loaded from an
// adapter's embedded YAML document and rewritten with the adapter's
// configured plural/singular names.
type Model struct {
	GroupPlural      string      `yaml:"groupplural"`
	GroupSingular    string      `yaml:"groupsingular"`
	ResourcePlural   string      `yaml:"resourceplural"`
	ResourceSingular string      `yaml:"resourcesingular"`
	Attributes       []Attribute `yaml:"attributes"`
}

// AttributeByName returns the Attribute named name, or false if not
// declared.
func (m *Model) AttributeByName(name string) (Attribute, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

type modelDocument struct {
	Model Model `yaml:"model"`
}

// LoadModel parses a YAML document of the shape:
//
//	model:
//	  groupplural: "{groupplural}"
//	  resourceplural: "{resourceplural}"
//	  attributes: [...]
//
// and rewrites every "{groupplural}"/"{groupsingular}"/"{resourceplural}"/
// "{resourcesingular}" placeholder — including those nested inside an
// attribute's xid target — with the adapter's configured names. It fails
// fast (returns a non-nil error) on malformed YAML or a missing top-level
// "model" key.
func LoadModel(data []byte, groupPlural, groupSingular, resourcePlural, resourceSingular string) (*Model, error) {
	var doc modelDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing model document")
	}
	if doc.Model.ResourcePlural == "" && len(doc.Model.Attributes) == 0 {
		return nil, errors.New("model document missing top-level \"model\" key")
	}
	replacer := strings.NewReplacer(
		"{groupplural}", groupPlural,
		"{groupsingular}", groupSingular,
		"{resourceplural}", resourcePlural,
		"{resourcesingular}", resourceSingular,
	)
	m := doc.Model
	m.GroupPlural = groupPlural
	m.GroupSingular = groupSingular
	m.ResourcePlural = resourcePlural
	m.ResourceSingular = resourceSingular
	rewriteAttributes(m.Attributes, replacer)
	return &m, nil
}

func rewriteAttributes(attrs []Attribute, replacer *strings.Replacer) {
	for i := range attrs {
		attrs[i].Target = replacer.Replace(attrs[i].Target)
		if attrs[i].Item != nil {
			item := []Attribute{*attrs[i].Item}
			rewriteAttributes(item, replacer)
			attrs[i].Item = &item[0]
		}
		rewriteAttributes(attrs[i].Properties, replacer)
	}
}
