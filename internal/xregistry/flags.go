// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package xregistry

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// InlinableNames lists the inline names this package recognizes. The
// handlers expand only "meta" (on resource and version detail bodies);
// the model, the capabilities document and child collections are not
// inlined by any handler, with inline=* or otherwise.
var InlinableNames = []string{"model", "capabilities", "meta"}

// Flags holds the parsed, still-unapplied xRegistry query flags for one
// request. Nil/zero-value fields mean "not specified"; ParseFlags never
// invents defaults beyond what spec.md §4.C states, leaving default-limit
// and default-sort decisions to the caller, which knows the total count.
type Flags struct {
	Limit       *int
	Offset      int
	Filter      string
	Sort        string
	Inline      []string
	InlineAll   bool
	Doc         bool
	Collections bool
	NoEpoch     bool
	Epoch       *int
	SpecVersion string
	Schema      bool
	NoReadonly  bool
}

// ParseFlags reads every xRegistry query flag from r. It returns a
// *Problem (kind invalid_data) if limit or offset are present but
// malformed, per spec.md §4.C.
func ParseFlags(r *http.Request) (*Flags, *Problem) {
	q := r.URL.Query()
	f := &Flags{
		Doc:         q.Get("doc") != "false",
		Collections: q.Get("collections") != "false",
		NoEpoch:     q.Get("noepoch") == "true",
		SpecVersion: q.Get("specversion"),
		Schema:      q.Get("schema") == "true",
		NoReadonly:  q.Get("noreadonly") == "true",
		Filter:      q.Get("filter"),
		Sort:        q.Get("sort"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, NewProblem(KindInvalidData, r.URL.Path, "limit must be a positive integer")
		}
		f.Limit = &n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, NewProblem(KindInvalidData, r.URL.Path, "offset must be a non-negative integer")
		}
		f.Offset = n
	}
	if v := q.Get("epoch"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, NewProblem(KindInvalidData, r.URL.Path, "epoch must be an integer")
		}
		f.Epoch = &n
	}
	if v := q.Get("inline"); v != "" {
		if v == "*" || v == "true" {
			f.InlineAll = true
		} else {
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					f.Inline = append(f.Inline, p)
				}
			}
		}
	}
	return f, nil
}

// Inlines reports whether name should be expanded; with inline=* or
// inline=true it reports true for every name.
func (f *Flags) Inlines(name string) bool {
	if f.InlineAll {
		return true
	}
	for _, n := range f.Inline {
		if n == name {
			return true
		}
	}
	return false
}

// ApplyFilter evaluates flag.Filter against items, per spec.md §4.C: a
// comma-separated "k=v[,k=v]" expression is treated as an ANDed equality
// list (type-coerced against model's declared attribute types), and any
// expression with no "=" is a case-insensitive free-text substring match
// against the entity's "name" attribute.
func ApplyFilter(items []Entity, expr string, model *Model) []Entity {
	if expr == "" {
		return items
	}
	if !strings.Contains(expr, "=") {
		needle := strings.ToLower(expr)
		var out []Entity
		for _, e := range items {
			if name, ok := e["name"].(string); ok && strings.Contains(strings.ToLower(name), needle) {
				out = append(out, e)
			}
		}
		return out
	}
	var terms [][2]string
	for _, clause := range strings.Split(expr, ",") {
		kv := strings.SplitN(clause, "=", 2)
		if len(kv) != 2 {
			continue
		}
		terms = append(terms, [2]string{strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])})
	}
	var out []Entity
nextEntity:
	for _, e := range items {
		for _, term := range terms {
			if !matchesTerm(e, term[0], term[1], model) {
				continue nextEntity
			}
		}
		out = append(out, e)
	}
	return out
}

func matchesTerm(e Entity, key, value string, model *Model) bool {
	actual, ok := e[key]
	if !ok {
		return false
	}
	attrType := AttrString
	if model != nil {
		if attr, ok := model.AttributeByName(key); ok {
			attrType = attr.Type
		}
	}
	switch attrType {
	case AttrNumber:
		wantN, err1 := strconv.ParseFloat(value, 64)
		gotN, err2 := toFloat(actual)
		return err1 == nil && err2 == nil && wantN == gotN
	case AttrBoolean:
		wantB, err1 := strconv.ParseBool(value)
		gotB, ok := actual.(bool)
		return err1 == nil && ok && wantB == gotB
	default:
		gotS, ok := actual.(string)
		return ok && strings.EqualFold(gotS, value)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, strconv.ErrSyntax
	}
}

// ApplySort orders items by the declared sort spec ("attr" or
// "attr=asc"/"attr=desc"), defaulting to ascending "name" per DESIGN.md's
// resolution of the spec's Open Question, with a lexicographic tie-break
// on identifier (xid). Unknown attributes fall back to the default.
func ApplySort(items []Entity, spec string, model *Model) []Entity {
	attr, desc := "name", false
	if spec != "" {
		parts := strings.SplitN(spec, "=", 2)
		candidate := parts[0]
		if model == nil || attrIsSortable(model, candidate) || candidate == "name" {
			attr = candidate
		}
		if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
			desc = true
		}
	}
	sorted := make([]Entity, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := stringAttr(sorted[i], attr), stringAttr(sorted[j], attr)
		if vi == vj {
			xi, _ := sorted[i]["xid"].(string)
			xj, _ := sorted[j]["xid"].(string)
			return xi < xj
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
	return sorted
}

func attrIsSortable(model *Model, name string) bool {
	_, ok := model.AttributeByName(name)
	return ok
}

func stringAttr(e Entity, name string) string {
	switch v := e[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return ""
	}
}

// Paginate slices items to [offset, offset+limit). A limit of 0 returns
// items unsliced (no pagination requested/applicable). offset beyond the
// end yields an empty slice and reports beyondEnd=true so the caller can
// emit the spec.md §4.C warning.
func Paginate(items []Entity, offset, limit int) (page []Entity, beyondEnd bool) {
	total := len(items)
	if offset >= total {
		return []Entity{}, offset > 0 && total > 0
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return items[offset:end], false
}
