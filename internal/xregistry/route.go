// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package xregistry

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
)

// HandlerSet is the set of handlers an adapter must supply to cover every
// route in spec.md §4.G for one group type.
type HandlerSet interface {
	GroupCollection(w http.ResponseWriter, r *http.Request)
	GroupDetail(w http.ResponseWriter, r *http.Request)
	ResourceCollection(w http.ResponseWriter, r *http.Request)
	ResourceDetail(w http.ResponseWriter, r *http.Request)
	ResourceMeta(w http.ResponseWriter, r *http.Request)
	ResourceDoc(w http.ResponseWriter, r *http.Request)
	VersionCollection(w http.ResponseWriter, r *http.Request)
	VersionDetail(w http.ResponseWriter, r *http.Request)
}

// PathVar reads a mux path variable and percent-decodes it exactly once.
// Routes are matched against the encoded path (see RegisterGroupRoutes),
// so colons, dots, dashes, and slashes inside an identifier survive
// routing instead of being treated as path separators or losing their
// escaping.
func PathVar(r *http.Request, name string) string {
	raw := mux.Vars(r)[name]
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// RegisterGroupRoutes mounts the eight routes of spec.md §4.G for one group
// type under root (root is either the top-level router or a subrouter
// returned by PathPrefix, per Module L's composition). groupPlural and
// resourcePlural are the adapter's configured collection names.
func RegisterGroupRoutes(root *mux.Router, groupPlural, resourcePlural string, hs HandlerSet) {
	root.UseEncodedPath()

	groups := root.PathPrefix("/" + groupPlural).Subrouter()
	groups.HandleFunc("", hs.GroupCollection).Methods(http.MethodGet, http.MethodOptions)
	groups.HandleFunc("/{gid}", hs.GroupDetail).Methods(http.MethodGet, http.MethodOptions)

	resources := groups.PathPrefix("/{gid}/" + resourcePlural).Subrouter()
	resources.HandleFunc("", hs.ResourceCollection).Methods(http.MethodGet, http.MethodOptions)
	resources.HandleFunc("/{rid}", hs.ResourceDetail).Methods(http.MethodGet, http.MethodOptions)
	resources.HandleFunc("/{rid}/meta", hs.ResourceMeta).Methods(http.MethodGet, http.MethodOptions)
	resources.HandleFunc("/{rid}/doc", hs.ResourceDoc).Methods(http.MethodGet, http.MethodOptions)
	resources.HandleFunc("/{rid}/versions", hs.VersionCollection).Methods(http.MethodGet, http.MethodOptions)
	resources.HandleFunc("/{rid}/versions/{vid}", hs.VersionDetail).Methods(http.MethodGet, http.MethodOptions)
}

// RegistryInfo describes the gateway instance for the root and
// /capabilities responses.
type RegistryInfo struct {
	ID          string
	Name        string
	Description string
	BaseURLOverride string
	Epoch       int
	StartedAt   time.Time
	GroupPlurals []string
}

// RegisterSharedRoutes mounts the registry root, /capabilities, and the
// shared portion of /model (the per-group-type models are merged in by
// Module L's composition step since each adapter owns its own schema).
func RegisterSharedRoutes(root *mux.Router, info RegistryInfo, modelsByGroup func() map[string]*Model) {
	root.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		base := BaseURL(r, info.BaseURLOverride)
		e := Shape(Entity{
			"name":        info.Name,
			"description": info.Description,
		}, XID(), base, info.Epoch, info.StartedAt, info.StartedAt)
		WriteEntity(w, r, e, info.Epoch, info.StartedAt, base)
	}).Methods(http.MethodGet, http.MethodOptions)

	root.HandleFunc("/capabilities", func(w http.ResponseWriter, r *http.Request) {
		base := BaseURL(r, info.BaseURLOverride)
		body := Entity{
			"flags": []string{
				"limit", "offset", "filter", "sort", "inline", "doc",
				"collections", "noepoch", "epoch", "specversion", "schema", "noreadonly",
			},
			"specversions": []string{SpecVersion},
			"groups":       info.GroupPlurals,
		}
		WriteEntity(w, r, body, info.Epoch, info.StartedAt, base)
	}).Methods(http.MethodGet, http.MethodOptions)

	root.HandleFunc("/model", func(w http.ResponseWriter, r *http.Request) {
		base := BaseURL(r, info.BaseURLOverride)
		models := modelsByGroup()
		body := Entity{"groups": models}
		WriteEntity(w, r, body, info.Epoch, info.StartedAt, base)
	}).Methods(http.MethodGet, http.MethodOptions)
}
