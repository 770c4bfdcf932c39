// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package xregistry

import (
	"github.com/gorilla/mux"
)

// AttachOptions configures where and how an Adapter mounts its routes.
type AttachOptions struct {
	// PathPrefix, when non-empty, roots the adapter's group-collection
	// route at that prefix instead of "/", per spec.md §4.L.
	PathPrefix string
	// BaseURLOverride is forwarded to BaseURL for every response the
	// adapter's handlers produce.
	BaseURLOverride string
	// Quiet suppresses this adapter's own console logging (its upstream
	// lookup failures), independent of the shared pipeline's Quiet flag.
	// The index builder and scheduler log regardless.
	Quiet bool
}

// Adapter is one per-ecosystem xRegistry implementation (the Maven adapter
// is the one concrete instance in this repository). GroupPlural identifies
// the group-type collection name an aggregator uses to deduplicate routes
// and merge /model documents.
type Adapter interface {
	AttachToApp(router *mux.Router, opts AttachOptions)
	GetModel() *Model
	GroupPlural() string
}

// Mount pairs an Adapter with the prefix it should be attached under.
type Mount struct {
	Adapter Adapter
	Options AttachOptions
}

// Compose attaches every mount's Adapter to router under its own options,
// then returns a lookup from group-type plural to that adapter's Model for
// the shared /model aggregation endpoint. Because the shared registry
// root, /capabilities, and /model are registered exactly once by
// RegisterSharedRoutes — and no Adapter registers those paths itself —
// composition never produces the colliding-route case spec.md §4.L
// describes; an Adapter's group-collection route simply lives at its own
// PathPrefix root instead of at "/".
func Compose(router *mux.Router, mounts ...Mount) func() map[string]*Model {
	for _, m := range mounts {
		sub := router
		if m.Options.PathPrefix != "" {
			sub = router.PathPrefix(m.Options.PathPrefix).Subrouter()
		}
		m.Adapter.AttachToApp(sub, m.Options)
	}
	return func() map[string]*Model {
		out := make(map[string]*Model, len(mounts))
		for _, m := range mounts {
			out[m.Adapter.GroupPlural()] = m.Adapter.GetModel()
		}
		return out
	}
}
