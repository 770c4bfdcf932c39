// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package index

import "github.com/pkg/errors"

// ErrUnavailable is returned by a Searcher-dependent caller when no index
// database is loaded and the request gives no groupId/artifactId terms for
// the Solr search fallback to use.
var ErrUnavailable = errors.New("package index not yet available")
