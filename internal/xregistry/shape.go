// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package xregistry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const xRegistryContentType = `application/json; charset=utf-8; schema="xRegistry-json/1.0-rc1"`

// SpecVersion is the xRegistry schema version this gateway implements.
const SpecVersion = "1.0-rc1"

// Entity is the generic wire representation of any xRegistry entity: a
// flat map keyed by attribute name. Collections are themselves Entities
// keyed by entity id, per spec.md §9's "no wrapping resources/items
// property" requirement.
type Entity map[string]any

// XID joins path segments into an absolute xRegistry identifier. XID("")
// returns "/", the registry root.
func XID(segments ...string) string {
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// Shape attaches the common identity/lineage attributes (xid, self, epoch,
// createdat, modifiedat) to e and returns it for chaining. self is derived
// by prefixing baseURL to xid.
func Shape(e Entity, xid, baseURL string, epoch int, createdAt, modifiedAt time.Time) Entity {
	if e == nil {
		e = Entity{}
	}
	e["xid"] = xid
	e["self"] = strings.TrimRight(baseURL, "/") + xid
	e["epoch"] = epoch
	e["createdat"] = createdAt.UTC().Format(time.RFC3339)
	e["modifiedat"] = modifiedAt.UTC().Format(time.RFC3339)
	return e
}

// BaseURL derives scheme://host from r, or returns override if non-empty,
// matching spec.md §4.D ("the configured base URL, or scheme://host
// derived from the request").
func BaseURL(r *http.Request, override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

// absolutizeURLs walks v, rewriting any map value whose key is "self", is
// "docs", or ends in "url" (case-insensitive) into an absolute URL by
// prefixing baseURL when the value does not already look absolute. This is
// the single post-serialization pass spec.md §9 calls for, rather than a
// per-field rewrite scattered across every entity constructor.
func absolutizeURLs(v any, baseURL string) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			lower := strings.ToLower(k)
			if s, ok := child.(string); ok && (lower == "self" || lower == "docs" || strings.HasSuffix(lower, "url")) {
				val[k] = absolutize(s, baseURL)
				continue
			}
			val[k] = absolutizeURLs(child, baseURL)
		}
		return val
	case Entity:
		return absolutizeURLs(map[string]any(val), baseURL)
	case []any:
		for i, child := range val {
			val[i] = absolutizeURLs(child, baseURL)
		}
		return val
	default:
		return v
	}
}

func absolutize(value, baseURL string) string {
	if strings.Contains(value, "://") {
		return value
	}
	if !strings.HasPrefix(value, "/") {
		return value
	}
	return strings.TrimRight(baseURL, "/") + value
}

// WriteEntity serializes body (after the URL absolutization walk) as the
// response, setting every header spec.md §4.D names: content type, spec
// version, epoch (if epoch > 0), ETag (a sha256 digest of the serialized
// body), Cache-Control, and Last-Modified (derived from modifiedAt, when
// valid).
func WriteEntity(w http.ResponseWriter, r *http.Request, body any, epoch int, modifiedAt time.Time, baseURL string) {
	shaped := absolutizeURLs(body, baseURL)
	payload, err := json.Marshal(shaped)
	if err != nil {
		WriteProblem(w, NewProblem(KindServerError, r.URL.Path, err.Error()))
		return
	}
	sum := sha256.Sum256(payload)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	h := w.Header()
	h.Set("Content-Type", xRegistryContentType)
	h.Set("X-XRegistry-SpecVersion", SpecVersion)
	if epoch > 0 {
		h.Set("X-XRegistry-Epoch", fmt.Sprintf("%d", epoch))
	}
	h.Set("ETag", etag)
	h.Set("Cache-Control", "no-cache")
	if !modifiedAt.IsZero() {
		h.Set("Last-Modified", modifiedAt.UTC().Format(http.TimeFormat))
	}
	w.Write(payload)
}
