// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package xregistrytest provides small test helpers for exercising
// xRegistry HTTP handlers, mirroring the shape of internal/httpx/httpxtest.
package xregistrytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// DoJSON issues req against handler and decodes the JSON response body
// into a map, returning the recorded response for header/status assertions.
func DoJSON(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Body.Len() == 0 {
		return rec, nil
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v (body=%q)", err, rec.Body.String())
	}
	return rec, body
}

// NewRequest builds a GET request for path with no special headers,
// failing the test on a malformed path.
func NewRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}
