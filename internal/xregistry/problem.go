// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package xregistry

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind names one of the xRegistry error kinds. Each Kind carries a fixed
// HTTP status and a stable type URI used in Problem documents.
type Kind string

const (
	KindInvalidData   Kind = "invalid_data"
	KindUnauthorized  Kind = "unauthorized"
	KindNotAcceptable Kind = "not_acceptable"
	KindNotFound      Kind = "not_found"
	KindBadGateway    Kind = "bad_gateway"
	KindServerError   Kind = "server_error"
)

var kindStatus = map[Kind]int{
	KindInvalidData:   http.StatusBadRequest,
	KindUnauthorized:  http.StatusUnauthorized,
	KindNotAcceptable: http.StatusNotAcceptable,
	KindNotFound:      http.StatusNotFound,
	KindBadGateway:    http.StatusBadGateway,
	KindServerError:   http.StatusInternalServerError,
}

const problemTypeBase = "https://github.com/xregistry/spec/blob/main/core/spec.md#"

// Status returns the fixed HTTP status code for k.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// TypeURI returns the RFC-7807 "type" member for k.
func (k Kind) TypeURI() string {
	return problemTypeBase + string(k)
}

// Problem is an RFC-7807 problem document.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Instance string `json:"instance,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// Error implements the error interface, so a Problem can be returned and
// propagated through ordinary Go error-handling paths up to the pipeline.
func (p *Problem) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// NewProblem builds a Problem for kind k, scoped to the request path
// instance, with an optional detail message.
func NewProblem(k Kind, instance, detail string) *Problem {
	return &Problem{
		Type:     k.TypeURI(),
		Title:    string(k),
		Status:   k.Status(),
		Instance: instance,
		Detail:   detail,
	}
}

// WriteProblem serializes p as the response body with the xRegistry JSON
// content type and p.Status as the HTTP status line.
func WriteProblem(w http.ResponseWriter, p *Problem) {
	w.Header().Set("Content-Type", xRegistryContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Warning formats a soft-degradation warning per spec: code 299 with a
// quoted agent-free detail string, used for conditions that still return a
// 2xx response (stale epoch, unsupported specversion, offset beyond end of
// collection).
func Warning(detail string) string {
	return fmt.Sprintf(`299 - %q`, detail)
}
