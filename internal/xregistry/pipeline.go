// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package xregistry

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PipelineConfig configures the Request Pipeline's optional steps.
type PipelineConfig struct {
	// APIKey, when non-empty, requires "Authorization: Bearer <APIKey>" on
	// every request except OPTIONS and /model from a loopback peer.
	APIKey string
	// Quiet suppresses the per-request start/end log lines.
	Quiet bool
}

type contextKey string

const requestIDKey contextKey = "xregistry-request-id"
const detailsKey contextKey = "xregistry-details"

// RequestID returns the request ID attached to ctx by the pipeline's
// logging step, or "" if none is present (e.g. in a unit test that calls
// a handler directly).
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// DetailsRequested reports whether the request path carried the $details
// suffix, per spec.md §4.F step 3.
func DetailsRequested(ctx context.Context) bool {
	v, _ := ctx.Value(detailsKey).(bool)
	return v
}

// Build composes the seven ordered middleware steps of spec.md §4.F into a
// single func(http.Handler) http.Handler, mirroring the teacher's
// preference for small composable wrappers around one method (the same
// "wrap, don't branch" shape httpx.BasicClient implementations use,
// applied here to http.Handler instead of Do).
func Build(cfg PipelineConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := next
		h = stepLogging(cfg, h)
		h = stepAuth(cfg, h)
		h = stepCORS(h)
		h = stepConditional(h)
		h = stepContentNegotiation(h)
		h = stepDetails(h)
		h = stepTrailingSlash(h)
		return h
	}
}

// stepTrailingSlash rewrites any path longer than "/" ending in "/" to its
// slashless form, preserving the query string.
func stepTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = strings.TrimRight(r.URL.Path, "/")
		}
		next.ServeHTTP(w, r)
	})
}

// stepDetails strips a literal "$details" path suffix, sets
// X-XRegistry-Details: true, and records in the context that it was present.
func stepDetails(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "$details") {
			r.URL.Path = strings.TrimSuffix(r.URL.Path, "$details")
			w.Header().Set("X-XRegistry-Details", "true")
			ctx := context.WithValue(r.Context(), detailsKey, true)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// stepContentNegotiation enforces spec.md §4.F step 4: an absent Accept,
// "*/*", or any Accept containing "text/html" is treated as "serve
// xRegistry JSON"; otherwise only application/json (optionally schema
// qualified) is accepted.
func stepContentNegotiation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		accept := r.Header.Get("Accept")
		if accept == "" || accept == "*/*" || strings.Contains(accept, "text/html") {
			next.ServeHTTP(w, r)
			return
		}
		if strings.Contains(accept, "application/json") || strings.Contains(accept, "xRegistry-json") {
			next.ServeHTTP(w, r)
			return
		}
		WriteProblem(w, NewProblem(KindNotAcceptable, r.URL.Path, "Accept header does not permit application/json"))
	})
}

// recorder buffers a handler's response so stepConditional can decide
// between serving the buffered body and a bare 304.
type recorder struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
}

func (rec *recorder) WriteHeader(status int) {
	if !rec.wroteHeader {
		rec.status = status
		rec.wroteHeader = true
	}
}

func (rec *recorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	return rec.buf.Write(b)
}

// stepConditional lets the handler run to completion into a buffer, then
// compares the ETag/Last-Modified it set against the request's
// If-None-Match/If-Modified-Since, replying 304 with identity headers only
// on a match rather than flushing the buffered body.
func stepConditional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		etag := rec.Header().Get("ETag")
		lastMod := rec.Header().Get("Last-Modified")
		inm := r.Header.Get("If-None-Match")
		ims := r.Header.Get("If-Modified-Since")

		notModified := false
		if etag != "" && inm != "" && inm == etag {
			notModified = true
		} else if lastMod != "" && ims != "" {
			if modTime, err := http.ParseTime(lastMod); err == nil {
				if sinceTime, err := http.ParseTime(ims); err == nil && !modTime.After(sinceTime) {
					notModified = true
				}
			}
		}

		if notModified && rec.status == http.StatusOK {
			for _, k := range []string{"Content-Type", "X-XRegistry-SpecVersion", "X-XRegistry-Epoch", "ETag", "Cache-Control", "Last-Modified"} {
				if v := rec.Header().Get(k); v != "" {
					w.Header().Set(k, v)
				}
			}
			w.WriteHeader(http.StatusNotModified)
			return
		}

		for k, v := range rec.Header() {
			w.Header()[k] = v
		}
		w.WriteHeader(rec.status)
		w.Write(rec.buf.Bytes())
	})
}

// stepCORS answers OPTIONS preflights and attaches Access-Control-Allow-Origin
// to every other response.
func stepCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			h := w.Header()
			h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Accept, If-None-Match, If-Modified-Since")
			h.Set("Access-Control-Max-Age", "86400")
			h.Set("Access-Control-Expose-Headers", "Link")
			h.Set("Access-Control-Allow-Origin", "*")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Link")
		next.ServeHTTP(w, r)
	})
}

// stepAuth enforces an optional API key. /model from a loopback peer and
// all OPTIONS requests bypass the check, matching spec.md §4.F step 7 and
// the loopback-bypass Open Question resolution recorded in DESIGN.md:
// isLoopback is deliberately the one auditable function this behavior
// funnels through, since it is unsafe behind most reverse proxies.
func stepAuth(cfg PipelineConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.APIKey == "" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/model" && isLoopback(r) {
			next.ServeHTTP(w, r)
			return
		}
		want := "Bearer " + cfg.APIKey
		if r.Header.Get("Authorization") != want {
			WriteProblem(w, NewProblem(KindUnauthorized, r.URL.Path, "missing or invalid API key"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// stepLogging attaches a request ID (and a W3C traceparent, generating one
// if absent) to the request context, then logs a structured start/end line
// with duration, status, and response byte count — the teacher's
// log.Printf house style, no structured logging library.
func stepLogging(cfg PipelineConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		tp := r.Header.Get("traceparent")
		if tp == "" {
			tp = generateTraceparent()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		r = r.WithContext(ctx)
		w.Header().Set("traceparent", tp)

		start := time.Now()
		counting := &countingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(counting, r)
		if !cfg.Quiet {
			log.Printf("request id=%s method=%s path=%s status=%d bytes=%d duration=%s",
				id, r.Method, r.URL.Path, counting.status, counting.bytes, time.Since(start))
		}
	})
}

type countingWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (c *countingWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.ResponseWriter.Write(b)
	c.bytes += n
	return n, err
}

func generateTraceparent() string {
	var traceID [16]byte
	var spanID [8]byte
	rand.Read(traceID[:])
	rand.Read(spanID[:])
	return "00-" + hex.EncodeToString(traceID[:]) + "-" + hex.EncodeToString(spanID[:]) + "-01"
}
