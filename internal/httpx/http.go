// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpx provides a simpler http.Client abstraction and the
// conditional, disk-backed caching and rate-limiting layers built on top
// of it.
package httpx

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pkg/errors"

	"github.com/xregistry-gateway/maven-gateway/internal/cache"
)

// BasicClient is a simpler http.Client that only requires a Do method.
type BasicClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ BasicClient = http.DefaultClient

// WithUserAgent is a basic HTTP client that adds a User-Agent header.
type WithUserAgent struct {
	BasicClient
	UserAgent string
}

var _ BasicClient = &WithUserAgent{}

// Do adds the User-Agent header and sends the request.
func (c *WithUserAgent) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.UserAgent)
	return c.BasicClient.Do(req)
}

// ConditionalClient is a BasicClient that persists responses to a
// cache.DiskStore and revalidates them with conditional GETs, coalescing
// concurrent requests for the same URL through an in-memory cache.Cache.
//
// On a cache hit it sends If-None-Match with the stored ETag. A 304 keeps
// the stored Record, a 200 atomically replaces it, and any other error
// falls back to the stored Record if one exists, surfacing the error only
// when there is nothing to fall back to.
type ConditionalClient struct {
	BasicClient
	Store    *cache.DiskStore
	Coalesce cache.Cache
}

// NewConditionalClient returns a new ConditionalClient. If coalesce is nil,
// a fresh CoalescingMemoryCache is used.
func NewConditionalClient(client BasicClient, store *cache.DiskStore, coalesce cache.Cache) *ConditionalClient {
	if coalesce == nil {
		coalesce = &cache.CoalescingMemoryCache{}
	}
	return &ConditionalClient{client, store, coalesce}
}

// Do attempts to serve req from the disk cache, issuing a conditional
// request to validate freshness, and fulfills uncached or unsafe requests
// using the underlying client.
func (cc *ConditionalClient) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return cc.BasicClient.Do(req)
	}
	key := req.URL.String()
	result, err := cc.Coalesce.GetOrSet(key, func() (any, error) {
		// Coalescing only merges requests in flight at the same time; the
		// entry is dropped once the fetch ends so the next request revalidates.
		defer cc.Coalesce.Del(key)
		return cc.fetch(req, key)
	})
	if err != nil {
		return nil, err
	}
	rec := result.(*cache.Record)
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(rec.Data)), req)
}

func (cc *ConditionalClient) fetch(req *http.Request, key string) (*cache.Record, error) {
	stored, loadErr := cc.Store.Load(key)
	hasStored := loadErr == nil

	freshReq := req.Clone(req.Context())
	if hasStored && stored.ETag != "" {
		freshReq.Header.Set("If-None-Match", stored.ETag)
	}

	resp, err := cc.BasicClient.Do(freshReq)
	if err != nil {
		if hasStored {
			return stored, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if !hasStored {
			return nil, errors.New("received 304 Not Modified with no cached record")
		}
		return stored, nil
	case resp.StatusCode == http.StatusOK:
		buf := new(bytes.Buffer)
		if err := resp.Write(buf); err != nil {
			return nil, errors.Wrap(err, "serializing response for cache")
		}
		rec := &cache.Record{
			ETag:      resp.Header.Get("ETag"),
			Data:      buf.Bytes(),
			Timestamp: time.Now(),
		}
		if err := cc.Store.Store(key, rec); err != nil {
			return nil, errors.Wrap(err, "persisting cache record")
		}
		return rec, nil
	default:
		if hasStored {
			return stored, nil
		}
		return nil, errors.Errorf("unexpected status fetching %s: %s", key, resp.Status)
	}
}

var _ BasicClient = &ConditionalClient{}

// RateLimitedClient is a BasicClient that throttles outbound requests
// through a golang.org/x/time/rate.Limiter, so a misbehaving consumer can
// never exceed an upstream's acceptable request rate.
type RateLimitedClient struct {
	BasicClient
	Limiter *rate.Limiter
}

// NewRateLimitedClient returns a RateLimitedClient allowing up to rps
// requests per second, with burst as the maximum instantaneous burst size.
func NewRateLimitedClient(client BasicClient, rps float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{client, rate.NewLimiter(rate.Limit(rps), burst)}
}

// Do blocks until the limiter admits the request, then sends it.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.Limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(err, "waiting for rate limiter")
	}
	return c.BasicClient.Do(req)
}

var _ BasicClient = &RateLimitedClient{}

// WaitN blocks until n tokens are available on c's limiter, using ctx for
// cancellation, reserving capacity for several requests up front.
func (c *RateLimitedClient) WaitN(ctx context.Context, n int) error {
	return c.Limiter.WaitN(ctx, n)
}
