// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Command registry runs the xRegistry Maven federation gateway: a
// read-only HTTP server that fronts Maven Central as an xRegistry resource
// graph, backed by a periodically-refreshed package coordinate index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/xregistry-gateway/maven-gateway/internal/cache"
	"github.com/xregistry-gateway/maven-gateway/internal/httpx"
	"github.com/xregistry-gateway/maven-gateway/internal/xregistry"
	"github.com/xregistry-gateway/maven-gateway/pkg/index"
	"github.com/xregistry-gateway/maven-gateway/pkg/registry/maven"
)

var (
	port       = flag.Int("port", 8080, "port to listen on")
	baseURL    = flag.String("base-url", "", "absolute base URL to stamp on responses (defaults to scheme://host derived from the request)")
	apiKey     = flag.String("api-key", "", "if set, require Authorization: Bearer <api-key> on every request except OPTIONS and loopback /model")
	quiet      = flag.Bool("quiet", false, "suppress per-request logging and the adapter's upstream-lookup logging")
	cacheDir   = flag.String("cache-dir", "/tmp/maven-gateway/http-cache", "directory for the outbound HTTP cache")
	workDir    = flag.String("workdir", "/tmp/maven-gateway/index-workdir", "scratch directory for the index builder")
	indexPath  = flag.String("index-db", "/tmp/maven-gateway/packages.db", "path to the package coordinate index database")
	refreshDur = flag.Duration("refresh-interval", index.DefaultMavenInterval, "interval between unconditional index refreshes")
	force      = flag.Bool("force", false, "force an index rebuild on startup, ignoring the freshness window")
)

func main() {
	flag.Parse()

	for _, dir := range []string{*cacheDir, *workDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(errors.Wrapf(err, "creating directory %s", dir))
		}
	}

	diskStore := cache.NewDiskStore(osfs.New(*cacheDir))
	httpClient := httpx.NewConditionalClient(
		&httpx.WithUserAgent{BasicClient: http.DefaultClient, UserAgent: "xregistry-maven-gateway/1.0"},
		diskStore, nil)

	registry := maven.HTTPRegistry{Client: httpClient}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := &index.Scheduler{
		Name:     "maven",
		DBPath:   *indexPath,
		Interval: *refreshDur,
		Build: func(ctx context.Context, forceBuild bool) error {
			return index.Build(ctx, index.BuilderConfig{
				DBPath:    *indexPath,
				WorkDir:   osfs.New(*workDir),
				Client:    httpClient,
				Freshness: 24 * time.Hour,
				Force:     forceBuild || *force,
			})
		},
	}
	go scheduler.Run(ctx)

	searcher, err := openSearcherWhenReady(*indexPath)
	if err != nil {
		log.Printf("registry: package index not yet available, falling back to live Solr search: %v", err)
	}

	startedAt := time.Now()
	adapter, err := maven.NewAdapter(registry, searcher, "maven-central", "Maven Central", 1, startedAt)
	if err != nil {
		log.Fatal(errors.Wrap(err, "building maven adapter"))
	}

	router := mux.NewRouter()
	modelsByGroup := xregistry.Compose(router, xregistry.Mount{
		Adapter: adapter,
		Options: xregistry.AttachOptions{BaseURLOverride: *baseURL, Quiet: *quiet},
	})
	xregistry.RegisterSharedRoutes(router, xregistry.RegistryInfo{
		Name:            "xRegistry Maven Gateway",
		Description:     "Read-only xRegistry federation gateway for Maven Central",
		BaseURLOverride: *baseURL,
		Epoch:           1,
		StartedAt:       startedAt,
		GroupPlurals:    []string{adapter.GroupPlural()},
	}, modelsByGroup)

	handler := xregistry.Build(xregistry.PipelineConfig{APIKey: *apiKey, Quiet: *quiet})(router)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: handler}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		log.Printf("registry: received signal %v, shutting down", sig)
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("registry: error during shutdown: %v", err)
		}
	}()

	log.Printf("registry: listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(errors.Wrap(err, "server failed"))
	}
}

// openSearcherWhenReady opens the index database read-only if it already
// exists; if it does not, main proceeds without one and the adapter uses
// live Solr search for the life of the process, since the searcher is not
// reopened after the scheduler's first build completes.
func openSearcherWhenReady(path string) (*index.Searcher, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return index.OpenSearcher(path)
}
