// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/xregistry-gateway/maven-gateway/internal/syncx"
)

// Scheduler drives one Index Builder on a fixed interval, per spec.md
// §4.N: a synchronous load on startup if no catalogue exists yet, then an
// unconditional refresh every Interval, retried on the next tick if a
// refresh fails. Scheduling is time-based, not event-driven.
type Scheduler struct {
	Name     string
	DBPath   string
	Interval time.Duration
	Build    func(ctx context.Context, force bool) error

	lastSuccess syncx.Map[string, time.Time]
}

// DefaultMavenInterval is the 7-day refresh period spec.md §4.N names for
// the Maven adapter.
const DefaultMavenInterval = 7 * 24 * time.Hour

// Run performs the startup load (if needed) and then blocks, refreshing
// every s.Interval until ctx is cancelled. Callers typically invoke this in
// its own goroutine, matching spec.md §5's "long-running jobs run as
// independent background tasks with their own lifecycles".
func (s *Scheduler) Run(ctx context.Context) {
	if _, err := os.Stat(s.DBPath); os.IsNotExist(err) {
		log.Printf("%s: no existing index, building synchronously", s.Name)
		if err := s.refresh(ctx, true); err != nil {
			log.Printf("%s: initial index build failed: %v", s.Name, err)
		}
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx, true); err != nil {
				log.Printf("%s: scheduled index refresh failed, keeping previous catalogue: %v", s.Name, err)
			}
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context, force bool) error {
	err := s.Build(ctx, force)
	if err == nil {
		s.lastSuccess.Store(s.Name, time.Now())
	}
	return err
}

// LastSuccess reports when this scheduler's job last completed
// successfully, if ever.
func (s *Scheduler) LastSuccess() (time.Time, bool) {
	return s.lastSuccess.Load(s.Name)
}
