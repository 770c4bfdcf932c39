// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"

	"github.com/xregistry-gateway/maven-gateway/internal/httpx"
)

// nexusIndexURL is the Apache-hosted Nexus Maven index archive named in
// spec.md §6.
const nexusIndexURL = "https://repo.maven.apache.org/maven2/.index/nexus-maven-repository-index.gz"

// progressInterval is how often Build logs .fld line-count progress, per
// spec.md §4.J.
const progressInterval = 100_000

// defaultFreshness is the freshness window spec.md §4.J names (24h)
// before a refresh is considered due.
const defaultFreshness = 24 * time.Hour

// Extractor invokes the external index-extraction tool (a Docker image per
// spec.md §6) against workDir, which must contain the downloaded archive
// and must emit its output under workDir/export/*.fld. No pack repo wraps
// the Docker CLI or daemon API for this kind of one-shot batch tool
// invocation, so this is a thin os/exec wrapper (see DESIGN.md).
type Extractor func(ctx context.Context, workDir string) error

// DockerExtractor runs the named Docker image against workDir, bind
// mounting it at /work as spec.md §6 describes.
func DockerExtractor(image string) Extractor {
	return func(ctx context.Context, workDir string) error {
		cmd := exec.CommandContext(ctx, "docker", "run", "--rm",
			"-v", workDir+":/work", image)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return errors.Wrap(err, "running index extractor")
		}
		return nil
	}
}

// BuilderConfig configures one Index Builder (module J) run.
type BuilderConfig struct {
	// DBPath is the SQLite database file the builder writes to and the
	// Searcher (module K) reads from.
	DBPath string
	// WorkDir is scratch space for the downloaded archive and the
	// extractor's export/ output. Build does not clear it between runs.
	WorkDir billy.Filesystem
	// Client fetches the Nexus archive; normally an
	// httpx.ConditionalClient so repeated runs only re-download when the
	// upstream archive's ETag has changed.
	Client httpx.BasicClient
	// Extract runs the external extractor against the on-disk working
	// directory. Defaults to DockerExtractor("xregistry/nexus-indexer")
	// if nil.
	Extract Extractor
	// Freshness is how long a previously-built database is considered
	// current; defaults to defaultFreshness.
	Freshness time.Duration
	// Force skips the freshness check and always rebuilds.
	Force bool
}

// Build runs one full refresh cycle of spec.md §4.J: freshness check,
// download, extraction, streamed load, FTS rebuild, and compaction. On any
// step failure the database file named by cfg.DBPath is left untouched, so
// the previous catalogue remains servable.
func Build(ctx context.Context, cfg BuilderConfig) error {
	if !cfg.Force {
		if fresh, err := isFresh(cfg.DBPath, freshnessOrDefault(cfg.Freshness)); err != nil {
			return errors.Wrap(err, "checking index freshness")
		} else if fresh {
			log.Printf("index %s is within freshness window, skipping rebuild", cfg.DBPath)
			return nil
		}
	}

	workFS := cfg.WorkDir
	if workFS == nil {
		workFS = osfs.New(os.TempDir())
	}
	if err := downloadArchive(ctx, cfg.Client, workFS); err != nil {
		return errors.Wrap(err, "downloading nexus index")
	}

	extract := cfg.Extract
	if extract == nil {
		extract = DockerExtractor("xregistry/nexus-indexer")
	}
	if err := extract(ctx, workFS.Root()); err != nil {
		return errors.Wrap(err, "extracting nexus index")
	}

	fldFiles, err := findFldFiles(workFS)
	if err != nil {
		return errors.Wrap(err, "listing extractor output")
	}
	if len(fldFiles) == 0 {
		return errors.New("extractor produced no .fld output")
	}

	// Build into a staging path first so a failure partway through never
	// corrupts the database a concurrent reader has open.
	stagingPath := cfg.DBPath + ".staging"
	os.Remove(stagingPath)
	db, err := OpenWriter(stagingPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := loadCoordinates(db, workFS, fldFiles); err != nil {
		os.Remove(stagingPath)
		return errors.Wrap(err, "loading coordinates")
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO packages_fts(packages_fts) VALUES('rebuild')`); err != nil {
		os.Remove(stagingPath)
		return errors.Wrap(err, "rebuilding fts projection")
	}
	if _, err := db.ExecContext(ctx, `VACUUM`); err != nil {
		os.Remove(stagingPath)
		return errors.Wrap(err, "compacting index")
	}
	db.Close()

	if err := os.Rename(stagingPath, cfg.DBPath); err != nil {
		return errors.Wrap(err, "installing rebuilt index")
	}
	return nil
}

func freshnessOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultFreshness
	}
	return d
}

func isFresh(path string, window time.Duration) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) < window, nil
}

func downloadArchive(ctx context.Context, client httpx.BasicClient, workFS billy.Filesystem) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nexusIndexURL, nil)
	if err != nil {
		return errors.Wrap(err, "building archive request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetching nexus archive")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("nexus archive fetch failed: %s", resp.Status)
	}
	out, err := workFS.Create("nexus-maven-repository-index.gz")
	if err != nil {
		return errors.Wrap(err, "creating archive file")
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return errors.Wrap(err, "writing archive file")
	}
	return nil
}

func findFldFiles(workFS billy.Filesystem) ([]string, error) {
	entries, err := workFS.ReadDir("export")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".fld") {
			out = append(out, filepath.Join("export", e.Name()))
		}
	}
	return out, nil
}

// loadCoordinates streams every .fld file line by line, parsing "value
// <groupId>|<artifactId>[|...]" entries, deduplicating by (groupId,
// artifactId) with an in-memory set, and loading the result into one
// transaction with INSERT OR IGNORE, per spec.md §4.J steps 4-5.
func loadCoordinates(db *sql.DB, workFS billy.Filesystem, fldFiles []string) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "starting load transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO packages(group_id, artifact_id, coordinates) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	seen := make(map[string]struct{})
	var lines int
	for _, name := range fldFiles {
		f, err := workFS.Open(name)
		if err != nil {
			return errors.Wrapf(err, "opening %s", name)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines++
			if lines%progressInterval == 0 {
				log.Printf("index builder: processed %d lines", lines)
			}
			groupID, artifactID, ok := parseFldLine(scanner.Text())
			if !ok {
				continue
			}
			key := groupID + ":" + artifactID
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if _, err := stmt.Exec(groupID, artifactID, key); err != nil {
				f.Close()
				return errors.Wrapf(err, "inserting %s", key)
			}
		}
		scanErr := scanner.Err()
		f.Close()
		if scanErr != nil {
			return errors.Wrapf(scanErr, "scanning %s", name)
		}
	}
	return tx.Commit()
}

// parseFldLine extracts groupId/artifactId from one "value <g>|<a>[|...]"
// line, per spec.md §6's extractor output format.
func parseFldLine(line string) (groupID, artifactID string, ok bool) {
	const prefix = "value "
	if !strings.HasPrefix(line, prefix) {
		return "", "", false
	}
	fields := strings.Split(strings.TrimPrefix(line, prefix), "|")
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return "", "", false
	}
	return fields[0], fields[1], true
}
