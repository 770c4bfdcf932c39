// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

// Record is the on-disk unit of the content-addressed HTTP cache. It holds
// enough to both validate freshness (ETag) and, on a 304, serve the prior
// response body without a second round trip.
type Record struct {
	ETag      string    `json:"etag"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrRecordNotExist is returned by DiskStore.Load when no record is present
// for the given key.
var ErrRecordNotExist = errors.New("cache record does not exist")

// DiskStore persists Records in a flat directory, one file per key, named by
// the base64 encoding of the key. No time-based expiration is applied here;
// freshness is delegated entirely to upstream validators (the ETag flow in
// httpx.ConditionalClient).
type DiskStore struct {
	FS billy.Filesystem
}

// NewDiskStore returns a DiskStore rooted at fs.
func NewDiskStore(fs billy.Filesystem) *DiskStore {
	return &DiskStore{FS: fs}
}

func (d *DiskStore) filename(key string) string {
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// Load reads the Record for key, or ErrRecordNotExist if absent.
func (d *DiskStore) Load(key string) (*Record, error) {
	f, err := d.FS.Open(d.filename(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotExist
		}
		return nil, errors.Wrap(err, "opening cache record")
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading cache record")
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "decoding cache record")
	}
	return &r, nil
}

// Store atomically replaces the Record for key: it writes to a temp file in
// the same directory and renames over the target, so concurrent readers
// never observe a partially-written record.
func (d *DiskStore) Store(key string, r *Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encoding cache record")
	}
	name := d.filename(key)
	tmp, err := d.FS.TempFile("", "cache-")
	if err != nil {
		return errors.Wrap(err, "creating temp cache file")
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		d.FS.Remove(tmp.Name())
		return errors.Wrap(err, "writing temp cache file")
	}
	if err := tmp.Close(); err != nil {
		d.FS.Remove(tmp.Name())
		return errors.Wrap(err, "closing temp cache file")
	}
	if err := d.FS.Rename(tmp.Name(), name); err != nil {
		d.FS.Remove(tmp.Name())
		return errors.Wrap(err, "renaming cache file into place")
	}
	return nil
}

// Del removes the Record for key, if any.
func (d *DiskStore) Del(key string) {
	d.FS.Remove(d.filename(key))
}
