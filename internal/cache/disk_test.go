// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
)

func TestDiskStore_StoreLoad(t *testing.T) {
	store := NewDiskStore(memfs.New())
	rec := &Record{ETag: `"abc"`, Data: []byte("payload"), Timestamp: time.Now()}
	if err := store.Store("http://example.com/x", rec); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	got, err := store.Load("http://example.com/x")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.ETag != rec.ETag || string(got.Data) != string(rec.Data) {
		t.Fatalf("Load() = %+v, want %+v", got, rec)
	}
}

func TestDiskStore_LoadMissing(t *testing.T) {
	store := NewDiskStore(memfs.New())
	if _, err := store.Load("http://example.com/missing"); err != ErrRecordNotExist {
		t.Fatalf("Load() = %v, want ErrRecordNotExist", err)
	}
}

func TestDiskStore_StoreReplaces(t *testing.T) {
	store := NewDiskStore(memfs.New())
	key := "http://example.com/x"
	if err := store.Store(key, &Record{ETag: `"v1"`, Data: []byte("one")}); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if err := store.Store(key, &Record{ETag: `"v2"`, Data: []byte("two")}); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	got, err := store.Load(key)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.ETag != `"v2"` || string(got.Data) != "two" {
		t.Fatalf("Load() = %+v, want replaced record", got)
	}
}

func TestDiskStore_Del(t *testing.T) {
	store := NewDiskStore(memfs.New())
	key := "http://example.com/x"
	store.Store(key, &Record{ETag: `"v1"`, Data: []byte("one")})
	store.Del(key)
	if _, err := store.Load(key); err != ErrRecordNotExist {
		t.Fatalf("Load() after Del() = %v, want ErrRecordNotExist", err)
	}
}
