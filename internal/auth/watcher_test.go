/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package auth

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFileWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.yaml")
	if err := os.WriteFile(path, []byte("tokens: {}\n"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var reloads atomic.Int32
	watcher, err := NewFileWatcher(path, func() error {
		reloads.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("watcher failed: %v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	if err := os.WriteFile(path, []byte("tokens: {}\n# changed\n"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("reload callback never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFileWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.yaml")
	if err := os.WriteFile(path, []byte("tokens: {}\n"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var reloads atomic.Int32
	watcher, err := NewFileWatcher(path, func() error {
		reloads.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("watcher failed: %v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if got := reloads.Load(); got != 0 {
		t.Errorf("expected no reloads for sibling file writes, got %d", got)
	}
}

func TestTokenStoreStartWatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")

	store := NewTokenStore(path)
	if err := store.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.StartWatching(); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	store.StopWatching()

	unbound := &TokenStore{Tokens: map[string]*Token{}}
	if err := unbound.StartWatching(); err == nil {
		t.Error("expected error for store without a path")
	}
}
