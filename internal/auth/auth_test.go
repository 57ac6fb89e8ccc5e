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
	"testing"
	"time"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if a == b {
		t.Error("two generated tokens should never collide")
	}
	if len(a) < 32 {
		t.Errorf("token too short: %d chars", len(a))
	}
}

func TestAddAndValidate(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "tokens.yaml"))

	token, err := store.Add("ci", "continuous integration", 0)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected plaintext token")
	}

	if !store.Validate(token) {
		t.Error("stored token should validate")
	}
	if store.Validate("not-the-token") {
		t.Error("unknown token should not validate")
	}

	// The plaintext never appears in the store, only its hash
	entry := store.List()["ci"]
	if entry.Hash == token || entry.Hash == "" {
		t.Error("store must hold a hash, not the plaintext")
	}
	if entry.Annotation != "continuous integration" {
		t.Errorf("unexpected annotation: %q", entry.Annotation)
	}
}

func TestExpiredTokenNeverValidates(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "tokens.yaml"))

	token, err := store.Add("stale", "", time.Nanosecond)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if store.Validate(token) {
		t.Error("expired token should not validate")
	}
}

func TestRemove(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "tokens.yaml"))

	token, err := store.Add("temp", "", 0)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if !store.Remove("temp") {
		t.Error("expected removal of existing id")
	}
	if store.Remove("temp") {
		t.Error("expected false for already removed id")
	}
	if store.Validate(token) {
		t.Error("removed token should not validate")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")

	store := NewTokenStore(path)
	token, err := store.Add("deploy", "release pipeline", time.Hour)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file should be 0600, got %v", info.Mode().Perm())
	}

	loaded, err := LoadTokenStore(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !loaded.Validate(token) {
		t.Error("token should validate after reload")
	}

	entry, ok := loaded.List()["deploy"]
	if !ok {
		t.Fatal("expected deploy entry after reload")
	}
	if entry.ExpiresAt == nil {
		t.Error("expected expiry to survive the round trip")
	}
}

func TestLoadTokenStoreMissingFile(t *testing.T) {
	if _, err := LoadTokenStore(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")

	writer := NewTokenStore(path)
	first, err := writer.Add("first", "", 0)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := writer.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reader, err := LoadTokenStore(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	second, err := writer.Add("second", "", 0)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := writer.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if reader.Validate(second) {
		t.Fatal("reader should not see the new token before reload")
	}
	if err := reader.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reader.Validate(first) || !reader.Validate(second) {
		t.Error("expected both tokens to validate after reload")
	}
}

func TestGetDefaultTokenPath(t *testing.T) {
	got := GetDefaultTokenPath("/opt/bin/memory-bank-mcp")
	if got != filepath.Join("/opt/bin", "memory-bank-tokens.yaml") {
		t.Errorf("unexpected default token path: %q", got)
	}
}
