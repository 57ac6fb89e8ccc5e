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
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// bcryptCost is the work factor for token hashing. Token files hold a
// handful of entries, so validation iterates all of them.
const bcryptCost = 10

// Token represents an API token with metadata
type Token struct {
	Hash       string     `yaml:"hash"`       // bcrypt hash of the token
	ExpiresAt  *time.Time `yaml:"expires_at"` // Expiry date (null for indefinite)
	Annotation string     `yaml:"annotation"` // User note/description
	CreatedAt  time.Time  `yaml:"created_at"` // When the token was created
}

// TokenStore manages API tokens
type TokenStore struct {
	mu      sync.RWMutex      // Protects concurrent access to Tokens
	Tokens  map[string]*Token `yaml:"tokens"` // key is a unique identifier
	path    string            // File path for auto-reloading
	watcher *FileWatcher      // File watcher for auto-reloading
}

// GenerateToken creates a new random API token
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	// Encode as base64 for easy copying
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// HashToken creates a bcrypt hash of the token
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}

// NewTokenStore creates an empty token store bound to a file path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{
		Tokens: make(map[string]*Token),
		path:   path,
	}
}

// LoadTokenStore loads tokens from a YAML file
func LoadTokenStore(path string) (*TokenStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var store TokenStore
	if err := yaml.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	if store.Tokens == nil {
		store.Tokens = make(map[string]*Token)
	}

	store.path = path

	return &store, nil
}

// Reload reloads the token store from disk
func (s *TokenStore) Reload() error {
	if s.path == "" {
		return fmt.Errorf("no path set for token store")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	var newStore TokenStore
	if err := yaml.Unmarshal(data, &newStore); err != nil {
		return fmt.Errorf("failed to parse token file: %w", err)
	}

	if newStore.Tokens == nil {
		newStore.Tokens = make(map[string]*Token)
	}

	s.mu.Lock()
	s.Tokens = newStore.Tokens
	s.mu.Unlock()

	return nil
}

// Save writes the token store to its YAML file
func (s *TokenStore) Save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	// Token file contains secrets metadata, restrict permissions
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Add generates a new token, stores its hash, and returns the plaintext
// token. The plaintext is shown once and never persisted.
func (s *TokenStore) Add(id, annotation string, expiry time.Duration) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	hash, err := HashToken(token)
	if err != nil {
		return "", err
	}

	entry := &Token{
		Hash:       hash,
		Annotation: annotation,
		CreatedAt:  time.Now().UTC(),
	}
	if expiry > 0 {
		expires := entry.CreatedAt.Add(expiry)
		entry.ExpiresAt = &expires
	}

	s.mu.Lock()
	s.Tokens[id] = entry
	s.mu.Unlock()

	return token, nil
}

// Remove deletes a token by its identifier
func (s *TokenStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Tokens[id]; !ok {
		return false
	}
	delete(s.Tokens, id)
	return true
}

// List returns a snapshot of token ids and metadata
func (s *TokenStore) List() map[string]Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Token, len(s.Tokens))
	for id, t := range s.Tokens {
		out[id] = *t
	}
	return out
}

// Validate checks a plaintext token against all stored hashes. Expired
// tokens never validate.
func (s *TokenStore) Validate(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	for _, entry := range s.Tokens {
		if entry.ExpiresAt != nil && now.After(*entry.ExpiresAt) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(entry.Hash), []byte(token)) == nil {
			return true
		}
	}
	return false
}

// StartWatching begins watching the token file for changes and reloads
// the store on modification
func (s *TokenStore) StartWatching() error {
	if s.path == "" {
		return fmt.Errorf("no path set for token store")
	}

	watcher, err := NewFileWatcher(s.path, s.Reload)
	if err != nil {
		return err
	}

	s.watcher = watcher
	watcher.Start()
	return nil
}

// StopWatching stops the token file watcher
func (s *TokenStore) StopWatching() {
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
}

// GetDefaultTokenPath returns the default token file path next to the executable
func GetDefaultTokenPath(execPath string) string {
	return filepath.Join(filepath.Dir(execPath), "memory-bank-tokens.yaml")
}
