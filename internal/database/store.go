/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

// Package database implements the dynamically-schemed relational layer of
// the memory bank: agent-created tables in a single SQLite file, plus the
// embedding sidecar that backs the search core's cache.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// embeddingsTable is the internal sidecar holding one vector blob per row
// per embedded column-set. It never appears in table listings.
const embeddingsTable = "_memory_bank_embeddings"

// identifierPattern matches valid table and column names
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// allowedColumnTypes is the allow-list for user-declared column types
var allowedColumnTypes = map[string]bool{
	"TEXT":      true,
	"INTEGER":   true,
	"REAL":      true,
	"BLOB":      true,
	"NUMERIC":   true,
	"BOOLEAN":   true,
	"DATE":      true,
	"DATETIME":  true,
	"TIMESTAMP": true,
}

// ColumnDef declares one column when creating a table
type ColumnDef struct {
	Name string
	Type string
}

// ColumnInfo describes one column of an existing table
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// Store is the memory bank database. All agent tables live in one SQLite
// file alongside the embedding sidecar.
type Store struct {
	db   *sql.DB
	path string

	hookMu       sync.RWMutex
	rowDeleted   []func(table string, rowID int64)
	tableDropped []func(table string)
}

// Open opens or creates the memory bank database
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for concurrent readers during searches
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}

	if err := s.createInternalSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create internal schema: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// createInternalSchema creates the embedding sidecar table
func (s *Store) createInternalSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS ` + embeddingsTable + ` (
        table_name      TEXT NOT NULL,
        column_set_hash TEXT NOT NULL,
        model_id        TEXT NOT NULL,
        row_id          INTEGER NOT NULL,
        vector          BLOB NOT NULL,
        created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

        PRIMARY KEY (table_name, column_set_hash, model_id, row_id)
    );

    CREATE INDEX IF NOT EXISTS idx_embeddings_table
        ON ` + embeddingsTable + `(table_name);
    `

	_, err := s.db.Exec(schema)
	return err
}

// OnRowDeleted registers a callback fired after rows are deleted
func (s *Store) OnRowDeleted(fn func(table string, rowID int64)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.rowDeleted = append(s.rowDeleted, fn)
}

// OnTableDropped registers a callback fired after a table is dropped
func (s *Store) OnTableDropped(fn func(table string)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.tableDropped = append(s.tableDropped, fn)
}

func (s *Store) fireRowDeleted(table string, rowID int64) {
	s.hookMu.RLock()
	hooks := s.rowDeleted
	s.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(table, rowID)
	}
}

func (s *Store) fireTableDropped(table string) {
	s.hookMu.RLock()
	hooks := s.tableDropped
	s.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(table)
	}
}

// validateIdentifier rejects names that could escape quoting or collide
// with internal objects
func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must match [A-Za-z_][A-Za-z0-9_]*", name)
	}
	if name == embeddingsTable || strings.HasPrefix(name, "sqlite_") || strings.HasPrefix(name, "_memory_bank") {
		return fmt.Errorf("identifier %q is reserved", name)
	}
	return nil
}

// validateColumnType enforces the declared-type allow-list
func validateColumnType(colType string) error {
	if !allowedColumnTypes[strings.ToUpper(strings.TrimSpace(colType))] {
		return fmt.Errorf("unsupported column type %q", colType)
	}
	return nil
}
