/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

// Package search implements the hybrid semantic-lexical search core of the
// memory bank: an embedding cache over arbitrary text columns of
// runtime-created tables, lexical and vector scoring, and score fusion with
// deterministic ranking.
package search

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// TableHandle describes a searchable table: its name, primary key column,
// and the text columns eligible for embedding and lexical scoring.
type TableHandle struct {
	Name        string
	PrimaryKey  string
	TextColumns []string
}

// EmbeddingKey identifies one embedding cache partition:
// (table, column set, model). Reordering columns never creates a new
// partition because the hash is computed over the sorted column names.
type EmbeddingKey struct {
	Table         string
	ColumnSetHash string
	ModelID       string
}

// NewEmbeddingKey builds the key for a table's column set under a model
func NewEmbeddingKey(table string, columns []string, modelID string) EmbeddingKey {
	return EmbeddingKey{
		Table:         table,
		ColumnSetHash: HashColumnSet(columns),
		ModelID:       modelID,
	}
}

// String returns a stable identifier usable as a lock/singleflight key
func (k EmbeddingKey) String() string {
	return k.Table + "\x1f" + k.ColumnSetHash + "\x1f" + k.ModelID
}

// HashColumnSet computes a stable hash over the sorted column names
func HashColumnSet(columns []string) string {
	sorted := make([]string, len(columns))
	copy(sorted, columns)
	sort.Strings(sorted)

	h := fnv.New64a()
	for _, c := range sorted {
		h.Write([]byte(c))
		h.Write([]byte{0x1f})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Fingerprint hashes the concatenated source column values of a row at
// embedding time. A changed fingerprint marks the stored vector stale.
func Fingerprint(values []string) uint64 {
	h := fnv.New64a()
	for i, v := range values {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(v))
	}
	return h.Sum64()
}

// EmbeddingRecord is one cached vector with its staleness fingerprint.
// All records within a partition share the same vector dimension.
type EmbeddingRecord struct {
	RowID       int64
	Vector      []float32
	Fingerprint uint64
}

// CoverageStats summarizes a partition's freshness; always derived, never
// stored.
type CoverageStats struct {
	TotalRows    int64 `json:"total_rows"`
	EmbeddedRows int64 `json:"embedded_rows"`
	StaleRows    int64 `json:"stale_rows"`
}

// RowFingerprint pairs a row id with the fingerprint of its current text
type RowFingerprint struct {
	RowID       int64
	Fingerprint uint64
}

// RowText is a row's primary key plus its selected text column values
type RowText struct {
	RowID  int64
	Values []string
}

// ScoredCandidate is a transient per-search scoring record
type ScoredCandidate struct {
	RowID         int64
	LexicalScore  float64
	VectorScore   float64
	CombinedScore float64
	HasVector     bool
}

// Weights are the caller-supplied fusion weights
type Weights struct {
	Semantic float64
	Lexical  float64
}

// Request is a single hybrid search request
type Request struct {
	Query               string
	Tables              []string // empty means all tables with a text column
	Weights             Weights
	SimilarityThreshold float64
	Limit               int
	ModelID             string
	AutoEmbed           bool
}

// Result is one ranked search hit
type Result struct {
	Table         string   `json:"table"`
	RowID         int64    `json:"row_id"`
	CombinedScore float64  `json:"combined_score"`
	LexicalScore  float64  `json:"lexical_score"`
	VectorScore   *float64 `json:"vector_score"` // nil when the table degraded to lexical-only
	Source        string   `json:"source"`       // "hybrid" or "lexical_only"
}

// Source tags for results
const (
	SourceHybrid      = "hybrid"
	SourceLexicalOnly = "lexical_only"
)

// Fallback records a table that degraded to lexical-only scoring and why
type Fallback struct {
	Table  string `json:"table"`
	Reason string `json:"reason"`
}

// Response is the outcome of a search request. A request with zero
// candidates still succeeds with an empty result list.
type Response struct {
	RequestID      string     `json:"request_id"`
	Results        []Result   `json:"results"`
	AutoEmbedded   bool       `json:"auto_embedded"`
	EmbeddedTables []string   `json:"embedded_tables,omitempty"`
	Fallbacks      []Fallback `json:"fallbacks,omitempty"`
}

// Store is the persistence boundary for embedding partitions, implemented
// by the relational layer
type Store interface {
	// RowCount returns the current number of rows in a table
	RowCount(ctx context.Context, table string) (int64, error)

	// CountEmbeddings returns the number of records in a partition and
	// their shared vector dimension (0 when the partition is empty)
	CountEmbeddings(ctx context.Context, key EmbeddingKey) (count int64, dim int, err error)

	// FetchEmbeddings returns one page of a partition ordered by row id
	FetchEmbeddings(ctx context.Context, key EmbeddingKey, offset, limit int) ([]EmbeddingRecord, error)

	// FetchFingerprints returns row id to stored fingerprint for a partition
	FetchFingerprints(ctx context.Context, key EmbeddingKey) (map[int64]uint64, error)

	// PutEmbeddings idempotently writes a batch of records
	PutEmbeddings(ctx context.Context, key EmbeddingKey, records []EmbeddingRecord) error

	// DeleteEmbeddings removes a whole partition
	DeleteEmbeddings(ctx context.Context, key EmbeddingKey) error

	// DeleteRowEmbeddings removes a single record from a partition
	DeleteRowEmbeddings(ctx context.Context, key EmbeddingKey, rowID int64) error

	// DeleteRowEmbeddingsForTable removes a row's records from every
	// partition of a table; used by the row-delete hook
	DeleteRowEmbeddingsForTable(ctx context.Context, table string, rowID int64) error

	// DeleteTableEmbeddings removes every partition of a table
	DeleteTableEmbeddings(ctx context.Context, table string) error
}

// Catalog is the schema-discovery boundary, implemented by the relational
// layer
type Catalog interface {
	// SearchableTables lists tables that have at least one text column
	SearchableTables(ctx context.Context) ([]TableHandle, error)

	// ReadTextColumns streams up to limit rows of the selected text columns
	ReadTextColumns(ctx context.Context, table string, columns []string, limit int) ([]RowText, error)
}

// JoinColumns renders a column set for messages and logs
func JoinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
