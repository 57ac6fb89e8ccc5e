/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package database

import (
	"context"
	"fmt"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/search"
)

// The sidecar stores one blob per (table, column set, model, row). The blob
// header carries the vector dimension and the content fingerprint, so
// coverage and staleness checks read 12-byte prefixes instead of full
// vectors.

// CountEmbeddings returns a partition's record count and shared dimension
func (s *Store) CountEmbeddings(ctx context.Context, key search.EmbeddingKey) (int64, int, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM `+embeddingsTable+`
        WHERE table_name = ? AND column_set_hash = ? AND model_id = ?
    `, key.Table, key.ColumnSetHash, key.ModelID).Scan(&count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	if count == 0 {
		return 0, 0, nil
	}

	var header []byte
	err = s.db.QueryRowContext(ctx, `
        SELECT substr(vector, 1, 12) FROM `+embeddingsTable+`
        WHERE table_name = ? AND column_set_hash = ? AND model_id = ?
        LIMIT 1
    `, key.Table, key.ColumnSetHash, key.ModelID).Scan(&header)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read embedding header: %w", err)
	}

	dim, _, err := search.DecodeHeader(header)
	if err != nil {
		return 0, 0, err
	}
	return count, dim, nil
}

// FetchEmbeddings returns one page of a partition ordered by row id
func (s *Store) FetchEmbeddings(ctx context.Context, key search.EmbeddingKey, offset, limit int) ([]search.EmbeddingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT row_id, vector FROM `+embeddingsTable+`
        WHERE table_name = ? AND column_set_hash = ? AND model_id = ?
        ORDER BY row_id
        LIMIT ? OFFSET ?
    `, key.Table, key.ColumnSetHash, key.ModelID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embeddings: %w", err)
	}
	defer rows.Close()

	var records []search.EmbeddingRecord
	for rows.Next() {
		var (
			rowID int64
			blob  []byte
		)
		if err := rows.Scan(&rowID, &blob); err != nil {
			return nil, err
		}
		vector, fingerprint, err := search.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("corrupt embedding for %s row %d: %w", key.Table, rowID, err)
		}
		records = append(records, search.EmbeddingRecord{
			RowID:       rowID,
			Vector:      vector,
			Fingerprint: fingerprint,
		})
	}
	return records, rows.Err()
}

// FetchFingerprints reads row id to fingerprint from the blob headers only
func (s *Store) FetchFingerprints(ctx context.Context, key search.EmbeddingKey) (map[int64]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT row_id, substr(vector, 1, 12) FROM `+embeddingsTable+`
        WHERE table_name = ? AND column_set_hash = ? AND model_id = ?
    `, key.Table, key.ColumnSetHash, key.ModelID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fingerprints: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[int64]uint64)
	for rows.Next() {
		var (
			rowID  int64
			header []byte
		)
		if err := rows.Scan(&rowID, &header); err != nil {
			return nil, err
		}
		_, fingerprint, err := search.DecodeHeader(header)
		if err != nil {
			return nil, fmt.Errorf("corrupt embedding header for %s row %d: %w", key.Table, rowID, err)
		}
		fingerprints[rowID] = fingerprint
	}
	return fingerprints, rows.Err()
}

// PutEmbeddings idempotently writes a batch of records in one transaction
func (s *Store) PutEmbeddings(ctx context.Context, key search.EmbeddingKey, records []search.EmbeddingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin embedding write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT OR REPLACE INTO `+embeddingsTable+`
            (table_name, column_set_hash, model_id, row_id, vector)
        VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare embedding write: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		blob := search.EncodeVector(record)
		if _, err := stmt.ExecContext(ctx, key.Table, key.ColumnSetHash, key.ModelID, record.RowID, blob); err != nil {
			return fmt.Errorf("failed to write embedding for row %d: %w", record.RowID, err)
		}
	}
	return tx.Commit()
}

// DeleteEmbeddings removes a whole partition
func (s *Store) DeleteEmbeddings(ctx context.Context, key search.EmbeddingKey) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM `+embeddingsTable+`
        WHERE table_name = ? AND column_set_hash = ? AND model_id = ?
    `, key.Table, key.ColumnSetHash, key.ModelID)
	if err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return nil
}

// DeleteRowEmbeddings removes a single record from a partition
func (s *Store) DeleteRowEmbeddings(ctx context.Context, key search.EmbeddingKey, rowID int64) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM `+embeddingsTable+`
        WHERE table_name = ? AND column_set_hash = ? AND model_id = ? AND row_id = ?
    `, key.Table, key.ColumnSetHash, key.ModelID, rowID)
	if err != nil {
		return fmt.Errorf("failed to delete row embedding: %w", err)
	}
	return nil
}

// DeleteRowEmbeddingsForTable removes a row's records from every partition
// of a table
func (s *Store) DeleteRowEmbeddingsForTable(ctx context.Context, table string, rowID int64) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM `+embeddingsTable+`
        WHERE table_name = ? AND row_id = ?
    `, table, rowID)
	if err != nil {
		return fmt.Errorf("failed to delete row embeddings: %w", err)
	}
	return nil
}

// DeleteTableEmbeddings removes every partition of a table
func (s *Store) DeleteTableEmbeddings(ctx context.Context, table string) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM `+embeddingsTable+`
        WHERE table_name = ?
    `, table)
	if err != nil {
		return fmt.Errorf("failed to delete table embeddings: %w", err)
	}
	return nil
}
