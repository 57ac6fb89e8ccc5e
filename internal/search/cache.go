/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package search

import (
	"context"
	"fmt"
	"sync"
)

// fetchPageSize bounds peak memory when loading wide partitions
const fetchPageSize = 2000

// Cache manages embedding partitions keyed by (table, column set, model).
// Reads may run concurrently per partition; writes take an exclusive
// partition-level lock, so searches against different tables never block
// each other. The embedding provider is never called under a cache lock.
type Cache struct {
	store Store

	mu         sync.Mutex
	partitions map[string]*sync.RWMutex
}

// NewCache creates a cache over the given persistence store
func NewCache(store Store) *Cache {
	return &Cache{
		store:      store,
		partitions: make(map[string]*sync.RWMutex),
	}
}

// partitionLock returns the lock for a partition, creating it on first use
func (c *Cache) partitionLock(key EmbeddingKey) *sync.RWMutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := key.String()
	lock, ok := c.partitions[id]
	if !ok {
		lock = &sync.RWMutex{}
		c.partitions[id] = lock
	}
	return lock
}

// Coverage recomputes partition freshness from the relational row count, the
// record count, and the current row fingerprints. Never cached.
func (c *Cache) Coverage(ctx context.Context, key EmbeddingKey, rows []RowFingerprint) (CoverageStats, error) {
	lock := c.partitionLock(key)
	lock.RLock()
	defer lock.RUnlock()

	total, err := c.store.RowCount(ctx, key.Table)
	if err != nil {
		return CoverageStats{}, fmt.Errorf("failed to count rows for %s: %w", key.Table, err)
	}

	embedded, _, err := c.store.CountEmbeddings(ctx, key)
	if err != nil {
		return CoverageStats{}, fmt.Errorf("failed to count embeddings for %s: %w", key.Table, err)
	}

	stale, err := c.staleRowsLocked(ctx, key, rows)
	if err != nil {
		return CoverageStats{}, err
	}

	return CoverageStats{
		TotalRows:    total,
		EmbeddedRows: embedded,
		StaleRows:    int64(len(stale)),
	}, nil
}

// StaleRows returns the ids of rows whose stored fingerprint differs from
// the current one, or which have no record at all. Never mutates state.
func (c *Cache) StaleRows(ctx context.Context, key EmbeddingKey, rows []RowFingerprint) ([]int64, error) {
	lock := c.partitionLock(key)
	lock.RLock()
	defer lock.RUnlock()

	return c.staleRowsLocked(ctx, key, rows)
}

func (c *Cache) staleRowsLocked(ctx context.Context, key EmbeddingKey, rows []RowFingerprint) ([]int64, error) {
	stored, err := c.store.FetchFingerprints(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fingerprints for %s: %w", key.Table, err)
	}

	var stale []int64
	for _, row := range rows {
		fp, ok := stored[row.RowID]
		if !ok || fp != row.Fingerprint {
			stale = append(stale, row.RowID)
		}
	}
	return stale, nil
}

// Upsert writes a batch of records. The write is idempotent; if the batch's
// vector dimension conflicts with the partition's existing dimension the
// whole batch fails with DimensionMismatch and the partition is unchanged.
// Model changes must be explicit, never a silent truncate or pad.
func (c *Cache) Upsert(ctx context.Context, key EmbeddingKey, records []EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	dim := len(records[0].Vector)
	for _, rec := range records {
		if len(rec.Vector) != dim {
			return NewError(KindDimensionMismatch, key.Table,
				fmt.Errorf("batch mixes dimensions %d and %d", dim, len(rec.Vector)))
		}
	}

	lock := c.partitionLock(key)
	lock.Lock()
	defer lock.Unlock()

	count, existingDim, err := c.store.CountEmbeddings(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to inspect partition for %s: %w", key.Table, err)
	}
	if count > 0 && existingDim != dim {
		return NewError(KindDimensionMismatch, key.Table,
			fmt.Errorf("partition dimension %d, batch dimension %d", existingDim, dim))
	}

	if err := c.store.PutEmbeddings(ctx, key, records); err != nil {
		return fmt.Errorf("failed to write embeddings for %s: %w", key.Table, err)
	}
	return nil
}

// FetchAll loads the full partition in fixed-size pages
func (c *Cache) FetchAll(ctx context.Context, key EmbeddingKey) ([]EmbeddingRecord, error) {
	lock := c.partitionLock(key)
	lock.RLock()
	defer lock.RUnlock()

	var all []EmbeddingRecord
	for offset := 0; ; offset += fetchPageSize {
		page, err := c.store.FetchEmbeddings(ctx, key, offset, fetchPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch embeddings for %s: %w", key.Table, err)
		}
		all = append(all, page...)
		if len(page) < fetchPageSize {
			break
		}
	}
	return all, nil
}

// Evict removes a whole partition
func (c *Cache) Evict(ctx context.Context, key EmbeddingKey) error {
	lock := c.partitionLock(key)
	lock.Lock()
	defer lock.Unlock()

	return c.store.DeleteEmbeddings(ctx, key)
}

// EvictRow removes a single record; used by the relational layer's
// row-delete hook
func (c *Cache) EvictRow(ctx context.Context, key EmbeddingKey, rowID int64) error {
	lock := c.partitionLock(key)
	lock.Lock()
	defer lock.Unlock()

	return c.store.DeleteRowEmbeddings(ctx, key, rowID)
}

// EvictRowAll removes a row's records from every partition of its table;
// used by the relational layer's row-delete hook, which has no model or
// column-set context
func (c *Cache) EvictRowAll(ctx context.Context, table string, rowID int64) error {
	return c.store.DeleteRowEmbeddingsForTable(ctx, table, rowID)
}

// EvictTable removes every partition of a table; used by the relational
// layer's table-drop hook
func (c *Cache) EvictTable(ctx context.Context, table string) error {
	// Table-wide delete spans partitions, so take no partition lock; the
	// store's delete is a single statement
	return c.store.DeleteTableEmbeddings(ctx, table)
}
