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
	"sort"
	"sync"
	"testing"
)

// memStore is an in-memory Store for cache and engine tests
type memStore struct {
	mu         sync.Mutex
	rowCounts  map[string]int64
	partitions map[string]map[int64]EmbeddingRecord
	putCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		rowCounts:  make(map[string]int64),
		partitions: make(map[string]map[int64]EmbeddingRecord),
	}
}

func (m *memStore) partition(key EmbeddingKey) map[int64]EmbeddingRecord {
	p, ok := m.partitions[key.String()]
	if !ok {
		p = make(map[int64]EmbeddingRecord)
		m.partitions[key.String()] = p
	}
	return p
}

func (m *memStore) RowCount(ctx context.Context, table string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rowCounts[table], nil
}

func (m *memStore) CountEmbeddings(ctx context.Context, key EmbeddingKey) (int64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.partition(key)
	dim := 0
	for _, rec := range p {
		dim = len(rec.Vector)
		break
	}
	return int64(len(p)), dim, nil
}

func (m *memStore) FetchEmbeddings(ctx context.Context, key EmbeddingKey, offset, limit int) ([]EmbeddingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.partition(key)

	ids := make([]int64, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var page []EmbeddingRecord
	for i := offset; i < len(ids) && len(page) < limit; i++ {
		page = append(page, p[ids[i]])
	}
	return page, nil
}

func (m *memStore) FetchFingerprints(ctx context.Context, key EmbeddingKey) (map[int64]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]uint64)
	for id, rec := range m.partition(key) {
		out[id] = rec.Fingerprint
	}
	return out, nil
}

func (m *memStore) PutEmbeddings(ctx context.Context, key EmbeddingKey, records []EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	p := m.partition(key)
	for _, rec := range records {
		p[rec.RowID] = rec
	}
	return nil
}

func (m *memStore) DeleteEmbeddings(ctx context.Context, key EmbeddingKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.partitions, key.String())
	return nil
}

func (m *memStore) DeleteRowEmbeddings(ctx context.Context, key EmbeddingKey, rowID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.partition(key), rowID)
	return nil
}

func (m *memStore) DeleteRowEmbeddingsForTable(ctx context.Context, table string, rowID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.partitions {
		if keyTable(id) == table {
			delete(p, rowID)
		}
	}
	return nil
}

func (m *memStore) DeleteTableEmbeddings(ctx context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.partitions {
		if keyTable(id) == table {
			delete(m.partitions, id)
		}
	}
	return nil
}

// keyTable extracts the table component of a key's string identity
func keyTable(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == '\x1f' {
			return id[:i]
		}
	}
	return id
}

func testKey(table string) EmbeddingKey {
	return NewEmbeddingKey(table, []string{"content", "title"}, "test-model")
}

func TestCacheUpsertAndFetchAll(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewCache(store)
	key := testKey("notes")

	records := []EmbeddingRecord{
		{RowID: 1, Vector: []float32{1, 0}, Fingerprint: 11},
		{RowID: 2, Vector: []float32{0, 1}, Fingerprint: 22},
	}
	if err := cache.Upsert(ctx, key, records); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := cache.FetchAll(ctx, key)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].RowID != 1 || got[1].RowID != 2 {
		t.Errorf("expected row id order [1 2], got [%d %d]", got[0].RowID, got[1].RowID)
	}
}

func TestCacheUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewCache(store)
	key := testKey("notes")

	records := []EmbeddingRecord{{RowID: 1, Vector: []float32{1, 0}, Fingerprint: 11}}
	for i := 0; i < 3; i++ {
		if err := cache.Upsert(ctx, key, records); err != nil {
			t.Fatalf("upsert %d failed: %v", i, err)
		}
	}

	got, err := cache.FetchAll(ctx, key)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 record after repeated upserts, got %d", len(got))
	}
}

func TestCacheUpsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewCache(store)
	key := testKey("notes")

	if err := cache.Upsert(ctx, key, []EmbeddingRecord{{RowID: 1, Vector: []float32{1, 0, 0}}}); err != nil {
		t.Fatalf("initial upsert failed: %v", err)
	}

	// Conflicting batch dimension fails whole-batch; partition untouched
	err := cache.Upsert(ctx, key, []EmbeddingRecord{
		{RowID: 2, Vector: []float32{1, 0}},
		{RowID: 3, Vector: []float32{0, 1}},
	})
	if !IsKind(err, KindDimensionMismatch) {
		t.Fatalf("expected dimension_mismatch, got %v", err)
	}

	got, _ := cache.FetchAll(ctx, key)
	if len(got) != 1 {
		t.Errorf("expected partition unchanged with 1 record, got %d", len(got))
	}
}

func TestCacheUpsertMixedDimensionBatch(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(newMemStore())
	key := testKey("notes")

	err := cache.Upsert(ctx, key, []EmbeddingRecord{
		{RowID: 1, Vector: []float32{1, 0}},
		{RowID: 2, Vector: []float32{1, 0, 0}},
	})
	if !IsKind(err, KindDimensionMismatch) {
		t.Errorf("expected dimension_mismatch for a mixed batch, got %v", err)
	}
}

func TestCacheUpsertEmptyBatch(t *testing.T) {
	cache := NewCache(newMemStore())
	if err := cache.Upsert(context.Background(), testKey("notes"), nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}

func TestCacheStaleRows(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewCache(store)
	key := testKey("notes")

	if err := cache.Upsert(ctx, key, []EmbeddingRecord{
		{RowID: 1, Vector: []float32{1}, Fingerprint: 11},
		{RowID: 2, Vector: []float32{1}, Fingerprint: 22},
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	tests := []struct {
		name     string
		rows     []RowFingerprint
		expected []int64
	}{
		{
			name: "all fresh",
			rows: []RowFingerprint{
				{RowID: 1, Fingerprint: 11},
				{RowID: 2, Fingerprint: 22},
			},
			expected: nil,
		},
		{
			name: "changed fingerprint is stale",
			rows: []RowFingerprint{
				{RowID: 1, Fingerprint: 99},
				{RowID: 2, Fingerprint: 22},
			},
			expected: []int64{1},
		},
		{
			name: "missing record is stale",
			rows: []RowFingerprint{
				{RowID: 1, Fingerprint: 11},
				{RowID: 3, Fingerprint: 33},
			},
			expected: []int64{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cache.StaleRows(ctx, key, tt.rows)
			if err != nil {
				t.Fatalf("stale check failed: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, got)
				}
			}
		})
	}
}

func TestCacheCoverage(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.rowCounts["notes"] = 3
	cache := NewCache(store)
	key := testKey("notes")

	if err := cache.Upsert(ctx, key, []EmbeddingRecord{
		{RowID: 1, Vector: []float32{1}, Fingerprint: 11},
		{RowID: 2, Vector: []float32{1}, Fingerprint: 22},
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	rows := []RowFingerprint{
		{RowID: 1, Fingerprint: 11},
		{RowID: 2, Fingerprint: 99}, // edited since embedding
		{RowID: 3, Fingerprint: 33}, // never embedded
	}
	stats, err := cache.Coverage(ctx, key, rows)
	if err != nil {
		t.Fatalf("coverage failed: %v", err)
	}
	if stats.TotalRows != 3 {
		t.Errorf("expected 3 total rows, got %d", stats.TotalRows)
	}
	if stats.EmbeddedRows != 2 {
		t.Errorf("expected 2 embedded rows, got %d", stats.EmbeddedRows)
	}
	if stats.StaleRows != 2 {
		t.Errorf("expected 2 stale rows, got %d", stats.StaleRows)
	}
}

func TestCachePartitionIsolation(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewCache(store)

	keyA := NewEmbeddingKey("notes", []string{"content"}, "model-a")
	keyB := NewEmbeddingKey("notes", []string{"content"}, "model-b")

	if err := cache.Upsert(ctx, keyA, []EmbeddingRecord{{RowID: 1, Vector: []float32{1, 0}}}); err != nil {
		t.Fatalf("upsert A failed: %v", err)
	}
	// A different model may use a different dimension without conflict
	if err := cache.Upsert(ctx, keyB, []EmbeddingRecord{{RowID: 1, Vector: []float32{1, 0, 0}}}); err != nil {
		t.Fatalf("upsert B failed: %v", err)
	}

	if err := cache.Evict(ctx, keyA); err != nil {
		t.Fatalf("evict failed: %v", err)
	}

	gotA, _ := cache.FetchAll(ctx, keyA)
	gotB, _ := cache.FetchAll(ctx, keyB)
	if len(gotA) != 0 {
		t.Errorf("expected partition A empty, got %d records", len(gotA))
	}
	if len(gotB) != 1 {
		t.Errorf("expected partition B intact, got %d records", len(gotB))
	}
}

func TestCacheEvictRowAll(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewCache(store)

	keyA := NewEmbeddingKey("notes", []string{"content"}, "model-a")
	keyB := NewEmbeddingKey("notes", []string{"content"}, "model-b")
	other := NewEmbeddingKey("tasks", []string{"content"}, "model-a")

	for _, key := range []EmbeddingKey{keyA, keyB, other} {
		if err := cache.Upsert(ctx, key, []EmbeddingRecord{
			{RowID: 1, Vector: []float32{1}},
			{RowID: 2, Vector: []float32{1}},
		}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	if err := cache.EvictRowAll(ctx, "notes", 1); err != nil {
		t.Fatalf("evict row failed: %v", err)
	}

	for _, key := range []EmbeddingKey{keyA, keyB} {
		got, _ := cache.FetchAll(ctx, key)
		if len(got) != 1 || got[0].RowID != 2 {
			t.Errorf("partition %s: expected only row 2 to remain", key.String())
		}
	}
	got, _ := cache.FetchAll(ctx, other)
	if len(got) != 2 {
		t.Errorf("unrelated table lost records: %d left", len(got))
	}
}

func TestCacheEvictTable(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewCache(store)

	notes := testKey("notes")
	tasks := testKey("tasks")
	for _, key := range []EmbeddingKey{notes, tasks} {
		if err := cache.Upsert(ctx, key, []EmbeddingRecord{{RowID: 1, Vector: []float32{1}}}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	if err := cache.EvictTable(ctx, "notes"); err != nil {
		t.Fatalf("evict table failed: %v", err)
	}

	gotNotes, _ := cache.FetchAll(ctx, notes)
	gotTasks, _ := cache.FetchAll(ctx, tasks)
	if len(gotNotes) != 0 {
		t.Errorf("expected notes partitions gone, got %d records", len(gotNotes))
	}
	if len(gotTasks) != 1 {
		t.Errorf("expected tasks partition intact, got %d records", len(gotTasks))
	}
}

func TestCacheFetchAllPagination(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewCache(store)
	key := testKey("notes")

	// More rows than one fetch page
	count := fetchPageSize + 50
	records := make([]EmbeddingRecord, count)
	for i := range records {
		records[i] = EmbeddingRecord{RowID: int64(i + 1), Vector: []float32{1}}
	}
	if err := cache.Upsert(ctx, key, records); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := cache.FetchAll(ctx, key)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(got) != count {
		t.Errorf("expected %d records, got %d", count, len(got))
	}
}
