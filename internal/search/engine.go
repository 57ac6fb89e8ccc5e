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
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/logging"
)

// embedConcurrency bounds parallel per-table auto-embed passes
const embedConcurrency = 4

// Provider is the narrow embedding boundary the engine depends on. Batch
// order is preserved 1:1 with input order.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Config holds the engine's policy constants. SimilarityThreshold and
// SemanticWeight are pointers so an explicit zero is distinguishable from
// unset: nil means "use the default", a pointer to 0 is honored as 0.
type Config struct {
	DefaultModelID      string
	AutoEmbedBatchSize  int
	ScanLimit           int
	SimilarityThreshold *float64
	SemanticWeight      *float64
}

// withDefaults fills unset policy values
func (c Config) withDefaults() Config {
	if c.AutoEmbedBatchSize <= 0 {
		c.AutoEmbedBatchSize = 64
	}
	if c.ScanLimit <= 0 {
		c.ScanLimit = 10000
	}
	if c.SimilarityThreshold == nil {
		c.SimilarityThreshold = floatPtr(0.5)
	}
	if c.SemanticWeight == nil {
		c.SemanticWeight = floatPtr(0.7)
	}
	return c
}

func floatPtr(v float64) *float64 {
	return &v
}

// Engine owns the embedding cache and provider handle and coordinates
// hybrid search requests. It replaces any notion of process-global state:
// construct it once and pass it where needed.
type Engine struct {
	catalog  Catalog
	cache    *Cache
	provider Provider // nil when semantic search is not configured
	cfg      Config
	flight   singleflight.Group
}

// NewEngine creates a search engine. provider may be nil, in which case
// every request degrades to lexical-only scoring.
func NewEngine(catalog Catalog, cache *Cache, provider Provider, cfg Config) *Engine {
	return &Engine{
		catalog:  catalog,
		cache:    cache,
		provider: provider,
		cfg:      cfg.withDefaults(),
	}
}

// HasProvider reports whether semantic scoring is available
func (e *Engine) HasProvider() bool {
	return e.provider != nil
}

// Cache exposes the engine's embedding cache for eviction hooks
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Config returns the engine's effective policy constants
func (e *Engine) Config() Config {
	return e.cfg
}

// tableState carries one table's per-request scoring state through the
// Resolving -> Embedding -> Scoring -> Fusing pipeline
type tableState struct {
	handle   TableHandle
	key      EmbeddingKey
	rows     []RowText
	fellBack bool
	reason   string
	embedded bool
}

// Search runs one request through the full state machine. Provider failures
// degrade the affected table to lexical-only scoring; the request still
// succeeds. Zero candidates is a normal outcome, not an error.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, NewError(KindEmptyQuery, "", nil)
	}
	if err := ValidateWeights(req.Weights); err != nil {
		return nil, err
	}

	modelID := req.ModelID
	if modelID == "" {
		modelID = e.cfg.DefaultModelID
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	// Resolving
	states, err := e.resolveTables(ctx, req.Tables, modelID)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		RequestID: uuid.NewString(),
		Results:   []Result{},
	}

	// Load row text once per table; it feeds fingerprints, auto-embed, and
	// lexical scoring
	for _, st := range states {
		rows, err := e.catalog.ReadTextColumns(ctx, st.handle.Name, st.handle.TextColumns, e.cfg.ScanLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to read text columns of %s: %w", st.handle.Name, err)
		}
		st.rows = rows
	}

	// Embedding
	if req.AutoEmbed && e.provider != nil {
		resp.AutoEmbedded = true
		e.embedStates(ctx, states)
	}

	// A missing provider degrades every table rather than failing the request
	var queryVec []float32
	if e.provider == nil {
		for _, st := range states {
			st.fellBack = true
			st.reason = KindProviderUnavailable.String() + ": no embedding provider configured"
		}
	} else {
		vecs, err := e.provider.EmbedBatch(ctx, []string{query})
		if err != nil || len(vecs) != 1 {
			reason := KindProviderUnavailable.String()
			if err != nil {
				reason += ": " + err.Error()
			}
			for _, st := range states {
				if !st.fellBack {
					st.fellBack = true
					st.reason = reason
				}
			}
		} else {
			queryVec = vecs[0]
		}
	}

	// Scoring and Fusing, per table, then global merge
	type tableCandidate struct {
		table string
		cand  ScoredCandidate
	}
	var merged []tableCandidate

	for _, st := range states {
		lexical := make(map[int64]float64)
		for _, row := range st.rows {
			if score := LexicalScore(query, row.Values); score > 0 {
				lexical[row.RowID] = score
			}
		}

		vector := make(map[int64]float64)
		if !st.fellBack && queryVec != nil {
			records, err := e.cache.FetchAll(ctx, st.key)
			if err != nil {
				st.fellBack = true
				st.reason = fmt.Sprintf("failed to load cached embeddings: %v", err)
			} else {
				vector = ScoreVectors(queryVec, records)
			}
		}

		for _, cand := range Fuse(lexical, vector, req.Weights, req.SimilarityThreshold, limit) {
			merged = append(merged, tableCandidate{table: st.handle.Name, cand: cand})
		}
	}

	// Global ordering uses the same tie-break rule as per-table fusion,
	// extended with the table name for cross-table determinism
	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.cand.CombinedScore != b.cand.CombinedScore {
			return a.cand.CombinedScore > b.cand.CombinedScore
		}
		if a.cand.VectorScore != b.cand.VectorScore {
			return a.cand.VectorScore > b.cand.VectorScore
		}
		if a.table != b.table {
			return a.table < b.table
		}
		return a.cand.RowID < b.cand.RowID
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	// Done: attach source tags and degradation report
	for _, tc := range merged {
		result := Result{
			Table:         tc.table,
			RowID:         tc.cand.RowID,
			CombinedScore: tc.cand.CombinedScore,
			LexicalScore:  tc.cand.LexicalScore,
			Source:        SourceLexicalOnly,
		}
		if tc.cand.HasVector {
			score := tc.cand.VectorScore
			result.VectorScore = &score
			result.Source = SourceHybrid
		}
		resp.Results = append(resp.Results, result)
	}

	for _, st := range states {
		if st.embedded {
			resp.EmbeddedTables = append(resp.EmbeddedTables, st.handle.Name)
		}
		if st.fellBack {
			resp.Fallbacks = append(resp.Fallbacks, Fallback{Table: st.handle.Name, Reason: st.reason})
		}
	}
	sort.Strings(resp.EmbeddedTables)
	sort.Slice(resp.Fallbacks, func(i, j int) bool { return resp.Fallbacks[i].Table < resp.Fallbacks[j].Table })

	return resp, nil
}

// resolveTables expands the request's target tables to searchable handles
func (e *Engine) resolveTables(ctx context.Context, targets []string, modelID string) ([]*tableState, error) {
	handles, err := e.catalog.SearchableTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list searchable tables: %w", err)
	}

	byName := make(map[string]TableHandle, len(handles))
	for _, h := range handles {
		byName[h.Name] = h
	}

	var selected []TableHandle
	if len(targets) == 0 {
		selected = handles
	} else {
		for _, name := range targets {
			if h, ok := byName[name]; ok {
				selected = append(selected, h)
			}
		}
	}

	if len(selected) == 0 {
		return nil, NewError(KindNoSearchableTables, "", nil)
	}

	sort.Slice(selected, func(i, j int) bool { return selected[i].Name < selected[j].Name })

	states := make([]*tableState, 0, len(selected))
	for _, h := range selected {
		states = append(states, &tableState{
			handle: h,
			key:    NewEmbeddingKey(h.Name, h.TextColumns, modelID),
		})
	}
	return states, nil
}

// embedStates runs the auto-embed pass for each table. A failure for one
// table records a fallback and drops that table from vector scoring; it
// never aborts the request.
func (e *Engine) embedStates(ctx context.Context, states []*tableState) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for _, st := range states {
		st := st
		g.Go(func() error {
			embedded, err := e.ensureEmbedded(gctx, st.key, st.rows)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				st.fellBack = true
				st.reason = err.Error()
				logging.Warn("auto-embed failed, table degrades to lexical-only",
					"table", st.handle.Name, "error", err.Error())
				return nil
			}
			st.embedded = embedded
			return nil
		})
	}
	_ = g.Wait()
}

// ensureEmbedded brings a partition up to date with the given rows. The
// pass is deduplicated per key: concurrent callers await the in-flight
// result instead of re-issuing provider work. Returns whether any rows
// were (re)embedded; a fresh partition performs zero provider calls.
func (e *Engine) ensureEmbedded(ctx context.Context, key EmbeddingKey, rows []RowText) (bool, error) {
	result, err, _ := e.flight.Do(key.String(), func() (interface{}, error) {
		return e.embedStale(ctx, key, rows)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// embedStale embeds the stale subset of rows in provider-sized batches.
// The partition lock is never held across a provider call: rows are read,
// the provider invoked, and the lock taken only for the write-back inside
// Upsert. Cancellation lets an in-flight batch complete but skips starting
// new ones, so no partial fingerprints are left behind.
func (e *Engine) embedStale(ctx context.Context, key EmbeddingKey, rows []RowText) (bool, error) {
	fingerprints := make([]RowFingerprint, len(rows))
	textByRow := make(map[int64]string, len(rows))
	for i, row := range rows {
		fingerprints[i] = RowFingerprint{RowID: row.RowID, Fingerprint: Fingerprint(row.Values)}
		textByRow[row.RowID] = strings.Join(row.Values, "\n")
	}

	stale, err := e.cache.StaleRows(ctx, key, fingerprints)
	if err != nil {
		return false, err
	}
	if len(stale) == 0 {
		return false, nil
	}

	fpByRow := make(map[int64]uint64, len(fingerprints))
	for _, fp := range fingerprints {
		fpByRow[fp.RowID] = fp.Fingerprint
	}

	batchSize := e.cfg.AutoEmbedBatchSize
	for start := 0; start < len(stale); start += batchSize {
		if err := ctx.Err(); err != nil {
			return false, NewError(KindProviderBatchFailed, key.Table, err)
		}

		end := start + batchSize
		if end > len(stale) {
			end = len(stale)
		}
		batch := stale[start:end]

		texts := make([]string, len(batch))
		for i, rowID := range batch {
			texts[i] = textByRow[rowID]
		}

		vectors, err := e.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return false, NewError(KindProviderBatchFailed, key.Table, err)
		}
		if len(vectors) != len(texts) {
			return false, NewError(KindProviderBatchFailed, key.Table,
				fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors)))
		}

		records := make([]EmbeddingRecord, len(batch))
		for i, rowID := range batch {
			records[i] = EmbeddingRecord{
				RowID:       rowID,
				Vector:      vectors[i],
				Fingerprint: fpByRow[rowID],
			}
		}

		if err := e.cache.Upsert(ctx, key, records); err != nil {
			return false, err
		}
	}

	logging.Info("embedded stale rows", "table", key.Table, "model", key.ModelID, "rows", len(stale))
	return true, nil
}

// AutoEmbedTable embeds a table's text columns on demand; the explicit
// counterpart of a search request with auto-embed enabled. Returns the
// number of rows considered and whether any were embedded.
func (e *Engine) AutoEmbedTable(ctx context.Context, table, modelID string) (int, bool, error) {
	if e.provider == nil {
		return 0, false, NewError(KindProviderUnavailable, table, nil)
	}

	handle, err := e.resolveTable(ctx, table)
	if err != nil {
		return 0, false, err
	}
	if modelID == "" {
		modelID = e.cfg.DefaultModelID
	}

	rows, err := e.catalog.ReadTextColumns(ctx, handle.Name, handle.TextColumns, e.cfg.ScanLimit)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read text columns of %s: %w", handle.Name, err)
	}

	key := NewEmbeddingKey(handle.Name, handle.TextColumns, modelID)
	embedded, err := e.ensureEmbedded(ctx, key, rows)
	return len(rows), embedded, err
}

// EmbeddingStats recomputes coverage for a table under a model
func (e *Engine) EmbeddingStats(ctx context.Context, table, modelID string) (CoverageStats, []string, error) {
	handle, err := e.resolveTable(ctx, table)
	if err != nil {
		return CoverageStats{}, nil, err
	}
	if modelID == "" {
		modelID = e.cfg.DefaultModelID
	}

	rows, err := e.catalog.ReadTextColumns(ctx, handle.Name, handle.TextColumns, e.cfg.ScanLimit)
	if err != nil {
		return CoverageStats{}, nil, fmt.Errorf("failed to read text columns of %s: %w", handle.Name, err)
	}

	fingerprints := make([]RowFingerprint, len(rows))
	for i, row := range rows {
		fingerprints[i] = RowFingerprint{RowID: row.RowID, Fingerprint: Fingerprint(row.Values)}
	}

	key := NewEmbeddingKey(handle.Name, handle.TextColumns, modelID)
	stats, err := e.cache.Coverage(ctx, key, fingerprints)
	return stats, handle.TextColumns, err
}

// resolveTable finds a single searchable table by name
func (e *Engine) resolveTable(ctx context.Context, table string) (TableHandle, error) {
	handles, err := e.catalog.SearchableTables(ctx)
	if err != nil {
		return TableHandle{}, fmt.Errorf("failed to list searchable tables: %w", err)
	}
	for _, h := range handles {
		if h.Name == table {
			return h, nil
		}
	}
	return TableHandle{}, NewError(KindNoSearchableTables, table, nil)
}
