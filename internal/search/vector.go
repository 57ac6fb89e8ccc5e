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

import "math"

// CosineSimilarity computes cosine similarity between two vectors, clamped
// to [0, 1]. Negative cosine is zero relevance, not anti-relevance, because
// fusion assumes non-negative scores. Zero-norm vectors and mismatched
// dimensions yield 0.0 rather than NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0.0
	}
	if sim > 1 {
		return 1.0
	}
	return sim
}

// ScoreVectors computes clamped cosine similarity of the query vector
// against a batch of cached records
func ScoreVectors(queryVec []float32, records []EmbeddingRecord) map[int64]float64 {
	scores := make(map[int64]float64, len(records))
	for _, rec := range records {
		scores[rec.RowID] = CosineSimilarity(queryVec, rec.Vector)
	}
	return scores
}
