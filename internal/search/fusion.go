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

import "sort"

// Fuse blends lexical and vector scores into a single ranked candidate list.
//
// A candidate must clear the similarity threshold or have a genuine keyword
// hit to be considered at all; the gate keeps a dominant semantic weight
// from resurrecting rows that merely share a globally common embedding
// direction. Ties break by vector score descending, then row id ascending,
// so repeated calls over the same inputs return the same ordering.
func Fuse(lexical, vector map[int64]float64, weights Weights, threshold float64, limit int) []ScoredCandidate {
	semanticW, lexicalW := NormalizeWeights(weights)

	// Union of row ids present in either map; absent scores default to 0
	ids := make(map[int64]struct{}, len(lexical)+len(vector))
	for id := range lexical {
		ids[id] = struct{}{}
	}
	for id := range vector {
		ids[id] = struct{}{}
	}

	candidates := make([]ScoredCandidate, 0, len(ids))
	for id := range ids {
		lex := lexical[id]
		vec, hasVec := vector[id]

		// Gate: below the similarity bar with no keyword hit
		if vec < threshold && lex == 0.0 {
			continue
		}

		candidates = append(candidates, ScoredCandidate{
			RowID:         id,
			LexicalScore:  lex,
			VectorScore:   vec,
			CombinedScore: semanticW*vec + lexicalW*lex,
			HasVector:     hasVec,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		if candidates[i].VectorScore != candidates[j].VectorScore {
			return candidates[i].VectorScore > candidates[j].VectorScore
		}
		return candidates[i].RowID < candidates[j].RowID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// NormalizeWeights scales the weights so they sum to 1; both zero is treated
// as an even split
func NormalizeWeights(weights Weights) (semantic, lexical float64) {
	sum := weights.Semantic + weights.Lexical
	if sum == 0 {
		return 0.5, 0.5
	}
	return weights.Semantic / sum, weights.Lexical / sum
}

// ValidateWeights rejects negative weights before any work is attempted
func ValidateWeights(weights Weights) error {
	if weights.Semantic < 0 || weights.Lexical < 0 {
		return NewError(KindInvalidWeights, "", nil)
	}
	return nil
}
