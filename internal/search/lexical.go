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
	"strings"
	"unicode/utf8"
)

// LexicalScore computes a frequency-over-length relevance score for a query
// against a row's text columns. Matching is verbatim substring, not
// tokenized: agent queries tend to repeat exact phrases from stored content.
// A score of 0.0 means the query does not occur and the row is excluded from
// lexical candidates.
//
// Note: the occurrences/length formula favors short fields for multi-word
// queries; kept as-is because changing it would reorder existing results.
func LexicalScore(query string, fields []string) float64 {
	q := strings.ToLower(query)
	if q == "" {
		return 0.0
	}

	score := 0.0
	for _, field := range fields {
		f := strings.ToLower(field)
		length := utf8.RuneCountInString(f)
		if length == 0 {
			continue
		}
		if n := strings.Count(f, q); n > 0 {
			score += float64(n) / float64(length)
		}
	}
	return score
}
