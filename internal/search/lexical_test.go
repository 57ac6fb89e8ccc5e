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
	"math"
	"testing"
)

func TestLexicalScore(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		fields   []string
		expected float64
	}{
		{
			name:     "no match",
			query:    "missing",
			fields:   []string{"hello world"},
			expected: 0.0,
		},
		{
			name:     "single occurrence",
			query:    "world",
			fields:   []string{"hello world"}, // 11 runes, 1 hit
			expected: 1.0 / 11.0,
		},
		{
			name:     "case insensitive",
			query:    "WORLD",
			fields:   []string{"Hello World"},
			expected: 1.0 / 11.0,
		},
		{
			name:     "multiple occurrences in one field",
			query:    "ab",
			fields:   []string{"ab ab ab"}, // 8 runes, 3 hits
			expected: 3.0 / 8.0,
		},
		{
			name:     "scores sum across fields",
			query:    "go",
			fields:   []string{"go", "going"}, // 1/2 + 1/5
			expected: 0.5 + 0.2,
		},
		{
			name:     "empty query",
			query:    "",
			fields:   []string{"anything"},
			expected: 0.0,
		},
		{
			name:     "empty fields",
			query:    "query",
			fields:   nil,
			expected: 0.0,
		},
		{
			name:     "empty field skipped",
			query:    "x",
			fields:   []string{"", "x"},
			expected: 1.0,
		},
		{
			name:     "multibyte runes counted not bytes",
			query:    "é",
			fields:   []string{"éé"}, // 2 runes, 2 hits
			expected: 1.0,
		},
		{
			name:     "phrase match",
			query:    "quick brown",
			fields:   []string{"the quick brown fox"}, // 19 runes, 1 hit
			expected: 1.0 / 19.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LexicalScore(tt.query, tt.fields)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestLexicalScoreShorterFieldRanksHigher(t *testing.T) {
	// Same single occurrence, shorter field wins
	short := LexicalScore("note", []string{"note"})
	long := LexicalScore("note", []string{"a much longer note with more text around it"})
	if short <= long {
		t.Errorf("expected short field score %f > long field score %f", short, long)
	}
}
