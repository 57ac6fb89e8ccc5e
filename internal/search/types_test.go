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

import "testing"

func TestHashColumnSetOrderIndependent(t *testing.T) {
	a := HashColumnSet([]string{"title", "content"})
	b := HashColumnSet([]string{"content", "title"})
	if a != b {
		t.Errorf("column order changed hash: %s vs %s", a, b)
	}

	c := HashColumnSet([]string{"title"})
	if a == c {
		t.Error("different column sets produced the same hash")
	}
}

func TestHashColumnSetSeparatorAmbiguity(t *testing.T) {
	// The separator byte keeps ["ab","c"] distinct from ["a","bc"]
	a := HashColumnSet([]string{"ab", "c"})
	b := HashColumnSet([]string{"a", "bc"})
	if a == b {
		t.Error("concatenation-ambiguous column sets collided")
	}
}

func TestNewEmbeddingKey(t *testing.T) {
	k1 := NewEmbeddingKey("notes", []string{"title", "content"}, "voyage-3-lite")
	k2 := NewEmbeddingKey("notes", []string{"content", "title"}, "voyage-3-lite")
	if k1 != k2 {
		t.Error("reordered columns created a distinct partition key")
	}

	k3 := NewEmbeddingKey("notes", []string{"title", "content"}, "voyage-3")
	if k1 == k3 {
		t.Error("different models share a partition key")
	}
	if k1.String() == k3.String() {
		t.Error("different keys share a string identity")
	}
}

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		a       []string
		b       []string
		expSame bool
	}{
		{
			name:    "identical values",
			a:       []string{"hello", "world"},
			b:       []string{"hello", "world"},
			expSame: true,
		},
		{
			name:    "changed value",
			a:       []string{"hello", "world"},
			b:       []string{"hello", "there"},
			expSame: false,
		},
		{
			name:    "separator prevents concatenation collisions",
			a:       []string{"ab", "c"},
			b:       []string{"a", "bc"},
			expSame: false,
		},
		{
			name:    "empty trailing value changes the hash",
			a:       []string{"x"},
			b:       []string{"x", ""},
			expSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			same := Fingerprint(tt.a) == Fingerprint(tt.b)
			if same != tt.expSame {
				t.Errorf("expected same=%v for %v vs %v", tt.expSame, tt.a, tt.b)
			}
		})
	}
}

func TestErrorKindStrings(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{KindNoSearchableTables, "no_searchable_tables"},
		{KindDimensionMismatch, "dimension_mismatch"},
		{KindProviderUnavailable, "provider_unavailable"},
		{KindProviderBatchFailed, "provider_batch_failed"},
		{KindInvalidWeights, "invalid_weights"},
		{KindEmptyQuery, "empty_query"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}

func TestIsKind(t *testing.T) {
	err := NewError(KindDimensionMismatch, "notes", nil)
	if !IsKind(err, KindDimensionMismatch) {
		t.Error("expected IsKind to match")
	}
	if IsKind(err, KindEmptyQuery) {
		t.Error("expected IsKind to reject a different kind")
	}
	if IsKind(nil, KindEmptyQuery) {
		t.Error("expected IsKind to reject nil")
	}
}
