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
	"reflect"
	"testing"
)

func TestVectorCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		record EmbeddingRecord
	}{
		{
			name:   "typical vector",
			record: EmbeddingRecord{Vector: []float32{0.1, -0.5, 1.25, 0}, Fingerprint: 0xdeadbeefcafe},
		},
		{
			name:   "single component",
			record: EmbeddingRecord{Vector: []float32{42}, Fingerprint: 1},
		},
		{
			name:   "empty vector",
			record: EmbeddingRecord{Vector: []float32{}, Fingerprint: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := EncodeVector(tt.record)
			vec, fp, err := DecodeVector(blob)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if fp != tt.record.Fingerprint {
				t.Errorf("expected fingerprint %x, got %x", tt.record.Fingerprint, fp)
			}
			if !reflect.DeepEqual(vec, tt.record.Vector) {
				t.Errorf("expected vector %v, got %v", tt.record.Vector, vec)
			}
		})
	}
}

func TestDecodeHeader(t *testing.T) {
	record := EmbeddingRecord{Vector: []float32{1, 2, 3}, Fingerprint: 0xfeed}
	blob := EncodeVector(record)

	// Header decodes from the 12-byte prefix alone
	dim, fp, err := DecodeHeader(blob[:blobHeaderSize])
	if err != nil {
		t.Fatalf("header decode failed: %v", err)
	}
	if dim != 3 {
		t.Errorf("expected dimension 3, got %d", dim)
	}
	if fp != 0xfeed {
		t.Errorf("expected fingerprint 0xfeed, got %x", fp)
	}
}

func TestDecodeVectorErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty blob",
			data: nil,
		},
		{
			name: "truncated header",
			data: []byte{1, 2, 3},
		},
		{
			name: "length does not match declared dimension",
			data: EncodeVector(EmbeddingRecord{Vector: []float32{1, 2, 3}})[:blobHeaderSize+4],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeVector(tt.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEncodeVectorBlobSize(t *testing.T) {
	blob := EncodeVector(EmbeddingRecord{Vector: make([]float32, 768)})
	expected := blobHeaderSize + 768*4
	if len(blob) != expected {
		t.Errorf("expected %d bytes, got %d", expected, len(blob))
	}
}
