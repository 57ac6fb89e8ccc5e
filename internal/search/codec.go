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
	"encoding/binary"
	"fmt"
	"math"
)

// Blob layout: [u32 dimension][u64 content_fingerprint][dimension x f32 LE].
// The relational layer owns the column; this codec owns the bytes.
const blobHeaderSize = 4 + 8

// EncodeVector serializes a record's vector and fingerprint to a storage blob
func EncodeVector(record EmbeddingRecord) []byte {
	buf := make([]byte, blobHeaderSize+len(record.Vector)*4)
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(record.Vector)))
	binary.LittleEndian.PutUint64(buf[4:], record.Fingerprint)
	for i, v := range record.Vector {
		binary.LittleEndian.PutUint32(buf[blobHeaderSize+i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector deserializes a storage blob back into vector and fingerprint
func DecodeVector(data []byte) ([]float32, uint64, error) {
	dim, fingerprint, err := DecodeHeader(data)
	if err != nil {
		return nil, 0, err
	}

	if len(data) != blobHeaderSize+dim*4 {
		return nil, 0, fmt.Errorf("embedding blob length %d does not match dimension %d", len(data), dim)
	}

	vector := make([]float32, dim)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(data[blobHeaderSize+i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector, fingerprint, nil
}

// DecodeHeader reads only the dimension and fingerprint from a blob prefix.
// Staleness checks use this to avoid decoding full vectors.
func DecodeHeader(data []byte) (dim int, fingerprint uint64, err error) {
	if len(data) < blobHeaderSize {
		return 0, 0, fmt.Errorf("embedding blob too short: %d bytes", len(data))
	}
	dim = int(binary.LittleEndian.Uint32(data[0:]))
	fingerprint = binary.LittleEndian.Uint64(data[4:])
	return dim, fingerprint, nil
}
