/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockProvider generates deterministic embeddings without any network calls.
// Identical texts always get identical vectors, so it is usable in tests and
// offline smoke runs.
type MockProvider struct {
	dim int
}

// NewMockProvider creates a mock provider with the given dimension
func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 8
	}
	return &MockProvider{dim: dim}
}

// EmbedBatch derives one unit vector per text from its hash
func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.embed(text)
	}
	return vectors, nil
}

func (p *MockProvider) embed(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vector := make([]float32, p.dim)
	var norm float64
	for i := range vector {
		// xorshift keeps each component deterministic in the seed
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2000)-1000) / 1000.0
		vector[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector
}

// Dimensions returns the configured dimension
func (p *MockProvider) Dimensions() int {
	return p.dim
}

// ModelName returns "mock"
func (p *MockProvider) ModelName() string {
	return "mock"
}

// ProviderName returns "mock"
func (p *MockProvider) ProviderName() string {
	return "mock"
}
