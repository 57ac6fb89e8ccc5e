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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewVoyageProvider(t *testing.T) {
	tests := []struct {
		name        string
		apiKey      string
		model       string
		expectErr   bool
		expectModel string
	}{
		{
			name:        "valid with explicit model",
			apiKey:      "pa-test-key",
			model:       "voyage-3",
			expectModel: "voyage-3",
		},
		{
			name:        "default model",
			apiKey:      "pa-test-key",
			model:       "",
			expectModel: "voyage-3-lite",
		},
		{
			name:      "empty key",
			apiKey:    "",
			model:     "voyage-3",
			expectErr: true,
		},
		{
			name:      "unsupported model",
			apiKey:    "pa-test-key",
			model:     "voyage-99",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewVoyageProvider(tt.apiKey, tt.model)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if provider.ModelName() != tt.expectModel {
				t.Errorf("expected model %q, got %q", tt.expectModel, provider.ModelName())
			}
			if provider.ProviderName() != "voyage" {
				t.Errorf("expected provider voyage, got %q", provider.ProviderName())
			}
		})
	}
}

func TestVoyageDimensions(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{"voyage-3", 1024},
		{"voyage-3-lite", 512},
		{"voyage-2", 1024},
	}

	for _, tt := range tests {
		provider, err := NewVoyageProvider("pa-test-key", tt.model)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := provider.Dimensions(); got != tt.expected {
			t.Errorf("%s: expected %d dimensions, got %d", tt.model, tt.expected, got)
		}
	}
}

func TestVoyageEmbedBatch(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req voyageEmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}

		// Return embeddings out of order; the client must restore input order
		resp := voyageEmbeddingResponse{Model: req.Model}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{
				Embedding: []float64{float64(i), 0.5},
				Index:     i,
			})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewVoyageProvider("pa-test-key", "voyage-3-lite")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider.baseURL = server.URL

	vectors, err := provider.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vector %d out of order: %v", i, v)
		}
	}
	if gotAuth != "Bearer pa-test-key" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
}

func TestVoyageEmbedBatchEmptyInput(t *testing.T) {
	provider, err := NewVoyageProvider("pa-test-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := provider.EmbedBatch(context.Background(), nil); err == nil {
		t.Error("expected error for empty batch")
	}
}

func TestVoyageEmbedBatchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	provider, err := NewVoyageProvider("pa-bad-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider.baseURL = server.URL

	_, err = provider.EmbedBatch(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("expected error for API failure")
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestVoyageEmbedBatchCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(voyageEmbeddingResponse{})
	}))
	defer server.Close()

	provider, err := NewVoyageProvider("pa-test-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider.baseURL = server.URL

	if _, err := provider.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error when response count differs from input count")
	}
}

func TestVoyageEmbedBatchEmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := voyageEmbeddingResponse{}
		resp.Data = append(resp.Data, struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{Embedding: []float64{}, Index: 0})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewVoyageProvider("pa-test-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider.baseURL = server.URL

	if _, err := provider.EmbedBatch(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error for empty embedding in response")
	}
}
