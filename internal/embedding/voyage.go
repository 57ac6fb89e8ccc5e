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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VoyageHTTPTimeout is the HTTP client timeout for Voyage AI API requests
const VoyageHTTPTimeout = 30 * time.Second

// VoyageProvider implements embedding generation using Voyage AI's API
type VoyageProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// voyageEmbeddingRequest represents a request to Voyage AI's embeddings API
type voyageEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// voyageEmbeddingResponse represents a response from Voyage AI's embeddings API
type voyageEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Model dimensions for Voyage AI models
var voyageModelDimensions = map[string]int{
	"voyage-3":      1024,
	"voyage-3-lite": 512,
	"voyage-2":      1024,
	"voyage-2-lite": 1024,
}

// NewVoyageProvider creates a new Voyage AI embedding provider
func NewVoyageProvider(apiKey, model string) (*VoyageProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Voyage AI API key cannot be empty")
	}

	// Default to voyage-3-lite if no model specified
	if model == "" {
		model = "voyage-3-lite"
	}

	if _, ok := voyageModelDimensions[model]; !ok {
		return nil, fmt.Errorf("unsupported Voyage AI model: %s (supported: voyage-3, voyage-3-lite, voyage-2, voyage-2-lite)", model)
	}

	LogProviderInit("voyage", model, map[string]string{
		"api_key":  maskKey(apiKey),
		"base_url": "https://api.voyageai.com/v1/embeddings",
	})

	return &VoyageProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.voyageai.com/v1/embeddings",
		client: &http.Client{
			Timeout: VoyageHTTPTimeout,
		},
	}, nil
}

// EmbedBatch generates one embedding per input text, in order
func (p *VoyageProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	startTime := time.Now()

	if len(texts) == 0 {
		return nil, fmt.Errorf("batch cannot be empty")
	}

	url := p.baseURL
	LogBatchCallDetails("voyage", p.model, url, len(texts))
	LogRequestTrace("voyage", p.model, texts[0])

	reqBody := voyageEmbeddingRequest{
		Model: p.model,
		Input: texts,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		LogConnectionError("voyage", url, err)
		LogBatchCall("voyage", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			err := fmt.Errorf("API request failed with status %d (error reading response body: %w)", resp.StatusCode, readErr)
			LogBatchCall("voyage", p.model, len(texts), time.Since(startTime), 0, err)
			return nil, err
		}

		if resp.StatusCode == 429 {
			LogRateLimitError("voyage", p.model, resp.StatusCode, string(body))
		}

		err := fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		LogBatchCall("voyage", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, err
	}

	var embResp voyageEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		LogBatchCall("voyage", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embResp.Data) != len(texts) {
		err := fmt.Errorf("received %d embeddings for %d inputs", len(embResp.Data), len(texts))
		LogBatchCall("voyage", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, err
	}

	// The API tags each embedding with its input index; keep request order
	vectors := make([][]float32, len(texts))
	for _, item := range embResp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = toFloat32(item.Embedding)
	}
	for i, v := range vectors {
		if len(v) == 0 {
			err := fmt.Errorf("received empty embedding for input %d", i)
			LogBatchCall("voyage", p.model, len(texts), time.Since(startTime), 0, err)
			return nil, err
		}
	}

	dimensions := len(vectors[0])
	LogResponseTrace("voyage", p.model, resp.StatusCode, dimensions)
	LogBatchCall("voyage", p.model, len(texts), time.Since(startTime), dimensions, nil)

	return vectors, nil
}

// Dimensions returns the number of dimensions for this model
func (p *VoyageProvider) Dimensions() int {
	return voyageModelDimensions[p.model]
}

// ModelName returns the model name
func (p *VoyageProvider) ModelName() string {
	return p.model
}

// ProviderName returns "voyage"
func (p *VoyageProvider) ProviderName() string {
	return "voyage"
}
