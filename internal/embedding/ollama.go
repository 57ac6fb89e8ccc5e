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
	"sync"
	"time"
)

// OllamaHTTPTimeout is the HTTP client timeout for Ollama API requests.
// Ollama might need time to load models, so this is longer than other
// providers.
const OllamaHTTPTimeout = 60 * time.Second

// OllamaProvider implements embedding generation using Ollama
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// ollamaEmbeddingRequest represents a request to Ollama's embeddings API
type ollamaEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbeddingResponse represents a response from Ollama's embeddings API
type ollamaEmbeddingResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Model dimensions for Ollama embedding models
var ollamaModelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
	"all-minilm:latest": 384,
	"all-minilm:l6-v2":  384,
}

// Mutex to protect concurrent access to ollamaModelDimensions
var ollamaModelDimensionsMu sync.RWMutex

// NewOllamaProvider creates a new Ollama embedding provider
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	if model == "" {
		model = "nomic-embed-text"
	}

	// Unknown models are allowed; dimensions are discovered on first use

	LogProviderInit("ollama", model, map[string]string{
		"base_url": baseURL,
	})

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: OllamaHTTPTimeout,
		},
	}, nil
}

// EmbedBatch generates one embedding per input text, in order
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	startTime := time.Now()

	if len(texts) == 0 {
		return nil, fmt.Errorf("batch cannot be empty")
	}

	url := p.baseURL + "/api/embed"
	LogBatchCallDetails("ollama", p.model, url, len(texts))
	LogRequestTrace("ollama", p.model, texts[0])

	reqBody := ollamaEmbeddingRequest{
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

	resp, err := p.client.Do(req)
	if err != nil {
		LogConnectionError("ollama", url, err)
		LogBatchCall("ollama", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, fmt.Errorf("failed to connect to Ollama at %s: %w (is Ollama running?)", p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			err := fmt.Errorf("Ollama API request failed with status %d (error reading response body: %w)", resp.StatusCode, readErr)
			LogBatchCall("ollama", p.model, len(texts), time.Since(startTime), 0, err)
			return nil, err
		}

		if resp.StatusCode == 429 {
			LogRateLimitError("ollama", p.model, resp.StatusCode, string(body))
		}

		err := fmt.Errorf("Ollama API request failed with status %d: %s", resp.StatusCode, string(body))
		LogBatchCall("ollama", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, err
	}

	var embResp ollamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		LogBatchCall("ollama", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embResp.Embeddings) != len(texts) {
		err := fmt.Errorf("received %d embeddings for %d inputs (model may not be installed: try 'ollama pull %s')",
			len(embResp.Embeddings), len(texts), p.model)
		LogBatchCall("ollama", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range embResp.Embeddings {
		if len(emb) == 0 {
			err := fmt.Errorf("received empty embedding for input %d", i)
			LogBatchCall("ollama", p.model, len(texts), time.Since(startTime), 0, err)
			return nil, err
		}
		vectors[i] = toFloat32(emb)
	}

	// Update known dimensions if this is a new model
	ollamaModelDimensionsMu.Lock()
	if _, ok := ollamaModelDimensions[p.model]; !ok {
		ollamaModelDimensions[p.model] = len(vectors[0])
	}
	ollamaModelDimensionsMu.Unlock()

	dimensions := len(vectors[0])
	LogResponseTrace("ollama", p.model, resp.StatusCode, dimensions)
	LogBatchCall("ollama", p.model, len(texts), time.Since(startTime), dimensions, nil)

	return vectors, nil
}

// Dimensions returns the number of dimensions for this model
func (p *OllamaProvider) Dimensions() int {
	ollamaModelDimensionsMu.RLock()
	defer ollamaModelDimensionsMu.RUnlock()
	if dims, ok := ollamaModelDimensions[p.model]; ok {
		return dims
	}
	// Unknown until the first EmbedBatch call
	return 0
}

// ModelName returns the model name
func (p *OllamaProvider) ModelName() string {
	return p.model
}

// ProviderName returns "ollama"
func (p *OllamaProvider) ProviderName() string {
	return "ollama"
}
