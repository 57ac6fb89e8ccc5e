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

// OpenAIHTTPTimeout is the HTTP client timeout for OpenAI API requests
const OpenAIHTTPTimeout = 30 * time.Second

// OpenAIProvider implements embedding generation using OpenAI's API
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// openaiEmbeddingRequest represents a request to OpenAI's embeddings API
type openaiEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// openaiEmbeddingResponse represents a response from OpenAI's embeddings API
type openaiEmbeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Model dimensions for OpenAI embedding models
var openaiModelDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key cannot be empty")
	}

	// Default to text-embedding-3-small if no model specified
	if model == "" {
		model = "text-embedding-3-small"
	}

	if _, ok := openaiModelDimensions[model]; !ok {
		return nil, fmt.Errorf("unsupported OpenAI model: %s (supported: text-embedding-3-large, text-embedding-3-small, text-embedding-ada-002)", model)
	}

	LogProviderInit("openai", model, map[string]string{
		"api_key":  maskKey(apiKey),
		"base_url": "https://api.openai.com/v1",
	})

	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
		client: &http.Client{
			Timeout: OpenAIHTTPTimeout,
		},
	}, nil
}

// EmbedBatch generates one embedding per input text, in order
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	startTime := time.Now()

	if len(texts) == 0 {
		return nil, fmt.Errorf("batch cannot be empty")
	}

	url := p.baseURL + "/embeddings"
	LogBatchCallDetails("openai", p.model, url, len(texts))
	LogRequestTrace("openai", p.model, texts[0])

	reqBody := openaiEmbeddingRequest{
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
		LogConnectionError("openai", url, err)
		LogBatchCall("openai", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			err := fmt.Errorf("API request failed with status %d (error reading response body: %w)", resp.StatusCode, readErr)
			LogBatchCall("openai", p.model, len(texts), time.Since(startTime), 0, err)
			return nil, err
		}

		if resp.StatusCode == 429 {
			LogRateLimitError("openai", p.model, resp.StatusCode, string(body))
		}

		err := fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		LogBatchCall("openai", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, err
	}

	var embResp openaiEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		LogBatchCall("openai", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embResp.Data) != len(texts) {
		err := fmt.Errorf("received %d embeddings for %d inputs", len(embResp.Data), len(texts))
		LogBatchCall("openai", p.model, len(texts), time.Since(startTime), 0, err)
		return nil, err
	}

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
			LogBatchCall("openai", p.model, len(texts), time.Since(startTime), 0, err)
			return nil, err
		}
	}

	dimensions := len(vectors[0])
	LogResponseTrace("openai", p.model, resp.StatusCode, dimensions)
	LogBatchCall("openai", p.model, len(texts), time.Since(startTime), dimensions, nil)

	return vectors, nil
}

// Dimensions returns the number of dimensions for this model
func (p *OpenAIProvider) Dimensions() int {
	return openaiModelDimensions[p.model]
}

// ModelName returns the model name
func (p *OpenAIProvider) ModelName() string {
	return p.model
}

// ProviderName returns "openai"
func (p *OpenAIProvider) ProviderName() string {
	return "openai"
}
