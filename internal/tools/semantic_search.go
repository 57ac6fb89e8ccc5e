/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package tools

import (
	"context"
	"fmt"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/logging"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/search"
)

// SemanticSearchTool creates the semantic_search tool, ranking purely by
// embedding similarity
func SemanticSearchTool(engine *search.Engine) Tool {
	cfg := engine.Config()
	return Tool{
		Definition: mcp.Tool{
			Name: "semantic_search",
			Description: `Search memories by meaning alone using embeddings. Results rank by
cosine similarity between the query vector and each row's cached vector.
Requires an embedding provider; use search_content or hybrid_search
otherwise.`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Natural language search query",
					},
					"tables": map[string]interface{}{
						"type":        "array",
						"description": "Tables to search (default: all tables with text columns)",
						"items":       map[string]interface{}{"type": "string"},
					},
					"similarity_threshold": map[string]interface{}{
						"type":        "number",
						"description": fmt.Sprintf("Minimum cosine similarity (default %.1f)", *cfg.SimilarityThreshold),
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum results (default 10)",
					},
					"model_id": map[string]interface{}{
						"type":        "string",
						"description": "Embedding model to search against (default: configured model)",
					},
					"auto_embed": map[string]interface{}{
						"type":        "boolean",
						"description": "Embed missing or stale rows before searching (default true)",
					},
				},
				Required: []string{"query"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			if !engine.HasProvider() {
				return mcp.NewToolError("No embedding provider is configured; use search_content or hybrid_search instead")
			}

			query, errResp := ValidateStringParam(args, "query")
			if errResp != nil {
				return *errResp, nil
			}
			tables, errResp := ValidateStringSliceParam(args, "tables")
			if errResp != nil {
				return *errResp, nil
			}

			req := search.Request{
				Query:               query,
				Tables:              tables,
				Weights:             search.Weights{Semantic: 1, Lexical: 0},
				SimilarityThreshold: ValidateOptionalNumberParam(args, "similarity_threshold", *cfg.SimilarityThreshold),
				Limit:               int(ValidateOptionalNumberParam(args, "limit", 10)),
				ModelID:             ValidateOptionalStringParam(args, "model_id", cfg.DefaultModelID),
				AutoEmbed:           ValidateBoolParam(args, "auto_embed", true),
			}

			resp, err := engine.Search(ctx, req)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Search failed: %v", err))
			}

			logging.Info("semantic_search_executed",
				"request_id", resp.RequestID,
				"results", len(resp.Results),
				"fallbacks", len(resp.Fallbacks),
			)

			return renderSearchResponse(resp)
		},
	}
}
