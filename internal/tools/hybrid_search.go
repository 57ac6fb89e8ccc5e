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
	"encoding/json"
	"fmt"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/logging"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/search"
)

// HybridSearchTool creates the hybrid_search tool, the main retrieval
// entry point blending semantic similarity with lexical matching
func HybridSearchTool(engine *search.Engine) Tool {
	cfg := engine.Config()
	return Tool{
		Definition: mcp.Tool{
			Name: "hybrid_search",
			Description: `Search memories by meaning and by literal text at once.

<usecase>
Use hybrid_search as the default retrieval tool:
- Finds paraphrases through embeddings and exact terms through substrings
- Searches every table with text columns unless 'tables' narrows it
- With auto_embed=true, missing or stale embeddings are created first
</usecase>

<examples>
✓ hybrid_search(query="vacation plans")
✓ hybrid_search(query="deadline friday", tables=["tasks"], limit=5)
✓ hybrid_search(query="database migration", semantic_weight=0.9, auto_embed=true)
</examples>

<important>
- Results are ranked by a weighted blend of cosine similarity and substring frequency
- When the embedding provider is unavailable the search degrades to
  lexical-only per table and reports the fallback instead of failing
</important>`,
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
					"semantic_weight": map[string]interface{}{
						"type":        "number",
						"description": fmt.Sprintf("Weight of the vector score in the blend (default %.1f)", *cfg.SemanticWeight),
					},
					"lexical_weight": map[string]interface{}{
						"type":        "number",
						"description": "Weight of the lexical score in the blend (default: 1 - semantic_weight)",
					},
					"similarity_threshold": map[string]interface{}{
						"type":        "number",
						"description": fmt.Sprintf("Minimum cosine similarity for vector-only hits (default %.1f)", *cfg.SimilarityThreshold),
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
			query, errResp := ValidateStringParam(args, "query")
			if errResp != nil {
				return *errResp, nil
			}
			tables, errResp := ValidateStringSliceParam(args, "tables")
			if errResp != nil {
				return *errResp, nil
			}

			semanticWeight := ValidateOptionalNumberParam(args, "semantic_weight", *cfg.SemanticWeight)
			lexicalWeight := ValidateOptionalNumberParam(args, "lexical_weight", 1.0-semanticWeight)

			req := search.Request{
				Query:               query,
				Tables:              tables,
				Weights:             search.Weights{Semantic: semanticWeight, Lexical: lexicalWeight},
				SimilarityThreshold: ValidateOptionalNumberParam(args, "similarity_threshold", *cfg.SimilarityThreshold),
				Limit:               int(ValidateOptionalNumberParam(args, "limit", 10)),
				ModelID:             ValidateOptionalStringParam(args, "model_id", cfg.DefaultModelID),
				AutoEmbed:           ValidateBoolParam(args, "auto_embed", true),
			}

			resp, err := engine.Search(ctx, req)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Search failed: %v", err))
			}

			logging.Info("hybrid_search_executed",
				"request_id", resp.RequestID,
				"results", len(resp.Results),
				"fallbacks", len(resp.Fallbacks),
			)

			return renderSearchResponse(resp)
		},
	}
}

// renderSearchResponse formats a search response for the tool surface
func renderSearchResponse(resp *search.Response) (mcp.ToolResponse, error) {
	payload, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolError(fmt.Sprintf("Failed to render results: %v", err))
	}
	if len(resp.Results) == 0 {
		return mcp.NewToolSuccess("No results.\n" + string(payload))
	}
	return mcp.NewToolSuccess(string(payload))
}
