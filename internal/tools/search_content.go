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

// SearchContentTool creates the search_content tool, pure substring search
// with no embedding involvement
func SearchContentTool(engine *search.Engine) Tool {
	cfg := engine.Config()
	return Tool{
		Definition: mcp.Tool{
			Name: "search_content",
			Description: `Search memories by literal text match only. No embeddings are
created or consulted; rows score by substring frequency in their text
columns. Use hybrid_search when paraphrases should match too.`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Text to look for",
					},
					"tables": map[string]interface{}{
						"type":        "array",
						"description": "Tables to search (default: all tables with text columns)",
						"items":       map[string]interface{}{"type": "string"},
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum results (default 10)",
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

			req := search.Request{
				Query:   query,
				Tables:  tables,
				Weights: search.Weights{Semantic: 0, Lexical: 1},
				// Above the cosine ceiling, so only lexical matches survive
				// the fusion gate
				SimilarityThreshold: 2,
				Limit:               int(ValidateOptionalNumberParam(args, "limit", 10)),
				ModelID:             cfg.DefaultModelID,
				AutoEmbed:           false,
			}

			resp, err := engine.Search(ctx, req)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Search failed: %v", err))
			}

			logging.Info("search_content_executed",
				"request_id", resp.RequestID,
				"results", len(resp.Results),
			)

			return renderSearchResponse(resp)
		},
	}
}
