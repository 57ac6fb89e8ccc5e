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

// AddEmbeddingsTool creates the add_embeddings tool for eagerly embedding a
// table instead of waiting for the first auto-embedding search
func AddEmbeddingsTool(engine *search.Engine) Tool {
	cfg := engine.Config()
	return Tool{
		Definition: mcp.Tool{
			Name: "add_embeddings",
			Description: `Embed all missing or stale rows of a table now. Searches with
auto_embed=true do this lazily; use add_embeddings to pay the embedding
cost up front. Rows whose text is unchanged are skipped.`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Table to embed",
					},
					"model_id": map[string]interface{}{
						"type":        "string",
						"description": "Embedding model to use (default: configured model)",
					},
				},
				Required: []string{"table"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			if !engine.HasProvider() {
				return mcp.NewToolError("No embedding provider is configured")
			}

			table, errResp := ValidateStringParam(args, "table")
			if errResp != nil {
				return *errResp, nil
			}
			modelID := ValidateOptionalStringParam(args, "model_id", cfg.DefaultModelID)

			rows, embedded, err := engine.AutoEmbedTable(ctx, table, modelID)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to embed table: %v", err))
			}

			logging.Info("embeddings_added", "table", table, "model_id", modelID, "rows", rows, "embedded", embedded)

			if !embedded {
				return mcp.NewToolSuccess(fmt.Sprintf("Table '%s' already up to date (%d rows)", table, rows))
			}
			return mcp.NewToolSuccess(fmt.Sprintf("Table '%s' embedded with model '%s' (%d rows considered)", table, modelID, rows))
		},
	}
}
