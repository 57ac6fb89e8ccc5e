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
	"strings"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/search"
)

// EmbeddingStatsTool creates the embedding_stats tool reporting a table's
// embedding coverage; always derived from current state, never cached
func EmbeddingStatsTool(engine *search.Engine) Tool {
	cfg := engine.Config()
	return Tool{
		Definition: mcp.Tool{
			Name: "embedding_stats",
			Description: `Report embedding coverage for a table: total rows, embedded rows,
and rows whose text changed since they were embedded.`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Table to inspect",
					},
					"model_id": map[string]interface{}{
						"type":        "string",
						"description": "Embedding model partition to inspect (default: configured model)",
					},
				},
				Required: []string{"table"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			table, errResp := ValidateStringParam(args, "table")
			if errResp != nil {
				return *errResp, nil
			}
			modelID := ValidateOptionalStringParam(args, "model_id", cfg.DefaultModelID)

			stats, textColumns, err := engine.EmbeddingStats(ctx, table, modelID)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to compute embedding stats: %v", err))
			}

			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("Table: %s\n", table))
			sb.WriteString(fmt.Sprintf("Model: %s\n", modelID))
			sb.WriteString(fmt.Sprintf("Text columns: %s\n\n", strings.Join(textColumns, ", ")))
			sb.WriteString(fmt.Sprintf("Total rows:    %d\n", stats.TotalRows))
			sb.WriteString(fmt.Sprintf("Embedded rows: %d\n", stats.EmbeddedRows))
			sb.WriteString(fmt.Sprintf("Stale rows:    %d", stats.StaleRows))

			return mcp.NewToolSuccess(sb.String())
		},
	}
}
