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

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/database"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/logging"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
)

// DropTableTool creates the drop_table tool. Dropping a table also removes
// its cached embeddings.
func DropTableTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name:        "drop_table",
			Description: "Drop a table from the memory bank. All rows and their cached embeddings are removed. Dropping a missing table is a no-op.",
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Name of the table to drop",
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

			if err := store.DropTable(ctx, table); err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to drop table: %v", err))
			}

			logging.Info("table_dropped", "table", table)

			return mcp.NewToolSuccess(fmt.Sprintf("Table '%s' dropped", table))
		},
	}
}
