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

// RenameTableTool creates the rename_table tool. Cached embeddings follow
// the table to its new name.
func RenameTableTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name:        "rename_table",
			Description: "Rename a table in the memory bank. Rows and cached embeddings are preserved under the new name.",
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Current table name",
					},
					"new_name": map[string]interface{}{
						"type":        "string",
						"description": "New table name",
					},
				},
				Required: []string{"table", "new_name"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			table, errResp := ValidateStringParam(args, "table")
			if errResp != nil {
				return *errResp, nil
			}
			newName, errResp := ValidateStringParam(args, "new_name")
			if errResp != nil {
				return *errResp, nil
			}

			if err := store.RenameTable(ctx, table, newName); err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to rename table: %v", err))
			}

			logging.Info("table_renamed", "from", table, "to", newName)

			return mcp.NewToolSuccess(fmt.Sprintf("Table '%s' renamed to '%s'", table, newName))
		},
	}
}
