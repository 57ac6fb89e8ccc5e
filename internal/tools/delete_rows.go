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

// DeleteRowsTool creates the delete_rows tool. Cached embeddings of deleted
// rows are removed through the store's delete hooks.
func DeleteRowsTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name: "delete_rows",
			Description: `Delete rows from a memory bank table matching an equality filter.

<examples>
✓ delete_rows(table="tasks", where={"done":true})
✓ delete_rows(table="notes", where={"id":7})
</examples>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Table to delete from",
					},
					"where": map[string]interface{}{
						"type":        "object",
						"description": "Column=value equality filter, ANDed. Required to avoid accidental full-table deletes.",
					},
				},
				Required: []string{"table", "where"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			table, errResp := ValidateStringParam(args, "table")
			if errResp != nil {
				return *errResp, nil
			}
			where, errResp := ValidateObjectParam(args, "where")
			if errResp != nil {
				return *errResp, nil
			}

			affected, err := store.DeleteRows(ctx, table, where)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to delete rows: %v", err))
			}

			logging.Info("rows_deleted", "table", table, "affected", affected)

			return mcp.NewToolSuccess(fmt.Sprintf("%d rows deleted from '%s'", affected, table))
		},
	}
}
