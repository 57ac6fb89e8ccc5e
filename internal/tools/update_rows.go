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

// UpdateRowsTool creates the update_rows tool. Updated rows are re-embedded
// lazily on the next auto-embedding search because their content
// fingerprints no longer match.
func UpdateRowsTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name: "update_rows",
			Description: `Update rows in a memory bank table matching an equality filter.

<examples>
✓ update_rows(table="tasks", values={"done":true}, where={"id":3})
✓ update_rows(table="notes", values={"body":"revised"}, where={"title":"Standup"})
</examples>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Table to update",
					},
					"values": map[string]interface{}{
						"type":        "object",
						"description": "Column name to new value mapping",
					},
					"where": map[string]interface{}{
						"type":        "object",
						"description": "Column=value equality filter, ANDed. Required to avoid accidental full-table updates.",
					},
				},
				Required: []string{"table", "values", "where"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			table, errResp := ValidateStringParam(args, "table")
			if errResp != nil {
				return *errResp, nil
			}
			values, errResp := ValidateObjectParam(args, "values")
			if errResp != nil {
				return *errResp, nil
			}
			where, errResp := ValidateObjectParam(args, "where")
			if errResp != nil {
				return *errResp, nil
			}

			affected, err := store.UpdateRows(ctx, table, values, where)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to update rows: %v", err))
			}

			logging.Info("rows_updated", "table", table, "affected", affected)

			return mcp.NewToolSuccess(fmt.Sprintf("%d rows updated in '%s'", affected, table))
		},
	}
}
