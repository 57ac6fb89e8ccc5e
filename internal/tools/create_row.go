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

// CreateRowTool creates the create_row tool for storing a memory
func CreateRowTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name: "create_row",
			Description: `Insert one row into a memory bank table.

<examples>
✓ create_row(table="notes", values={"title":"Standup","body":"Discussed the Q3 roadmap"})
✓ create_row(table="tasks", values={"summary":"Review PR 42","done":false})
</examples>

<important>
- Omit 'id'; it is assigned automatically and returned
- The new row is searchable lexically at once; its embedding is created
  lazily by hybrid_search(auto_embed=true) or add_embeddings
</important>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Table to insert into",
					},
					"values": map[string]interface{}{
						"type":        "object",
						"description": "Column name to value mapping",
					},
				},
				Required: []string{"table", "values"},
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

			id, err := store.InsertRow(ctx, table, values)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to insert row: %v", err))
			}

			logging.Info("row_created", "table", table, "row_id", id)

			return mcp.NewToolSuccess(fmt.Sprintf("Row %d inserted into '%s'", id, table))
		},
	}
}
