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

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/database"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
)

// DefaultReadLimit bounds unfiltered reads
const DefaultReadLimit = 100

// ReadRowsTool creates the read_rows tool
func ReadRowsTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name: "read_rows",
			Description: `Read rows from a memory bank table with an optional equality filter.

<examples>
✓ read_rows(table="notes") → First 100 rows
✓ read_rows(table="notes", where={"title":"Standup"}) → Matching rows
✓ read_rows(table="tasks", where={"done":false}, limit=10)
</examples>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Table to read from",
					},
					"where": map[string]interface{}{
						"type":        "object",
						"description": "Optional column=value equality filter, ANDed",
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum rows to return (default 100)",
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
			where := ValidateOptionalObjectParam(args, "where")
			limit := int(ValidateOptionalNumberParam(args, "limit", DefaultReadLimit))

			rows, err := store.ReadRows(ctx, table, where, limit)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to read rows: %v", err))
			}

			if len(rows) == 0 {
				return mcp.NewToolSuccess("No rows matched.")
			}

			payload, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to render rows: %v", err))
			}
			return mcp.NewToolSuccess(fmt.Sprintf("%d rows:\n%s", len(rows), payload))
		},
	}
}
