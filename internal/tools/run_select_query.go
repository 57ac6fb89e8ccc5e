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
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/logging"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
)

// RunSelectQueryTool creates the run_select_query tool for ad-hoc read-only
// SQL over the memory bank
func RunSelectQueryTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name: "run_select_query",
			Description: `Run a read-only SELECT query against the memory bank.

<usecase>
Use run_select_query when the structured tools are not enough:
- Joins across memory tables
- Aggregations (COUNT, GROUP BY)
- Range or LIKE filters beyond equality
</usecase>

<important>
- Only SELECT (and WITH ... SELECT) statements are accepted
- Write statements are rejected before touching the database
</important>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The SELECT statement to run",
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

			rows, err := store.RunSelectQuery(ctx, query)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Query failed: %v", err))
			}

			logging.Info("select_query_executed", "rows", len(rows))

			if len(rows) == 0 {
				return mcp.NewToolSuccess("Query returned no rows.")
			}

			payload, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to render rows: %v", err))
			}
			return mcp.NewToolSuccess(fmt.Sprintf("%d rows:\n%s", len(rows), payload))
		},
	}
}
