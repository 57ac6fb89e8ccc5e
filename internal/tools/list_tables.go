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

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/database"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
)

// ListTablesTool creates the list_tables tool
func ListTablesTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name:        "list_tables",
			Description: "List all tables in the memory bank. Internal bookkeeping tables are excluded.",
			InputSchema: mcp.InputSchema{
				Type:       "object",
				Properties: map[string]interface{}{},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			tables, err := store.ListTables(ctx)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to list tables: %v", err))
			}

			if len(tables) == 0 {
				return mcp.NewToolSuccess("No tables in the memory bank yet. Use create_table to add one.")
			}

			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("Tables (%d):\n", len(tables)))
			for _, table := range tables {
				sb.WriteString("- " + table + "\n")
			}
			return mcp.NewToolSuccess(strings.TrimRight(sb.String(), "\n"))
		},
	}
}
