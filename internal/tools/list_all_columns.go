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
	"sort"
	"strings"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/database"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
)

// ListAllColumnsTool creates the list_all_columns tool, a one-call schema
// overview for agents deciding where a memory belongs
func ListAllColumnsTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name:        "list_all_columns",
			Description: "Show every table and its columns in one call. Useful for getting a full schema overview before reading or writing memories.",
			InputSchema: mcp.InputSchema{
				Type:       "object",
				Properties: map[string]interface{}{},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			all, err := store.ListAllColumns(ctx)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to list columns: %v", err))
			}

			if len(all) == 0 {
				return mcp.NewToolSuccess("No tables in the memory bank yet. Use create_table to add one.")
			}

			tables := make([]string, 0, len(all))
			for table := range all {
				tables = append(tables, table)
			}
			sort.Strings(tables)

			var sb strings.Builder
			for _, table := range tables {
				sb.WriteString(fmt.Sprintf("Table: %s\n", table))
				for _, col := range all[table] {
					sb.WriteString(formatColumn(col) + "\n")
				}
				sb.WriteString("\n")
			}
			return mcp.NewToolSuccess(strings.TrimRight(sb.String(), "\n"))
		},
	}
}
