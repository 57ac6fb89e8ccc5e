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

// DescribeTableTool creates the describe_table tool
func DescribeTableTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name:        "describe_table",
			Description: "Show the columns of a table: name, type, nullability, and primary key.",
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Name of the table to describe",
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

			columns, err := store.DescribeTable(ctx, table)
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to describe table: %v", err))
			}

			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("Table: %s\n\n", table))
			for _, col := range columns {
				sb.WriteString(formatColumn(col) + "\n")
			}
			return mcp.NewToolSuccess(strings.TrimRight(sb.String(), "\n"))
		},
	}
}

// formatColumn renders one column line for describe_table and list_all_columns
func formatColumn(col database.ColumnInfo) string {
	var flags []string
	if col.PrimaryKey {
		flags = append(flags, "PRIMARY KEY")
	}
	if col.NotNull {
		flags = append(flags, "NOT NULL")
	}
	line := fmt.Sprintf("- %s %s", col.Name, col.Type)
	if len(flags) > 0 {
		line += " (" + strings.Join(flags, ", ") + ")"
	}
	return line
}
