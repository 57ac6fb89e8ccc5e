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

// CreateTableTool creates the create_table tool for declaring new memory tables
func CreateTableTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name: "create_table",
			Description: `Create a new table in the memory bank.

<usecase>
Use create_table to give your memories structure:
- Declare a table per kind of memory (notes, decisions, people, tasks)
- TEXT columns become searchable by search_content and hybrid_search
- An 'id' primary key is added automatically
</usecase>

<examples>
✓ create_table(table="notes", columns=[{"name":"title","type":"TEXT"},{"name":"body","type":"TEXT"}])
✓ create_table(table="tasks", columns=[{"name":"summary","type":"TEXT"},{"name":"done","type":"BOOLEAN"}])
</examples>

<important>
- Allowed column types: TEXT, INTEGER, REAL, BLOB, NUMERIC, BOOLEAN, DATE, DATETIME, TIMESTAMP
- Table and column names must match [A-Za-z_][A-Za-z0-9_]*
- Creating an existing table is a no-op
</important>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Name of the table to create",
					},
					"columns": map[string]interface{}{
						"type":        "array",
						"description": "Column declarations, each {name, type}",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name": map[string]interface{}{"type": "string"},
								"type": map[string]interface{}{"type": "string"},
							},
							"required": []string{"name", "type"},
						},
					},
				},
				Required: []string{"table", "columns"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			table, errResp := ValidateStringParam(args, "table")
			if errResp != nil {
				return *errResp, nil
			}

			rawColumns, ok := args["columns"].([]interface{})
			if !ok || len(rawColumns) == 0 {
				return mcp.NewToolError("Missing or invalid 'columns' argument")
			}

			columns := make([]database.ColumnDef, 0, len(rawColumns))
			for _, raw := range rawColumns {
				obj, ok := raw.(map[string]interface{})
				if !ok {
					return mcp.NewToolError("Each column must be an object with 'name' and 'type'")
				}
				name, _ := obj["name"].(string)
				colType, _ := obj["type"].(string)
				if name == "" || colType == "" {
					return mcp.NewToolError("Each column must be an object with 'name' and 'type'")
				}
				columns = append(columns, database.ColumnDef{Name: name, Type: colType})
			}

			if err := store.CreateTable(ctx, table, columns); err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to create table: %v", err))
			}

			logging.Info("table_created", "table", table, "columns", len(columns))

			return mcp.NewToolSuccess(fmt.Sprintf("Table '%s' created with %d columns (plus 'id' primary key)", table, len(columns)))
		},
	}
}
