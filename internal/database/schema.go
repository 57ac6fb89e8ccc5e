/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package database

import (
	"context"
	"fmt"
	"strings"
)

// CreateTable creates a new agent table. Every table gets an implicit
// `id INTEGER PRIMARY KEY AUTOINCREMENT` unless the caller declares its own
// id column.
func (s *Store) CreateTable(ctx context.Context, name string, columns []ColumnDef) error {
	if err := validateIdentifier(name); err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %q needs at least one column", name)
	}

	var defs []string
	hasID := false
	for _, col := range columns {
		if err := validateIdentifier(col.Name); err != nil {
			return err
		}
		if err := validateColumnType(col.Type); err != nil {
			return err
		}
		if col.Name == "id" {
			hasID = true
			defs = append(defs, "id INTEGER PRIMARY KEY AUTOINCREMENT")
			continue
		}
		defs = append(defs, fmt.Sprintf("%s %s", col.Name, strings.ToUpper(strings.TrimSpace(col.Type))))
	}
	if !hasID {
		defs = append([]string{"id INTEGER PRIMARY KEY AUTOINCREMENT"}, defs...)
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	return nil
}

// DropTable drops an agent table and cascades its embedding partitions via
// the registered drop hooks
func (s *Store) DropTable(ctx context.Context, name string) error {
	if err := validateIdentifier(name); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}

	s.fireTableDropped(name)
	return nil
}

// RenameTable renames an agent table and carries its embedding partitions
// along
func (s *Store) RenameTable(ctx context.Context, oldName, newName string) error {
	if err := validateIdentifier(oldName); err != nil {
		return err
	}
	if err := validateIdentifier(newName); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", oldName, newName)); err != nil {
		return fmt.Errorf("failed to rename table %s: %w", oldName, err)
	}

	// Partitions are keyed by table name; keep them attached
	if _, err := s.db.ExecContext(ctx,
		"UPDATE "+embeddingsTable+" SET table_name = ? WHERE table_name = ?",
		newName, oldName); err != nil {
		return fmt.Errorf("failed to move embedding partitions of %s: %w", oldName, err)
	}
	return nil
}

// ListTables lists all agent tables, excluding SQLite internals and the
// embedding sidecar
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name FROM sqlite_master
        WHERE type = 'table'
          AND name NOT LIKE 'sqlite_%'
          AND name != ?
        ORDER BY name
    `, embeddingsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// DescribeTable returns column metadata for a table
func (s *Store) DescribeTable(ctx context.Context, name string) ([]ColumnInfo, error) {
	if err := validateIdentifier(name); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", name))
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal interface{}
			pk         int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, ColumnInfo{
			Name:       colName,
			Type:       colType,
			NotNull:    notNull != 0,
			PrimaryKey: pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q does not exist", name)
	}
	return columns, nil
}

// ListAllColumns returns column metadata for every agent table
func (s *Store) ListAllColumns(ctx context.Context) (map[string][]ColumnInfo, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	all := make(map[string][]ColumnInfo, len(tables))
	for _, table := range tables {
		columns, err := s.DescribeTable(ctx, table)
		if err != nil {
			return nil, err
		}
		all[table] = columns
	}
	return all, nil
}

// TextColumns returns the names of a table's TEXT-declared columns,
// excluding the primary key
func (s *Store) TextColumns(ctx context.Context, name string) ([]string, error) {
	columns, err := s.DescribeTable(ctx, name)
	if err != nil {
		return nil, err
	}

	var text []string
	for _, col := range columns {
		if col.PrimaryKey {
			continue
		}
		if strings.Contains(strings.ToUpper(col.Type), "TEXT") {
			text = append(text, col.Name)
		}
	}
	return text, nil
}
