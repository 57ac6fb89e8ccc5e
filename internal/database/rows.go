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
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/search"
)

// Matches write/DDL keywords as whole words only, so column names like
// created_at or updated_at never trip the guard.
var disallowedKeywordRe = regexp.MustCompile(`\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|ATTACH|PRAGMA)\b`)

// InsertRow inserts one row and returns its id
func (s *Store) InsertRow(ctx context.Context, table string, values map[string]interface{}) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("no values to insert")
	}

	columns := make([]string, 0, len(values))
	for col := range values {
		if err := validateIdentifier(col); err != nil {
			return 0, err
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		placeholders[i] = "?"
		args[i] = values[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return result.LastInsertId()
}

// ReadRows reads rows matching the equality filter (ANDed). A nil filter
// reads all rows, bounded by limit when positive.
func (s *Store) ReadRows(ctx context.Context, table string, where map[string]interface{}, limit int) ([]map[string]interface{}, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s", table)
	clause, args, err := buildWhere(where)
	if err != nil {
		return nil, err
	}
	query += clause
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read from %s: %w", table, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// UpdateRows updates rows matching the equality filter and returns the
// affected count. Updated rows become stale for embedding purposes via their
// changed fingerprints; no hook fires.
func (s *Store) UpdateRows(ctx context.Context, table string, values, where map[string]interface{}) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("no values to update")
	}

	setCols := make([]string, 0, len(values))
	for col := range values {
		if err := validateIdentifier(col); err != nil {
			return 0, err
		}
		setCols = append(setCols, col)
	}
	sort.Strings(setCols)

	sets := make([]string, len(setCols))
	args := make([]interface{}, 0, len(values)+len(where))
	for i, col := range setCols {
		sets[i] = col + " = ?"
		args = append(args, values[col])
	}

	clause, whereArgs, err := buildWhere(where)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(sets, ", "), clause)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", table, err)
	}
	return result.RowsAffected()
}

// DeleteRows deletes rows matching the equality filter and fires the
// row-delete hooks so cached embeddings follow the rows out
func (s *Store) DeleteRows(ctx context.Context, table string, where map[string]interface{}) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}

	clause, args, err := buildWhere(where)
	if err != nil {
		return 0, err
	}

	// Capture ids before deleting so the hooks know which rows went away
	idQuery := fmt.Sprintf("SELECT id FROM %s%s", table, clause)
	idRows, err := s.db.QueryContext(ctx, idQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to select rows for delete from %s: %w", table, err)
	}
	var ids []int64
	for idRows.Next() {
		var id int64
		if err := idRows.Scan(&id); err != nil {
			idRows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := idRows.Err(); err != nil {
		idRows.Close()
		return 0, err
	}
	idRows.Close()

	query := fmt.Sprintf("DELETE FROM %s%s", table, clause)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		s.fireRowDeleted(table, id)
	}
	return affected, nil
}

// RunSelectQuery runs a caller-written SELECT. Anything else is rejected
// before touching the database.
func (s *Store) RunSelectQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return nil, fmt.Errorf("only SELECT queries are allowed")
	}
	if keyword := disallowedKeywordRe.FindString(upper); keyword != "" {
		return nil, fmt.Errorf("query contains disallowed keyword %s", keyword)
	}

	rows, err := s.db.QueryContext(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// RowCount returns the number of rows in a table
func (s *Store) RowCount(ctx context.Context, table string) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// ReadTextColumns streams up to limit rows of the selected text columns in
// row id order. NULLs read as empty strings.
func (s *Store) ReadTextColumns(ctx context.Context, table string, columns []string, limit int) ([]search.RowText, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no text columns selected for %s", table)
	}

	selects := make([]string, len(columns))
	for i, col := range columns {
		if err := validateIdentifier(col); err != nil {
			return nil, err
		}
		selects[i] = fmt.Sprintf("COALESCE(%s, '')", col)
	}

	query := fmt.Sprintf("SELECT id, %s FROM %s ORDER BY id", strings.Join(selects, ", "), table)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read text columns of %s: %w", table, err)
	}
	defer rows.Close()

	var out []search.RowText
	for rows.Next() {
		values := make([]string, len(columns))
		dest := make([]interface{}, 0, len(columns)+1)
		var id int64
		dest = append(dest, &id)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, search.RowText{RowID: id, Values: values})
	}
	return out, rows.Err()
}

// SearchableTables lists tables with at least one text column
func (s *Store) SearchableTables(ctx context.Context) ([]search.TableHandle, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	var handles []search.TableHandle
	for _, table := range tables {
		text, err := s.TextColumns(ctx, table)
		if err != nil {
			return nil, err
		}
		if len(text) == 0 {
			continue
		}
		handles = append(handles, search.TableHandle{
			Name:        table,
			PrimaryKey:  "id",
			TextColumns: text,
		})
	}
	return handles, nil
}

// buildWhere renders an equality filter as a WHERE clause with ordered
// placeholders
func buildWhere(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	columns := make([]string, 0, len(where))
	for col := range where {
		if err := validateIdentifier(col); err != nil {
			return "", nil, err
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		conds[i] = col + " = ?"
		args[i] = where[col]
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// scanRows materializes a result set as maps, normalizing []byte to string
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
