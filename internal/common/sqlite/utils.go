// Package sqlite provides SQLite schema probing helpers.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is satisfied by *sql.DB, *sqlx.DB and their transaction types.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EnsureColumn adds a column to a table if it doesn't exist. It reports
// whether the column was added.
func EnsureColumn(ctx context.Context, db Querier, table, column, definition string) (bool, error) {
	exists, err := ColumnExists(ctx, db, table, column)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return false, err
	}
	return true, nil
}

// ColumnExists checks if a column exists in a table.
func ColumnExists(ctx context.Context, db Querier, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var defaultValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
