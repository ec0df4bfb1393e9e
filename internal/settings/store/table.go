package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/a2adesk/a2adesk/internal/db/dialect"
	"github.com/a2adesk/a2adesk/internal/settings/models"
)

// table holds the CRUD shared by both record kinds. R is the row type
// scanned by sqlx; keyColumn is the natural unique key.
type table[R any] struct {
	h         *Handle
	name      string
	columns   string
	keyColumn string
	duplicate func(key string) error
}

func (t *table[R]) selectSQL(where string) string {
	q := fmt.Sprintf("SELECT %s FROM %s", t.columns, t.name)
	if where != "" {
		q += " WHERE " + where
	}
	return q + " ORDER BY id ASC"
}

func (t *table[R]) list(ctx context.Context, where string, args ...any) ([]*R, error) {
	var rows []*R
	err := t.h.With(ctx, func(db *sqlx.DB) error {
		if err := db.SelectContext(ctx, &rows, db.Rebind(t.selectSQL(where)), args...); err != nil {
			return storageErr("list "+t.name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*R{}
	}
	return rows, nil
}

// getBy returns the first row where column equals value, or nil when none.
func (t *table[R]) getBy(ctx context.Context, column string, value any) (*R, error) {
	var row R
	found := false
	err := t.h.With(ctx, func(db *sqlx.DB) error {
		q := db.Rebind(t.selectSQL(column+" = ?") + " LIMIT 1")
		err := db.GetContext(ctx, &row, q, value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return storageErr("get "+t.name, err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &row, nil
}

// keyTaken must be called while holding the handle. excludeID of 0 checks
// every row.
func (t *table[R]) keyTaken(ctx context.Context, db *sqlx.DB, key string, excludeID int64) (bool, error) {
	var count int
	q := fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE %s = ? AND id != ?", t.name, t.keyColumn)
	if err := db.GetContext(ctx, &count, db.Rebind(q), key, excludeID); err != nil {
		return false, storageErr("check "+t.keyColumn, err)
	}
	return count > 0, nil
}

func (t *table[R]) insert(ctx context.Context, key string, columns []string, values []any) (int64, error) {
	var id int64
	err := t.h.With(ctx, func(db *sqlx.DB) error {
		taken, err := t.keyTaken(ctx, db, key, 0)
		if err != nil {
			return err
		}
		if taken {
			return t.duplicate(key)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(columns, ", "), placeholders)
		id, err = dialect.InsertReturningID(ctx, db, q, values...)
		if err != nil {
			return storageErr("insert "+t.name, err)
		}
		return nil
	})
	return id, err
}

// update writes the present assignments plus updated_at. newKey is the
// natural key carried by the patch, if any.
func (t *table[R]) update(ctx context.Context, id int64, assignments []models.Assignment, newKey *string) (int64, error) {
	if len(assignments) == 0 {
		return 0, nil
	}
	var affected int64
	err := t.h.With(ctx, func(db *sqlx.DB) error {
		if newKey != nil {
			taken, err := t.keyTaken(ctx, db, *newKey, id)
			if err != nil {
				return err
			}
			if taken {
				return t.duplicate(*newKey)
			}
		}

		sets := make([]string, 0, len(assignments)+1)
		args := make([]any, 0, len(assignments)+1)
		for _, a := range assignments {
			sets = append(sets, a.Column+" = ?")
			args = append(args, a.Value)
		}
		sets = append(sets, "updated_at = "+dialect.Now(db.DriverName()))
		args = append(args, id)

		q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(sets, ", "))
		res, err := db.ExecContext(ctx, db.Rebind(q), args...)
		if err != nil {
			return storageErr("update "+t.name, err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return storageErr("update "+t.name, err)
		}
		return nil
	})
	return affected, err
}

// exec runs a single write statement under the handle and returns the
// affected row count. The statement may contain a %s verb for the dialect's
// current timestamp expression.
func (t *table[R]) exec(ctx context.Context, op, stmt string, args ...any) (int64, error) {
	var affected int64
	err := t.h.With(ctx, func(db *sqlx.DB) error {
		q := stmt
		if strings.Contains(q, "%s") {
			q = fmt.Sprintf(q, dialect.Now(db.DriverName()))
		}
		res, err := db.ExecContext(ctx, db.Rebind(q), args...)
		if err != nil {
			return storageErr(op, err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return storageErr(op, err)
		}
		return nil
	})
	return affected, err
}

func (t *table[R]) deleteBy(ctx context.Context, column string, value any) (int64, error) {
	return t.exec(ctx, "delete "+t.name, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.name, column), value)
}

func (t *table[R]) toggleEnabled(ctx context.Context, id int64) (int64, error) {
	stmt := "UPDATE " + t.name + " SET enabled = CASE WHEN enabled = 1 THEN 0 ELSE 1 END, updated_at = %s WHERE id = ?"
	return t.exec(ctx, "toggle "+t.name, stmt, id)
}

// disableOthers clears enabled on every other enabled row; rows already
// disabled are left untouched, so 0 means nothing else was enabled.
func (t *table[R]) disableOthers(ctx context.Context, exceptID int64) (int64, error) {
	stmt := "UPDATE " + t.name + " SET enabled = 0, updated_at = %s WHERE id != ? AND enabled = 1"
	return t.exec(ctx, "disable others "+t.name, stmt, exceptID)
}

// enableExclusive enables id and disables every other row in one
// transaction. It returns the rows touched by the disable step, or 0 without
// changes when id does not exist.
func (t *table[R]) enableExclusive(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := t.h.With(ctx, func(db *sqlx.DB) error {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return storageErr("begin "+t.name, err)
		}
		defer func() { _ = tx.Rollback() }()

		now := dialect.Now(db.DriverName())
		res, err := tx.ExecContext(ctx, tx.Rebind(
			fmt.Sprintf("UPDATE %s SET enabled = 1, updated_at = %s WHERE id = ?", t.name, now)), id)
		if err != nil {
			return storageErr("enable "+t.name, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return storageErr("enable "+t.name, err)
		} else if n == 0 {
			return nil
		}

		res, err = tx.ExecContext(ctx, tx.Rebind(
			fmt.Sprintf("UPDATE %s SET enabled = 0, updated_at = %s WHERE id != ? AND enabled = 1", t.name, now)), id)
		if err != nil {
			return storageErr("disable others "+t.name, err)
		}
		if affected, err = res.RowsAffected(); err != nil {
			return storageErr("disable others "+t.name, err)
		}
		if err := tx.Commit(); err != nil {
			return storageErr("commit "+t.name, err)
		}
		return nil
	})
	return affected, err
}
