package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Handle is the single shared connection to the settings database. Each
// repository operation holds it exclusively for its whole duration, which
// makes check-then-write sequences atomic with respect to each other.
type Handle struct {
	db  *sqlx.DB
	sem chan struct{}
}

// NewHandle wraps db. Both repositories must share the same Handle.
func NewHandle(db *sqlx.DB) *Handle {
	return &Handle{db: db, sem: make(chan struct{}, 1)}
}

// Driver returns the sqlx driver name (sqlite3 or pgx).
func (h *Handle) Driver() string {
	return h.db.DriverName()
}

// With runs fn while holding the handle. Waiting for the handle honours ctx.
func (h *Handle) With(ctx context.Context, fn func(db *sqlx.DB) error) error {
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return storageErr("failed to acquire DB lock", ctx.Err())
	}
	defer func() { <-h.sem }()
	return fn(h.db)
}
