// Package persistence opens the settings database selected by configuration.
package persistence

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/config"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/db"
	"github.com/a2adesk/a2adesk/internal/db/dialect"
)

// Provide creates the database connection used by the settings store.
func Provide(cfg config.DatabaseConfig, log *logger.Logger) (*sqlx.DB, func() error, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		conn, err := db.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if log != nil {
			log.Info("Database initialized", zap.String("db_path", cfg.Path), zap.String("db_driver", dialect.SQLite3))
		}
		cleanup := func() error {
			_, _ = conn.Exec("PRAGMA optimize")
			return conn.Close()
		}
		return sqlx.NewDb(conn, dialect.SQLite3), cleanup, nil
	case "postgres", "pgx":
		conn, err := db.OpenPostgres(cfg.DSN(), cfg.MaxConns, cfg.MinConns)
		if err != nil {
			return nil, nil, err
		}
		if log != nil {
			log.Info("Database initialized",
				zap.String("db_host", cfg.Host),
				zap.String("db_name", cfg.DBName),
				zap.String("db_driver", dialect.PGX))
		}
		return sqlx.NewDb(conn, dialect.PGX), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
