package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/common/sqlite"
	"github.com/a2adesk/a2adesk/internal/db/dialect"
)

const (
	modelTable = "tb_setting_model"
	agentTable = "tb_setting_a2a_server"
)

// columns added after the first release of the agent server table
var agentLateColumns = []string{"custom_header_json", "protocol_data_object_settings"}

func schemaStatements(driver string) []string {
	now := dialect.NowDefault(driver)
	pk := dialect.AutoIncrementPK(driver)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id %s,
			model_key TEXT NOT NULL UNIQUE,
			enabled INTEGER NOT NULL DEFAULT 0,
			api_url TEXT NOT NULL,
			api_key TEXT NOT NULL,
			created_at TEXT DEFAULT %s,
			updated_at TEXT DEFAULT %s
		)`, modelTable, pk, now, now),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_setting_model_key ON %s(model_key)`, modelTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_setting_model_enabled ON %s(enabled)`, modelTable),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id %s,
			name TEXT NOT NULL,
			agent_card_url TEXT NOT NULL UNIQUE,
			agent_card_json TEXT,
			custom_header_json TEXT,
			protocol_data_object_settings TEXT,
			enabled INTEGER NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT %s,
			updated_at TEXT DEFAULT %s
		)`, agentTable, pk, now, now),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_setting_a2a_server_name ON %s(name)`, agentTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_setting_a2a_server_enabled ON %s(enabled)`, agentTable),
	}
}

// Migrate creates both tables and adds columns missing from databases
// written by older releases. A failed column addition is only logged.
func Migrate(ctx context.Context, h *Handle, log *logger.Logger) error {
	return h.With(ctx, func(db *sqlx.DB) error {
		for _, stmt := range schemaStatements(db.DriverName()) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return storageErr("create schema", err)
			}
		}
		for _, column := range agentLateColumns {
			if err := ensureColumn(ctx, db, agentTable, column); err != nil {
				log.Warn("failed to add column",
					zap.String("table", agentTable),
					zap.String("column", column),
					zap.Error(err))
			}
		}
		return nil
	})
}

func ensureColumn(ctx context.Context, db *sqlx.DB, table, column string) error {
	if dialect.IsPostgres(db.DriverName()) {
		_, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT", table, column))
		return err
	}
	_, err := sqlite.EnsureColumn(ctx, db, table, column, "TEXT")
	return err
}
