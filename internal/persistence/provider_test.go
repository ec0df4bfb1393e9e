package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/common/config"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/db/dialect"
)

func TestProvide_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "a2adesk.db")}

	conn, cleanup, err := Provide(cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite3, conn.DriverName())
	assert.NoError(t, cleanup())
}

func TestProvide_UnknownDriver(t *testing.T) {
	_, _, err := Provide(config.DatabaseConfig{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
