package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/db"
)

func TestEnsureColumn(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "utils.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(`CREATE TABLE legacy (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	exists, err := ColumnExists(ctx, conn, "legacy", "extra")
	require.NoError(t, err)
	assert.False(t, exists)

	added, err := EnsureColumn(ctx, conn, "legacy", "extra", "TEXT")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = EnsureColumn(ctx, conn, "legacy", "extra", "TEXT")
	require.NoError(t, err)
	assert.False(t, added)

	exists, err = ColumnExists(ctx, conn, "legacy", "extra")
	require.NoError(t, err)
	assert.True(t, exists)
}
