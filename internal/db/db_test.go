package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "billbook.db"), "test&key=1")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestRunMigrations_Idempotent(t *testing.T) {
	database := openTestDB(t)

	require.NoError(t, database.RunMigrations())
	require.NoError(t, database.RunMigrations())

	v, err := database.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestTruncate(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, database.RunMigrations())

	_, err := database.Exec(`INSERT INTO expenses (category, amount, date, vendor) VALUES ('Travel', '12.00', '2026-03-01', 'Rail')`)
	require.NoError(t, err)

	require.NoError(t, database.Truncate(context.Background(), "expenses"))

	var n int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM expenses").Scan(&n))
	assert.Equal(t, 0, n)

	assert.Error(t, database.Truncate(context.Background(), "schema_version"))
}
