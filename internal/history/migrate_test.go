package history

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/huangsam/publisher/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, path string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", operationsTable).Scan(&n))
	return n > 0
}

func TestMigrateHistory_NoneBackend(t *testing.T) {
	err := MigrateHistory(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestMigrateHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	// Migrate to latest version
	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))
	assert.True(t, tableExists(t, dbPath))

	// Run migration again (should be a no-op)
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))

	// Step down to version 1 keeps the table
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 1))
	assert.True(t, tableExists(t, dbPath))

	// Rollback to version 0 drops it
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 0))
	assert.False(t, tableExists(t, dbPath))

	// Opening a store migrates back up
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_ = store.Close()
	assert.True(t, tableExists(t, dbPath))
}

func TestMigrateHistory_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateHistory(schema.SQLiteBackend, ":memory:", -1))
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, backend := range []string{"sqlite", "mysql", "postgresql"} {
		entries, err := migrationsFS.ReadDir("migrations/" + backend)
		require.NoError(t, err, backend)
		assert.Len(t, entries, 4, backend)
	}
}
