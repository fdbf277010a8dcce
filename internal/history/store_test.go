package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/publisher/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSQLiteStore opens a store backed by a temporary database file.
func newSQLiteStore(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*HistoryStoreImpl)
}

func record(op schema.OperationName, success bool, started time.Time) schema.OperationRecord {
	kind := schema.NoError
	if !success {
		kind = schema.NetworkError
	}
	return schema.OperationRecord{
		Operation:  op,
		RepoPath:   "/srv/site",
		Branch:     "main",
		Success:    success,
		ErrorKind:  kind,
		Message:    "done",
		Attempts:   1,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		DurationMs: 1500,
	}
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Record(record(schema.OpPush, true, time.Now())))
	records, err := store.List(10)
	assert.NoError(t, err)
	assert.Empty(t, records)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestHistoryStore_UnsupportedBackend(t *testing.T) {
	_, err := NewHistoryStore("oracle", "")
	assert.Error(t, err)
}

func TestHistoryStore_SQLite(t *testing.T) {
	store := newSQLiteStore(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(record(schema.OpCommit, true, base)))
	require.NoError(t, store.Record(record(schema.OpPush, false, base.Add(time.Second))))
	require.NoError(t, store.Record(record(schema.OpPull, true, base.Add(500*time.Millisecond))))

	all, err := store.GetAllOperations()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []schema.OperationName{schema.OpCommit, schema.OpPull, schema.OpPush},
		[]schema.OperationName{all[0].Operation, all[1].Operation, all[2].Operation}, "oldest first, sub-second order kept")

	push := all[2]
	assert.Len(t, push.ID, 36, "generated UUID")
	assert.False(t, push.Success)
	assert.Equal(t, schema.NetworkError, push.ErrorKind)
	assert.Equal(t, "main", push.Branch)
	assert.Equal(t, 1, push.Attempts)
	assert.True(t, push.StartedAt.Equal(base.Add(time.Second)))
	assert.Equal(t, int64(1500), push.DurationMs)

	recent, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, schema.OpPush, recent[0].Operation, "newest first")
	assert.Equal(t, schema.OpPull, recent[1].Operation)
}

func TestHistoryStore_KeepsExplicitID(t *testing.T) {
	store := newSQLiteStore(t)
	rec := record(schema.OpInit, true, time.Now())
	rec.ID = "fixed-id"
	require.NoError(t, store.Record(rec))

	records, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fixed-id", records[0].ID)

	assert.Error(t, store.Record(rec), "duplicate primary key")
}

func TestHistoryStore_GetStatus(t *testing.T) {
	store := newSQLiteStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalOperations)
	assert.Equal(t, int64(0), status.TableSizes[operationsTable])

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(record(schema.OpCommit, true, base)))
	require.NoError(t, store.Record(record(schema.OpPush, false, base.Add(time.Minute))))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalOperations)
	assert.Equal(t, 1, status.FailedOperations)
	assert.Equal(t, "push", status.LastOperation)
	assert.True(t, status.LastTime.Equal(base.Add(time.Minute)))
	assert.True(t, status.OldestTime.Equal(base))
	assert.Equal(t, int64(2), status.TableSizes[operationsTable])
}

func TestHistoryStore_SQLiteInMemory(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Record(record(schema.OpStageAll, true, time.Now())))
	records, err := store.GetAllOperations()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHistoryStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(record(schema.OpCommit, true, time.Now())))
	require.NoError(t, store.Close())

	store, err = NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	records, err := store.GetAllOperations()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 3))
	assert.Equal(t, "?, ?", placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "publisher_operations", quoteTableName(operationsTable, schema.SQLiteBackend))
	assert.Equal(t, "`publisher_operations`", quoteTableName(operationsTable, schema.MySQLBackend))
	assert.Equal(t, `"publisher_operations"`, quoteTableName(operationsTable, schema.PostgreSQLBackend))
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 5, 1, 12, 0, 0, 5000, time.FixedZone("X", 3600))
	assert.Equal(t, "2026-05-01T11:00:00.000005000Z", formatTime(ts, schema.SQLiteBackend))
	assert.Equal(t, ts.UTC(), formatTime(ts, schema.PostgreSQLBackend))
}

func TestOpenDB_MySQLDSN(t *testing.T) {
	_, _, err := openDB(schema.MySQLBackend, "not a dsn")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "user:password@tcp(host:port)/dbname")
}
