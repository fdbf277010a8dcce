package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/publisher/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearHistory_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(record(schema.OpPush, true, time.Now())))
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing again is fine
	assert.NoError(t, ClearHistory(schema.SQLiteBackend, path, ""))
}

func TestClearHistory_Validation(t *testing.T) {
	assert.Error(t, ClearHistory(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory("oracle", "", ""))
}

func TestGetDBFilePath(t *testing.T) {
	assert.Equal(t, ".publisher_history.db", filepath.Base(GetDBFilePath()))
}

func TestStoreManager(t *testing.T) {
	mgr := &StoreManager{}
	assert.Nil(t, mgr.GetHistoryStore())

	store := &MockHistoryStore{}
	mgr.store = store
	assert.Same(t, store, mgr.GetHistoryStore())
}
