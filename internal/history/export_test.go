package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/publisher/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteHistoryExport(t *testing.T) {
	store := newSQLiteStore(t)
	require.NoError(t, store.Record(record(schema.OpPush, true, time.Now())))

	mgr := &MockHistoryManager{}
	mgr.On("GetHistoryStore").Return(store)

	out := filepath.Join(t.TempDir(), "history")
	require.NoError(t, ExecuteHistoryExport(mgr, out))

	info, err := os.Stat(out + ".operations.parquet")
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExecuteHistoryExport_Errors(t *testing.T) {
	t.Run("missing output file", func(t *testing.T) {
		err := ExecuteHistoryExport(&MockHistoryManager{}, "")
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("store not initialized", func(t *testing.T) {
		mgr := &MockHistoryManager{}
		mgr.On("GetHistoryStore").Return(nil)
		assert.ErrorContains(t, ExecuteHistoryExport(mgr, "x"), "not initialized")
	})

	t.Run("empty history", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true}, nil)
		mgr := &MockHistoryManager{}
		mgr.On("GetHistoryStore").Return(store)
		assert.ErrorContains(t, ExecuteHistoryExport(mgr, "x"), "no operation history")
	})

	t.Run("status failure", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("boom"))
		mgr := &MockHistoryManager{}
		mgr.On("GetHistoryStore").Return(store)
		assert.ErrorContains(t, ExecuteHistoryExport(mgr, "x"), "boom")
	})
}
