package history

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for history storage.
func GetDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// InitStore initializes the global history store.
// An empty backend leaves the store unset, which disables recording.
func InitStore(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		if backend == "" {
			return
		}
		store, err := NewHistoryStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize history store: %w", err)
			return
		}
		Manager.Lock()
		Manager.store = store
		Manager.Unlock()
	})

	return initErr
}

// CloseStore should be called on application shutdown.
func CloseStore() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.store != nil {
			_ = Manager.store.Close()
		}
	})
}

// ClearHistory removes every recorded operation for the specified backend.
// For SQLite, it deletes the database file.
// For MySQL/PostgreSQL, it deletes the rows and keeps the migrated schema.
// For NoneBackend, it does nothing.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, _, err := openDB(backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return clearSQLTable(db, backend)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported history backend for clearing: %s", backend)
	}
}

// clearSQLTable deletes all rows from the operations table if it exists.
func clearSQLTable(db *sql.DB, backend schema.DatabaseBackend) error {
	var exists int
	var query string
	switch backend {
	case schema.PostgreSQLBackend:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1"
	default:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	}
	if err := db.QueryRow(query, operationsTable).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up table %s: %w", operationsTable, err)
	}
	if exists == 0 {
		return nil
	}
	if _, err := db.Exec("DELETE FROM " + quoteTableName(operationsTable, backend)); err != nil {
		return fmt.Errorf("failed to clear table %s: %w", operationsTable, err)
	}
	return nil
}
