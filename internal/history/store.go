package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/google/uuid"
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// operationsTable is the name of the table holding finished operations.
const operationsTable = "publisher_operations"

// sqliteTimeLayout keeps a fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// operationColumns lists the columns in scan order.
const operationColumns = "id, operation, repo_path, branch, success, error_kind, message, attempts, started_at, finished_at, duration_ms"

// HistoryStoreImpl handles durable storage of operation records using various database backends.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore opens the history store for backend and applies pending migrations.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, normalized, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := ensureSchema(db, backend, normalized); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend, connStr: normalized}, nil
}

// openDB opens and pings a connection for backend. It returns the connection
// string actually used, which differs from the input for SQLite defaults and
// MySQL time parsing.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		if connStr == "" {
			connStr = GetDBFilePath()
		}
		db, err = sql.Open("sqlite", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", connStr, err)
		}

	case schema.MySQLBackend:
		cfg, perr := mysql.ParseDSN(connStr)
		if perr != nil {
			return nil, "", fmt.Errorf("failed to parse MySQL connection string: %w. Expected format: user:password@tcp(host:port)/dbname", perr)
		}
		cfg.ParseTime = true
		connStr = cfg.FormatDSN()
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=publisher", err)
		}

	default:
		return nil, "", fmt.Errorf("unsupported backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify that the database file is readable and writable."
		}
		return nil, "", fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}
	return db, connStr, nil
}

// isMemoryDSN reports whether a SQLite connection string names a memory database.
func isMemoryDSN(connStr string) bool {
	return connStr == ":memory:" || strings.Contains(connStr, "mode=memory")
}

// quoteTableName quotes the table name for backend.
func quoteTableName(tableName string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "`" + tableName + "`"
	case schema.PostgreSQLBackend:
		return `"` + tableName + `"`
	default:
		return tableName
	}
}

// placeholders returns n bind parameters for backend.
func placeholders(backend schema.DatabaseBackend, n int) string {
	parts := make([]string, n)
	for i := range parts {
		if backend == schema.PostgreSQLBackend {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(sqliteTimeLayout)
	default:
		return t.UTC()
	}
}

// Record stores one finished operation. An empty ID is filled with a new UUID.
func (hs *HistoryStoreImpl) Record(record schema.OperationRecord) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTableName(operationsTable, hs.backend), operationColumns, placeholders(hs.backend, 11))
	_, err := hs.db.Exec(query,
		record.ID, string(record.Operation), record.RepoPath, record.Branch, record.Success,
		string(record.ErrorKind), record.Message, record.Attempts,
		formatTime(record.StartedAt, hs.backend), formatTime(record.FinishedAt, hs.backend), record.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation record: %w", err)
	}
	return nil
}

// List returns up to limit operations, newest first. A limit of zero or less
// returns the default page size.
func (hs *HistoryStoreImpl) List(limit int) ([]schema.OperationRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = contract.DefaultHistoryLimit
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY started_at DESC, id LIMIT %d",
		operationColumns, quoteTableName(operationsTable, hs.backend), limit)
	return hs.queryRecords(query)
}

// GetAllOperations returns every stored operation, oldest first.
func (hs *HistoryStoreImpl) GetAllOperations() ([]schema.OperationRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY started_at, id",
		operationColumns, quoteTableName(operationsTable, hs.backend))
	return hs.queryRecords(query)
}

func (hs *HistoryStoreImpl) queryRecords(query string) ([]schema.OperationRecord, error) {
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.OperationRecord
	for rows.Next() {
		var record schema.OperationRecord
		var operation, kind string

		switch hs.backend {
		case schema.SQLiteBackend:
			var startedStr, finishedStr string
			if err := rows.Scan(&record.ID, &operation, &record.RepoPath, &record.Branch, &record.Success,
				&kind, &record.Message, &record.Attempts, &startedStr, &finishedStr, &record.DurationMs); err != nil {
				return nil, fmt.Errorf("failed to scan operation: %w", err)
			}
			if record.StartedAt, err = time.Parse(time.RFC3339Nano, startedStr); err != nil {
				return nil, fmt.Errorf("failed to parse started_at: %w", err)
			}
			if record.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedStr); err != nil {
				return nil, fmt.Errorf("failed to parse finished_at: %w", err)
			}
		default: // MySQL and PostgreSQL store as native datetime
			if err := rows.Scan(&record.ID, &operation, &record.RepoPath, &record.Branch, &record.Success,
				&kind, &record.Message, &record.Attempts, &record.StartedAt, &record.FinishedAt, &record.DurationMs); err != nil {
				return nil, fmt.Errorf("failed to scan operation: %w", err)
			}
		}
		record.Operation = schema.OperationName(operation)
		record.ErrorKind = schema.ErrorKind(kind)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}
	return results, nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	table := quoteTableName(operationsTable, hs.backend)
	row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	if err := row.Scan(&status.TotalOperations); err != nil {
		return status, fmt.Errorf("failed to get total operations: %w", err)
	}
	status.TableSizes[operationsTable] = int64(status.TotalOperations)
	if status.TotalOperations == 0 {
		return status, nil
	}

	row = hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE NOT success", table))
	if err := row.Scan(&status.FailedOperations); err != nil {
		return status, fmt.Errorf("failed to get failed operations: %w", err)
	}

	lastQuery := fmt.Sprintf("SELECT operation, started_at FROM %s ORDER BY started_at DESC LIMIT 1", table)
	oldestQuery := fmt.Sprintf("SELECT started_at FROM %s ORDER BY started_at ASC LIMIT 1", table)

	switch hs.backend {
	case schema.SQLiteBackend:
		var lastStr, oldestStr string
		if err := hs.db.QueryRow(lastQuery).Scan(&status.LastOperation, &lastStr); err != nil {
			return status, fmt.Errorf("failed to get last operation: %w", err)
		}
		if err := hs.db.QueryRow(oldestQuery).Scan(&oldestStr); err != nil {
			return status, fmt.Errorf("failed to get oldest operation: %w", err)
		}
		var err error
		if status.LastTime, err = time.Parse(time.RFC3339Nano, lastStr); err != nil {
			return status, fmt.Errorf("failed to parse last operation time: %w", err)
		}
		if status.OldestTime, err = time.Parse(time.RFC3339Nano, oldestStr); err != nil {
			return status, fmt.Errorf("failed to parse oldest operation time: %w", err)
		}
	default: // MySQL and PostgreSQL store as native datetime
		if err := hs.db.QueryRow(lastQuery).Scan(&status.LastOperation, &status.LastTime); err != nil {
			return status, fmt.Errorf("failed to get last operation: %w", err)
		}
		if err := hs.db.QueryRow(oldestQuery).Scan(&status.OldestTime); err != nil {
			return status, fmt.Errorf("failed to get oldest operation: %w", err)
		}
	}
	return status, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}
