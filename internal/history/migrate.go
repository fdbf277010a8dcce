package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/publisher/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationsTable tracks the applied schema version.
const migrationsTable = "publisher_schema_migrations"

// newMigrator builds a migrate instance for db. Closing it also closes db.
func newMigrator(db *sql.DB, backend schema.DatabaseBackend) (*migrate.Migrate, error) {
	var driver database.Driver
	var err error

	switch backend {
	case schema.SQLiteBackend:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: migrationsTable})
	case schema.MySQLBackend:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: migrationsTable})
	case schema.PostgreSQLBackend:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("migrations are not supported for backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "publisher", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// migrateUp brings the schema to the latest version.
func migrateUp(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate to latest version: %w", err)
	}
	return nil
}

// ensureSchema applies pending migrations when a store opens. SQLite memory
// databases live on a single connection, so they are migrated in place and
// the migrator is left open. Other backends use a dedicated connection.
func ensureSchema(db *sql.DB, backend schema.DatabaseBackend, connStr string) error {
	if backend == schema.SQLiteBackend && isMemoryDSN(connStr) {
		m, err := newMigrator(db, backend)
		if err != nil {
			return err
		}
		return migrateUp(m)
	}

	mdb, _, err := openDB(backend, connStr)
	if err != nil {
		return err
	}
	m, err := newMigrator(mdb, backend)
	if err != nil {
		_ = mdb.Close()
		return err
	}
	defer func() { _, _ = m.Close() }()
	return migrateUp(m)
}

// MigrateHistory runs database migrations for the history store.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
func MigrateHistory(backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend {
		return errors.New("migrations are not supported for the none backend")
	}

	db, _, err := openDB(backend, connStr)
	if err != nil {
		return err
	}
	m, err := newMigrator(db, backend)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() { _, _ = m.Close() }()

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d. Fix it manually or force a version", currentVersion)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Printf("No migration needed. Database is already at version %d\n", currentVersion)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate from version %d: %w", currentVersion, err)
	}

	newVersion, _, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		newVersion = 0
	}
	fmt.Printf("Successfully migrated from version %d to version %d\n", currentVersion, newVersion)
	return nil
}
