// Package migration applies schema migrations through a resolved connection provider.
package migration

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	provider "github.com/tigerroll/mooring/pkg/conn/provider"
	exception "github.com/tigerroll/mooring/pkg/support/util/exception"
	logger "github.com/tigerroll/mooring/pkg/support/util/logger"
)

const moduleName = "migration"

// DefaultMigrationsTable tracks applied migrations.
const DefaultMigrationsTable = "mooring_schema_migrations"

// Migrator handles database schema migrations.
type Migrator interface {
	// Up applies all pending migrations.
	// tableName: the name of the table used to track migration history.
	Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
	// Down rolls back all applied migrations.
	Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
	// Close is a no-op; each migration run closes its own migrate instance,
	// and the underlying source stays owned by whoever configured the provider.
	Close() error
}

// migratorImpl implements Migrator
type migratorImpl struct {
	connProvider provider.ConnectionProvider
	driver       string
}

// NewMigrator creates a Migrator running against the source resolved by the
// given provider. driver selects the migrate database driver (postgres, mysql,
// sqlite3).
func NewMigrator(p provider.ConnectionProvider, driver string) Migrator {
	return &migratorImpl{
		connProvider: p,
		driver:       driver,
	}
}

// getDatabaseDriver retrieves a migrate/v4 Driver based on the driver name.
func (m *migratorImpl) getDatabaseDriver(sqlDB *sql.DB, tableName string) (database.Driver, error) {
	switch m.driver {
	case "postgres", "redshift":
		return postgres.WithInstance(sqlDB, &postgres.Config{
			MigrationsTable: tableName,
		})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{
			MigrationsTable: tableName,
		})
	case "sqlite", "sqlite3":
		return sqlite3.WithInstance(sqlDB, &sqlite3.Config{
			MigrationsTable: tableName,
		})
	default:
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "unsupported database driver for migration: %s", m.driver)
	}
}

func (m *migratorImpl) getMigrateInstance(migrationFS fs.FS, path string, tableName string) (*migrate.Migrate, error) {
	// 1. Unwrap the provider down to the resolved source.
	unwrapped, err := m.connProvider.Unwrap(provider.UnwrapPooledSource)
	if err != nil {
		return nil, err
	}
	source, ok := unwrapped.(provider.PooledSource)
	if !ok {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "unwrapped value is not a pooled source")
	}

	// 2. Get the underlying *sql.DB connection.
	sqlDB, err := source.GetSQLDB()
	if err != nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to get underlying sql.DB", err)
	}

	// 3. Create the source driver (iofs).
	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to create iofs source driver for path %s", path, err)
	}

	// 4. Create the database driver instance.
	dbDriver, err := m.getDatabaseDriver(sqlDB, tableName)
	if err != nil {
		return nil, err
	}

	// 5. Create the migrate instance using the configured driver.
	mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, m.driver, dbDriver)
	if err != nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to create migrate instance", err)
	}
	return mInstance, nil
}

func (m *migratorImpl) runMigration(ctx context.Context, migrationFS fs.FS, path string, command string, tableName string) error {
	logger.Infof("Executing migration '%s' (Path: %s, Table: %s)", command, path, tableName)

	mInstance, err := m.getMigrateInstance(migrationFS, path, tableName)
	if err != nil {
		return err
	}
	defer mInstance.Close()

	var migrateErr error

	switch command {
	case "up":
		migrateErr = mInstance.Up()
	case "down":
		migrateErr = mInstance.Down()
	default:
		return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "unsupported migration command: %s", command)
	}

	if migrateErr != nil && migrateErr != migrate.ErrNoChange {
		_, _, versionErr := mInstance.Version()
		if versionErr != nil {
			logger.Errorf("Migration failed and failed to retrieve version: %v", versionErr)
		}
		return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "migration failed for command '%s' (driver: %s, path: %s)", command, m.driver, path, migrateErr)
	}

	logger.Infof("Migration '%s' completed successfully.", command)
	return nil
}

func (m *migratorImpl) Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.runMigration(ctx, migrationFS, path, "up", tableName)
}

func (m *migratorImpl) Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.runMigration(ctx, migrationFS, path, "down", tableName)
}

func (m *migratorImpl) Close() error {
	// The migrate instance is closed in runMigration, nothing to close here.
	return nil
}
