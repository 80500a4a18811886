package datastore

import (
	"fmt"
	"path/filepath"

	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings == nil || settings.Export.Path == "" || settings.Export.Database == "" {
		return errors.Newf("export path and database name must be configured").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("operation", "validate_sqlite_config").
			Build()
	}
	return nil
}

// Open sets up the SQLite database connection and migrates the archive schema.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	basePath := conf.GetBasePath(store.Settings.Export.Path)
	dbPath := filepath.Join(basePath, store.Settings.Export.Database)

	// WAL keeps the archive readable while an export is writing to it
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dbPath)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "open_sqlite").
			Context("db_path", dbPath).
			Build()
	}

	store.DB = db
	return performAutoMigration(db, dbPath)
}

// Close closes the underlying SQLite connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "close_sqlite").
			Build()
	}
	return sqlDB.Close()
}
