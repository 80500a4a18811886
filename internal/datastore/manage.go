// manage.go - archive schema creation and migration
package datastore

import (
	"log/slog"
	"time"

	"github.com/tphakala/tinybeans-go/internal/errors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow and logged at warning level.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger creates a GORM logger backed by the datastore service logger.
func createGormLogger() gormlogger.Interface {
	return NewGormLogger(DefaultSlowQueryThreshold, gormlogger.Warn)
}

// performAutoMigration runs table migrations for the archive schema.
func performAutoMigration(db *gorm.DB, dbPath string) error {
	migrationStart := time.Now()
	log := getLogger().With("db_path", dbPath)

	log.Debug("Starting database migration")

	successCount, err := migrateTables(db, log)
	if err != nil {
		return err
	}

	log.Debug("Database migration completed successfully",
		"total_duration", time.Since(migrationStart),
		"tables_migrated", successCount)

	return nil
}

// migrateTables migrates each archive table individually for better logging.
func migrateTables(db *gorm.DB, log *slog.Logger) (int, error) {
	tableMappings := []struct {
		model any
		name  string
	}{
		{&ArchivedEntry{}, "archived_entries"},
		{&ArchivedComment{}, "archived_comments"},
		{&ArchivedEmotion{}, "archived_emotions"},
	}

	log.Debug("Starting table migrations",
		"table_count", len(tableMappings))

	successCount := 0
	for _, table := range tableMappings {
		if err := migrateTable(db, table.model, table.name, log); err != nil {
			return successCount, err
		}
		successCount++
	}

	return successCount, nil
}

// migrateTable migrates a single table with detailed logging
func migrateTable(db *gorm.DB, model any, tableName string, log *slog.Logger) error {
	tableStart := time.Now()

	tableExists := db.Migrator().HasTable(model)

	if err := db.AutoMigrate(model); err != nil {
		enhancedErr := errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate_table").
			Context("table", tableName).
			Build()

		log.Error("Table migration failed",
			"table", tableName,
			"error", enhancedErr)
		return enhancedErr
	}

	action := "updated"
	if !tableExists {
		action = "created"
	}

	log.Debug("Table migration completed",
		"table", tableName,
		"action", action,
		"duration", time.Since(tableStart))

	return nil
}
