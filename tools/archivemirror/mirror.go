package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/tinybeans-go/internal/datastore"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Mirror handles copying archive data from SQLite to MySQL.
type Mirror struct {
	cfg      Config
	sourceDB *gorm.DB
	targetDB *gorm.DB
}

// MirrorStats tracks copy statistics.
type MirrorStats struct {
	StartTime time.Time
	EndTime   time.Time
	Tables    []TableStats
}

// TableStats tracks per-table copy statistics.
type TableStats struct {
	Name      string
	Copied    int64
	Skipped   int64
	Errors    int64
	Duration  time.Duration
	BatchSize int
}

// Print outputs the copy statistics.
func (s *MirrorStats) Print() {
	fmt.Println("\n=== Mirror Summary ===")
	fmt.Printf("Duration: %s\n\n", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))

	fmt.Printf("%-25s %10s %10s %10s %12s\n", "Table", "Copied", "Skipped", "Errors", "Duration")
	fmt.Println(strings.Repeat("-", 70))

	var totalCopied, totalSkipped, totalErrors int64
	for _, t := range s.Tables {
		fmt.Printf("%-25s %10d %10d %10d %12s\n",
			t.Name, t.Copied, t.Skipped, t.Errors, t.Duration.Round(time.Millisecond))
		totalCopied += t.Copied
		totalSkipped += t.Skipped
		totalErrors += t.Errors
	}

	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("%-25s %10d %10d %10d\n", "TOTAL", totalCopied, totalSkipped, totalErrors)
}

// archiveTables lists the mirrored tables in dependency order, parents first.
// Drop and truncate walk the list in reverse.
var archiveTables = []string{
	"archived_entries",
	"archived_comments",
	"archived_emotions",
}

// NewMirror creates a new Mirror with database connections.
func NewMirror(cfg *Config) (*Mirror, error) {
	m := &Mirror{cfg: *cfg}

	// Configure GORM logger
	logLevel := logger.Silent
	if cfg.Verbose {
		logLevel = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	// Open source SQLite archive
	sourceDB, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	m.sourceDB = sourceDB

	// Open target MySQL database
	targetDB, err := gorm.Open(mysql.Open(cfg.GetMySQLDSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	m.targetDB = targetDB

	// Test connections
	sqlDB, err := sourceDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get archive connection: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	sqlDB, err = targetDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MySQL connection: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	fmt.Println("Database connections established successfully")

	return m, nil
}

// Close closes both database connections.
func (m *Mirror) Close() {
	if m.sourceDB != nil {
		if db, err := m.sourceDB.DB(); err == nil {
			_ = db.Close()
		}
	}
	if m.targetDB != nil {
		if db, err := m.targetDB.DB(); err == nil {
			_ = db.Close()
		}
	}
}

// Run executes the full copy.
func (m *Mirror) Run() (*MirrorStats, error) {
	stats := &MirrorStats{
		StartTime: time.Now(),
	}

	// Drop tables if requested (fresh start)
	if m.cfg.DropTables {
		if err := m.dropTables(); err != nil {
			return nil, fmt.Errorf("failed to drop tables: %w", err)
		}
	}

	// Auto-migrate tables if requested
	if m.cfg.AutoMigrate {
		if err := m.autoMigrateTables(); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate tables: %w", err)
		}
	}

	// Disable foreign key checks on MySQL so preserved IDs can land in any order
	if err := m.targetDB.Exec("SET FOREIGN_KEY_CHECKS=0").Error; err != nil {
		return nil, fmt.Errorf("failed to disable foreign key checks: %w", err)
	}
	defer m.targetDB.Exec("SET FOREIGN_KEY_CHECKS=1")

	fmt.Println("Foreign key checks disabled")

	// Clean tables if requested
	if m.cfg.Clean {
		if err := m.cleanTables(); err != nil {
			return nil, fmt.Errorf("failed to clean tables: %w", err)
		}
	}

	// Copy tables in dependency order
	tables := []struct {
		name      string
		batchSize int
		copy      func(int) (*TableStats, error)
	}{
		{"archived_entries", 1000, m.copyEntries},
		{"archived_comments", 2000, m.copyComments},
		{"archived_emotions", 5000, m.copyEmotions},
	}

	for _, t := range tables {
		batchSize := t.batchSize
		if m.cfg.BatchSize > 0 && m.cfg.BatchSize < t.batchSize {
			batchSize = m.cfg.BatchSize
		}

		tableStats, err := t.copy(batchSize)
		if err != nil {
			return stats, fmt.Errorf("failed to copy %s: %w", t.name, err)
		}
		stats.Tables = append(stats.Tables, *tableStats)
	}

	stats.EndTime = time.Now()

	return stats, nil
}

// dropTables drops all mirrored tables from the target database for a fresh start.
func (m *Mirror) dropTables() error {
	fmt.Println("Dropping all tables from target database...")

	// Disable FK checks first to allow dropping in any order
	if err := m.targetDB.Exec("SET FOREIGN_KEY_CHECKS=0").Error; err != nil {
		return fmt.Errorf("failed to disable foreign key checks: %w", err)
	}

	for i := len(archiveTables) - 1; i >= 0; i-- {
		table := archiveTables[i]
		if err := m.targetDB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			fmt.Printf("Warning: could not drop table %s: %v\n", table, err)
		} else if m.cfg.Verbose {
			fmt.Printf("  Dropped: %s\n", table)
		}
	}

	// Re-enable FK checks
	if err := m.targetDB.Exec("SET FOREIGN_KEY_CHECKS=1").Error; err != nil {
		return fmt.Errorf("failed to re-enable foreign key checks: %w", err)
	}

	fmt.Println("Tables dropped successfully")
	return nil
}

// autoMigrateTables creates all tables in the target database using GORM AutoMigrate.
func (m *Mirror) autoMigrateTables() error {
	fmt.Println("Creating tables in target database...")

	models := []any{
		&datastore.ArchivedEntry{},
		&datastore.ArchivedComment{},
		&datastore.ArchivedEmotion{},
	}

	for _, model := range models {
		if err := m.targetDB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	fmt.Println("Tables created successfully")
	return nil
}

// cleanTables truncates all mirrored target tables.
func (m *Mirror) cleanTables() error {
	fmt.Println("Cleaning target tables...")
	for i := len(archiveTables) - 1; i >= 0; i-- {
		table := archiveTables[i]
		if err := m.targetDB.Exec(fmt.Sprintf("TRUNCATE TABLE %s", table)).Error; err != nil {
			// Table might not exist, try DELETE instead
			if err := m.targetDB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				fmt.Printf("Warning: could not clean table %s: %v\n", table, err)
			}
		}
		if m.cfg.Verbose {
			fmt.Printf("  Cleaned: %s\n", table)
		}
	}
	fmt.Println("Tables cleaned")

	return nil
}

// copyTable is a generic function for copying a table using batched operations.
func copyTable[T any](m *Mirror, tableName string, batchSize int) (*TableStats, error) {
	start := time.Now()
	stats := &TableStats{
		Name:      tableName,
		BatchSize: batchSize,
	}

	fmt.Printf("Copying %s...\n", tableName)

	// Count source records
	var sourceCount int64
	if err := m.sourceDB.Model(new(T)).Count(&sourceCount).Error; err != nil {
		return stats, fmt.Errorf("failed to count source records: %w", err)
	}

	if sourceCount == 0 {
		fmt.Printf("  %s: no records to copy\n", tableName)
		stats.Duration = time.Since(start)
		return stats, nil
	}

	// Process in batches
	var processed int64
	batchNum := 0

	err := m.sourceDB.Model(new(T)).FindInBatches(new([]T), batchSize, func(tx *gorm.DB, batch int) error {
		batchNum++
		records := tx.Statement.Dest.(*[]T)

		// Insert with ON CONFLICT DO NOTHING so re-runs stay idempotent
		result := m.targetDB.Clauses(clause.OnConflict{DoNothing: true}).Create(records)
		if result.Error != nil {
			stats.Errors += int64(len(*records))
			fmt.Printf("  Batch %d error: %v\n", batchNum, result.Error)
			// Continue with next batch - don't fail the entire copy on batch error
			return nil //nolint:nilerr // intentional: continue copy despite batch error
		}

		stats.Copied += result.RowsAffected
		stats.Skipped += int64(len(*records)) - result.RowsAffected
		processed += int64(len(*records))

		if m.cfg.Verbose || batchNum%10 == 0 {
			fmt.Printf("  %s: %d/%d (%.1f%%)\n", tableName, processed, sourceCount,
				float64(processed)/float64(sourceCount)*100)
		}

		return nil
	}).Error

	if err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	fmt.Printf("  %s: completed (%d copied, %d skipped, %d errors) in %s\n",
		tableName, stats.Copied, stats.Skipped, stats.Errors, stats.Duration.Round(time.Millisecond))

	return stats, nil
}

// Table-specific copy functions

func (m *Mirror) copyEntries(batchSize int) (*TableStats, error) {
	return copyTable[datastore.ArchivedEntry](m, "archived_entries", batchSize)
}

func (m *Mirror) copyComments(batchSize int) (*TableStats, error) {
	return copyTable[datastore.ArchivedComment](m, "archived_comments", batchSize)
}

func (m *Mirror) copyEmotions(batchSize int) (*TableStats, error) {
	return copyTable[datastore.ArchivedEmotion](m, "archived_emotions", batchSize)
}
