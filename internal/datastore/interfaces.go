// interfaces.go: this code defines the interface for the archive database operations
package datastore

import (
	"database/sql"

	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Interface abstracts the underlying database implementation and defines the
// operations available on the journal archive.
type Interface interface {
	Open() error
	Close() error
	SaveEntry(entry *ArchivedEntry) error
	GetEntry(uuid string) (ArchivedEntry, error)
	GetEntries(journalID int64) ([]ArchivedEntry, error)
	CountEntries(journalID int64) (int64, error)
	LatestTimestamp(journalID int64) (int64, error)
	SetLocalPath(uuid, localPath string) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new archive store based on the provided configuration.
// The archive is backed by a SQLite database under the export directory.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{
		Settings: settings,
	}
}

// entryUpdateColumns lists the columns refreshed when an entry is archived
// again. CreatedAt and LocalPath are deliberately absent: the first records
// when the entry was initially archived, the second survives re-runs that
// skip media download.
var entryUpdateColumns = []string{
	"entry_id", "journal_id", "type", "caption", "latitude", "longitude",
	"timestamp", "deleted", "blob_url", "video_url", "updated_at",
}

// SaveEntry upserts an entry and its comments and emotions as a single
// transaction. Existing rows are matched on the entry UUID, so archiving the
// same entry twice refreshes it in place instead of duplicating it.
func (ds *DataStore) SaveEntry(entry *ArchivedEntry) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_entry").
			Build()
	}
	if entry == nil || entry.UUID == "" {
		return errors.Newf("entry UUID cannot be empty").
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("operation", "save_entry").
			Build()
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		row := *entry
		row.ID = 0
		row.Comments = nil
		row.Emotions = nil

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uuid"}},
			DoUpdates: clause.AssignmentColumns(entryUpdateColumns),
		}).Create(&row).Error
		if err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "save_entry").
				Context("uuid", entry.UUID).
				Build()
		}

		// On the conflict path Create leaves the ID unset, re-read the row
		var saved ArchivedEntry
		if err := tx.Where("uuid = ?", entry.UUID).First(&saved).Error; err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "reload_entry").
				Context("uuid", entry.UUID).
				Build()
		}

		// Replace the nested rows wholesale so re-runs cannot duplicate them
		if err := tx.Where("archived_entry_id = ?", saved.ID).Delete(&ArchivedComment{}).Error; err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "clear_comments").
				Context("uuid", entry.UUID).
				Build()
		}
		if err := tx.Where("archived_entry_id = ?", saved.ID).Delete(&ArchivedEmotion{}).Error; err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "clear_emotions").
				Context("uuid", entry.UUID).
				Build()
		}

		for i := range entry.Comments {
			comment := entry.Comments[i]
			comment.ID = 0
			comment.ArchivedEntryID = saved.ID
			if err := tx.Create(&comment).Error; err != nil {
				return errors.New(err).
					Component("datastore").
					Category(errors.CategoryDatabase).
					Context("operation", "save_comment").
					Context("uuid", entry.UUID).
					Build()
			}
		}
		for i := range entry.Emotions {
			emotion := entry.Emotions[i]
			emotion.ID = 0
			emotion.ArchivedEntryID = saved.ID
			if err := tx.Create(&emotion).Error; err != nil {
				return errors.New(err).
					Component("datastore").
					Category(errors.CategoryDatabase).
					Context("operation", "save_emotion").
					Context("uuid", entry.UUID).
					Build()
			}
		}

		entry.ID = saved.ID
		return nil
	})
}

// GetEntry retrieves an archived entry by its UUID, including its comments
// and emotions.
func (ds *DataStore) GetEntry(uuid string) (ArchivedEntry, error) {
	var entry ArchivedEntry
	err := ds.DB.Preload("Comments").Preload("Emotions").
		Where("uuid = ?", uuid).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ArchivedEntry{}, errors.Newf("archived entry not found: %s", uuid).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return ArchivedEntry{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_entry").
			Context("uuid", uuid).
			Build()
	}
	return entry, nil
}

// GetEntries returns all archived entries for a journal, newest first.
func (ds *DataStore) GetEntries(journalID int64) ([]ArchivedEntry, error) {
	var entries []ArchivedEntry
	err := ds.DB.Preload("Comments").Preload("Emotions").
		Where("journal_id = ?", journalID).
		Order("timestamp DESC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_entries").
			Context("journal_id", journalID).
			Build()
	}
	return entries, nil
}

// CountEntries returns the number of archived entries for a journal.
func (ds *DataStore) CountEntries(journalID int64) (int64, error) {
	var count int64
	err := ds.DB.Model(&ArchivedEntry{}).
		Where("journal_id = ?", journalID).
		Count(&count).Error
	if err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "count_entries").
			Context("journal_id", journalID).
			Build()
	}
	return count, nil
}

// LatestTimestamp returns the newest entry timestamp archived for a journal,
// or zero when the journal has no archived entries yet.
func (ds *DataStore) LatestTimestamp(journalID int64) (int64, error) {
	var latest sql.NullInt64
	err := ds.DB.Model(&ArchivedEntry{}).
		Where("journal_id = ?", journalID).
		Select("MAX(timestamp)").
		Scan(&latest).Error
	if err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "latest_timestamp").
			Context("journal_id", journalID).
			Build()
	}
	if !latest.Valid {
		return 0, nil
	}
	return latest.Int64, nil
}

// SetLocalPath records the on-disk location of an entry's downloaded media.
func (ds *DataStore) SetLocalPath(uuid, localPath string) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "set_local_path").
			Build()
	}

	result := ds.DB.Model(&ArchivedEntry{}).
		Where("uuid = ?", uuid).
		Update("local_path", localPath)
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "set_local_path").
			Context("uuid", uuid).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("archived entry not found: %s", uuid).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("operation", "set_local_path").
			Build()
	}
	return nil
}
