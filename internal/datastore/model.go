// model.go this code defines the data model for the journal archive
package datastore

import "time"

// ArchivedEntry represents a single journal entry captured into the local archive.
// Entries are keyed by the server-assigned UUID so repeated exports update in place.
type ArchivedEntry struct {
	ID        uint   `gorm:"primaryKey"`
	UUID      string `gorm:"uniqueIndex;not null"`
	EntryID   int64  `gorm:"index:idx_archived_entries_entry"`
	JournalID int64  `gorm:"index:idx_archived_entries_journal"`
	Type      string `gorm:"type:varchar(20)"` // PHOTO, VIDEO or TEXT
	Caption   string `gorm:"type:text"`
	Latitude  *float64
	Longitude *float64
	Timestamp int64 `gorm:"index:idx_archived_entries_timestamp"` // entry time in milliseconds since epoch
	Deleted   bool
	BlobURL   string // remote URL of the full-size media blob
	VideoURL  string // remote URL of the mp4 attachment for video entries
	LocalPath string // path of the downloaded media file, empty until fetched

	Comments []ArchivedComment `gorm:"foreignKey:ArchivedEntryID;constraint:OnDelete:CASCADE"`
	Emotions []ArchivedEmotion `gorm:"foreignKey:ArchivedEntryID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time // when the entry was first archived
	UpdatedAt time.Time // when the entry was last refreshed from the server
}

// Time returns the entry timestamp as a time.Time.
func (e *ArchivedEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// ArchivedComment represents a comment left on an archived entry.
// GORM will automatically create table name as 'archived_comments'
type ArchivedComment struct {
	ID              uint   `gorm:"primaryKey"`
	ArchivedEntryID uint   `gorm:"index;not null;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;foreignKey:ArchivedEntryID;references:ID"` // Foreign key to associate with ArchivedEntry
	CommentID       int64  `gorm:"index"`                                                                                               // server-assigned comment id
	Text            string `gorm:"type:text"`
	AuthorID        int64
	AuthorName      string
}

// ArchivedEmotion represents a reaction left on an archived entry.
// GORM will automatically create table name as 'archived_emotions'
type ArchivedEmotion struct {
	ID              uint   `gorm:"primaryKey"`
	ArchivedEntryID uint   `gorm:"index;not null;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;foreignKey:ArchivedEntryID;references:ID"` // Foreign key to associate with ArchivedEntry
	EmotionID       int64  `gorm:"index"`                                                                                               // server-assigned emotion id
	UserID          int64
	Type            string `gorm:"type:varchar(20)"` // reaction label, e.g. "Love"
}
