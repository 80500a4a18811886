package tinybeans

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tphakala/tinybeans-go/internal/errors"
)

// API and client defaults
const (
	DefaultBaseURL   = "https://tinybeans.com/api/1/"
	DefaultFetchSize = 200
	DefaultTimeout   = 45 * time.Second
	DefaultCacheTTL  = 5 * time.Minute
)

// ClientID identifies this client to the Tinybeans API. The value matches
// the identifier the iOS app presents, requests without a recognized
// client identifier are rejected.
const ClientID = "13bcd503-2137-9085-a437-d9f2ac9281a1"

// dobLayout is the date format journals use for a child's date of birth.
const dobLayout = "2006-01-02"

// Config holds configuration options for the Tinybeans API client
type Config struct {
	Username       string        // Account email used for authentication
	Password       string        // Account password
	BaseURL        string        // API base URL, must end with a slash
	FetchSize      int           // Entries requested per page when listing
	IncludeDeleted bool          // Keep entries flagged deleted when listing
	Timeout        time.Duration // HTTP request timeout
	CacheTTL       time.Duration // Followings cache duration
}

// DefaultConfig returns a configuration with production defaults.
// Credentials must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		FetchSize: DefaultFetchSize,
		Timeout:   DefaultTimeout,
		CacheTTL:  DefaultCacheTTL,
	}
}

// User represents a Tinybeans account
type User struct {
	ID           int64  `json:"id"`
	EmailAddress string `json:"emailAddress"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Username     string `json:"username"`
}

// Relationship describes how the account relates to a followed journal
type Relationship struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Following links the account to a journal it has access to
type Following struct {
	ID           int64        `json:"id"`
	URL          string       `json:"URL"`
	Relationship Relationship `json:"relationship"`
	Journal      Journal      `json:"journal"`
}

// Journal is a single family journal and the children it records
type Journal struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Children []Child `json:"children"`
}

// UnmarshalJSON decodes a journal and stamps each child with the journal
// ID. The API nests children inside their journal without a back
// reference, and entry and upload operations need the journal a child
// belongs to.
func (j *Journal) UnmarshalJSON(data []byte) error {
	type alias Journal
	if err := json.Unmarshal(data, (*alias)(j)); err != nil {
		return err
	}
	for i := range j.Children {
		j.Children[i].JournalID = j.ID
	}
	return nil
}

// Child is a child recorded in a journal
type Child struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Gender    string    `json:"gender"`
	DOB       time.Time `json:"-"`
	JournalID int64     `json:"-"`
}

// UnmarshalJSON decodes a child, parsing the date of birth from the
// API's date-only format.
func (c *Child) UnmarshalJSON(data []byte) error {
	type alias Child
	aux := struct {
		DOB string `json:"dob"`
		*alias
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DOB != "" {
		dob, err := time.Parse(dobLayout, aux.DOB)
		if err != nil {
			return fmt.Errorf("invalid child dob %q: %w", aux.DOB, err)
		}
		c.DOB = dob
	}
	return nil
}

// Name returns the child's full name.
func (c *Child) Name() string {
	return c.FirstName + " " + c.LastName
}

// FindChild locates a child by id in a followed-children listing.
func FindChild(children []Child, id int64) (*Child, error) {
	for i := range children {
		if children[i].ID == id {
			return &children[i], nil
		}
	}
	return nil, errors.Newf("no followed child with id %d", id).
		Category(errors.CategoryNotFound).
		Context("operation", "find_child").
		Component("tinybeans").
		Build()
}

// Entry types as reported by the API
const (
	EntryTypePhoto = "PHOTO"
	EntryTypeVideo = "VIDEO"
	EntryTypeText  = "TEXT"
)

// Entry is a single journal moment, a photo, video or text note
type Entry struct {
	ID        int64             `json:"id"`
	UUID      string            `json:"uuid"`
	JournalID int64             `json:"journalId"`
	Type      string            `json:"type"`
	Deleted   bool              `json:"deleted"`
	Caption   string            `json:"caption"`
	Timestamp int64             `json:"timestamp"`
	Latitude  *float64          `json:"latitude"`
	Longitude *float64          `json:"longitude"`
	Blobs     map[string]string `json:"blobs"`
	VideoURL  string            `json:"attachmentUrl_mp4"`
	Comments  []Comment         `json:"comments"`
	Emotions  []Emotion         `json:"emotions"`
}

// UnmarshalJSON decodes an entry. Video moments arrive with a generic
// type and a separate attachment type marker, they are normalized to
// EntryTypeVideo so callers can rely on Type alone.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	aux := struct {
		AttachmentType string `json:"attachmentType"`
		*alias
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.AttachmentType == EntryTypeVideo {
		e.Type = EntryTypeVideo
	}
	return nil
}

// Time returns the entry timestamp as a time.Time.
func (e *Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Comment is a remark left on an entry
type Comment struct {
	ID   int64  `json:"id"`
	Text string `json:"details"`
	User User   `json:"user"`
}

// Emotion is a reaction left on an entry, a like or a love
type Emotion struct {
	ID      int64  `json:"id"`
	EntryID int64  `json:"entryId"`
	UserID  int64  `json:"userId"`
	Type    string `json:"-"`
}

// UnmarshalJSON decodes an emotion, flattening the nested type object
// to its label.
func (e *Emotion) UnmarshalJSON(data []byte) error {
	type alias Emotion
	aux := struct {
		Type struct {
			Label string `json:"label"`
		} `json:"type"`
		*alias
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Type = aux.Type.Label
	return nil
}

// MediaItem describes one local file to publish as a journal entry
type MediaItem struct {
	Day      int
	Month    int
	Year     int
	File     string
	Children []Child
}

// authResponse is the payload returned by the authenticate endpoint
type authResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

// followingsResponse is the payload returned by the followings endpoint
type followingsResponse struct {
	Status     string      `json:"status"`
	Followings []Following `json:"followings"`
}

// entriesPage is one page of the entries listing
type entriesPage struct {
	Entries             []Entry `json:"entries"`
	NumEntriesRemaining int     `json:"numEntriesRemaining"`
}
