package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/datastore"
	"github.com/tphakala/tinybeans-go/internal/errors"
	"github.com/tphakala/tinybeans-go/internal/tinybeans"
)

const testJournalID = 77

// testTimestamp is midday on the 14th so the derived year/month directory is
// stable in every timezone.
var testTimestamp = time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC).UnixMilli()

// setupHTTPMock activates HTTP mocking for media downloads and ensures
// cleanup after the test completes.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

// newTestExporter wires an exporter to a mock API client and a temporary
// archive database.
func newTestExporter(t *testing.T, media bool) (*Exporter, *tinybeans.MockClient, datastore.Interface, *conf.Settings) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Export.Path = t.TempDir()
	settings.Export.Database = "archive-test.db"
	settings.Export.Media = media

	store := datastore.New(settings)
	require.NoError(t, store.Open(), "Failed to open archive database")
	t.Cleanup(func() {
		assert.NoError(t, store.Close(), "Failed to close archive database")
	})

	mockClient := new(tinybeans.MockClient)
	return New(settings, mockClient, store), mockClient, store, settings
}

func testChild() *tinybeans.Child {
	return &tinybeans.Child{ID: 11, FirstName: "Alice", LastName: "Example", JournalID: testJournalID}
}

func photoEntry(id int64, uuid string) tinybeans.Entry {
	return tinybeans.Entry{
		ID:        id,
		UUID:      uuid,
		JournalID: testJournalID,
		Type:      tinybeans.EntryTypePhoto,
		Caption:   "at the park",
		Timestamp: testTimestamp,
		Blobs: map[string]string{
			"o": "https://cdn.tinybeans.test/media/" + uuid + ".jpg",
			"t": "https://cdn.tinybeans.test/thumb/" + uuid + ".jpg",
		},
	}
}

// mediaDir returns the year/month directory the exporter derives for the
// shared test timestamp.
func mediaDir(settings *conf.Settings) string {
	when := time.UnixMilli(testTimestamp)
	return filepath.Join(settings.Export.Path, strconv.Itoa(when.Year()), fmt.Sprintf("%02d", int(when.Month())))
}

func TestRunArchivesEntries(t *testing.T) {
	exporter, mockClient, store, _ := newTestExporter(t, false)

	child := testChild()
	first := photoEntry(101, "uuid-1")
	first.Comments = []tinybeans.Comment{
		{ID: 701, Text: "So cute!", User: tinybeans.User{ID: 9001, Username: "patparent"}},
	}
	first.Emotions = []tinybeans.Emotion{
		{ID: 801, EntryID: 101, UserID: 9001, Type: "Love"},
	}
	entries := []tinybeans.Entry{first, photoEntry(102, "uuid-2"), photoEntry(103, "uuid-3")}
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).Return(entries, nil)

	summary, err := exporter.Run(context.Background(), child)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Counted)
	assert.Equal(t, 3, summary.Saved)
	assert.Zero(t, summary.Downloaded, "Media download is disabled")

	count, err := store.CountEntries(testJournalID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	got, err := store.GetEntry("uuid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(101), got.EntryID)
	assert.Equal(t, "at the park", got.Caption)
	assert.Equal(t, "https://cdn.tinybeans.test/media/uuid-1.jpg", got.BlobURL,
		"The full resolution blob should be recorded")
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "So cute!", got.Comments[0].Text)
	assert.Equal(t, "patparent", got.Comments[0].AuthorName)
	require.Len(t, got.Emotions, 1)
	assert.Equal(t, "Love", got.Emotions[0].Type)

	mockClient.AssertExpectations(t)
}

func TestRunIsIncremental(t *testing.T) {
	exporter, mockClient, store, _ := newTestExporter(t, false)

	child := testChild()
	entries := []tinybeans.Entry{photoEntry(101, "uuid-1"), photoEntry(102, "uuid-2")}
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).Return(entries, nil)

	_, err := exporter.Run(context.Background(), child)
	require.NoError(t, err)

	// Re-running over the same entries must not duplicate archive rows
	summary, err := exporter.Run(context.Background(), child)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Saved)

	count, err := store.CountEntries(testJournalID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRunDownloadsMedia(t *testing.T) {
	setupHTTPMock(t)
	exporter, mockClient, store, settings := newTestExporter(t, true)

	child := testChild()
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).
		Return([]tinybeans.Entry{photoEntry(101, "uuid-1")}, nil)
	httpmock.RegisterResponder("GET", "https://cdn.tinybeans.test/media/uuid-1.jpg",
		httpmock.NewBytesResponder(200, []byte("jpeg-bytes")))

	summary, err := exporter.Run(context.Background(), child)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Downloaded)
	assert.Zero(t, summary.Skipped)
	assert.Zero(t, summary.Failed)

	wantPath := filepath.Join(mediaDir(settings), "uuid-1.jpg")
	data, err := os.ReadFile(wantPath)
	require.NoError(t, err, "Media file should exist under the year/month directory")
	assert.Equal(t, "jpeg-bytes", string(data))

	got, err := store.GetEntry("uuid-1")
	require.NoError(t, err)
	assert.Equal(t, wantPath, got.LocalPath)
}

func TestRunSkipsExistingMedia(t *testing.T) {
	setupHTTPMock(t)
	exporter, mockClient, _, _ := newTestExporter(t, true)

	child := testChild()
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).
		Return([]tinybeans.Entry{photoEntry(101, "uuid-1")}, nil)
	httpmock.RegisterResponder("GET", "https://cdn.tinybeans.test/media/uuid-1.jpg",
		httpmock.NewBytesResponder(200, []byte("jpeg-bytes")))

	_, err := exporter.Run(context.Background(), child)
	require.NoError(t, err)

	summary, err := exporter.Run(context.Background(), child)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Downloaded)
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["GET https://cdn.tinybeans.test/media/uuid-1.jpg"],
		"The blob must only be fetched once across runs")
}

func TestRunVideoFetchesAttachmentAndPoster(t *testing.T) {
	setupHTTPMock(t)
	exporter, mockClient, store, settings := newTestExporter(t, true)

	child := testChild()
	video := tinybeans.Entry{
		ID:        201,
		UUID:      "uuid-vid",
		JournalID: testJournalID,
		Type:      tinybeans.EntryTypeVideo,
		Timestamp: testTimestamp,
		VideoURL:  "https://cdn.tinybeans.test/video/uuid-vid.mp4",
		Blobs: map[string]string{
			"p": "https://cdn.tinybeans.test/poster/uuid-vid.jpg",
		},
	}
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).
		Return([]tinybeans.Entry{video}, nil)
	httpmock.RegisterResponder("GET", "https://cdn.tinybeans.test/video/uuid-vid.mp4",
		httpmock.NewBytesResponder(200, []byte("mp4-bytes")))
	httpmock.RegisterResponder("GET", "https://cdn.tinybeans.test/poster/uuid-vid.jpg",
		httpmock.NewBytesResponder(200, []byte("poster-bytes")))

	summary, err := exporter.Run(context.Background(), child)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Downloaded)

	videoPath := filepath.Join(mediaDir(settings), "uuid-vid.mp4")
	assert.FileExists(t, videoPath)
	assert.FileExists(t, filepath.Join(mediaDir(settings), "uuid-vid.jpg"))

	got, err := store.GetEntry("uuid-vid")
	require.NoError(t, err)
	assert.Equal(t, videoPath, got.LocalPath, "The mp4 is the entry's primary media file")
}

func TestRunContinuesAfterDownloadFailure(t *testing.T) {
	setupHTTPMock(t)
	exporter, mockClient, store, _ := newTestExporter(t, true)

	child := testChild()
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).
		Return([]tinybeans.Entry{photoEntry(101, "uuid-1")}, nil)
	httpmock.RegisterResponder("GET", "https://cdn.tinybeans.test/media/uuid-1.jpg",
		httpmock.NewStringResponder(500, "server error"))

	summary, err := exporter.Run(context.Background(), child)
	require.NoError(t, err, "A failed download must not abort the export")

	assert.Equal(t, 1, summary.Saved)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Downloaded)

	got, err := store.GetEntry("uuid-1")
	require.NoError(t, err)
	assert.Empty(t, got.LocalPath, "No media path should be recorded for a failed download")
}

func TestRunTextEntryHasNoMedia(t *testing.T) {
	setupHTTPMock(t)
	exporter, mockClient, store, _ := newTestExporter(t, true)

	child := testChild()
	text := tinybeans.Entry{
		ID:        301,
		UUID:      "uuid-text",
		JournalID: testJournalID,
		Type:      tinybeans.EntryTypeText,
		Caption:   "First words today!",
		Timestamp: testTimestamp,
	}
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).
		Return([]tinybeans.Entry{text}, nil)

	summary, err := exporter.Run(context.Background(), child)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Saved)
	assert.Zero(t, summary.Downloaded)
	assert.Zero(t, summary.Failed)

	got, err := store.GetEntry("uuid-text")
	require.NoError(t, err)
	assert.Equal(t, "First words today!", got.Caption)
}

func TestRunPropagatesClientError(t *testing.T) {
	exporter, mockClient, _, _ := newTestExporter(t, false)

	child := testChild()
	apiErr := errors.Newf("fetch failed").
		Component("tinybeans-api").
		Category(errors.CategoryNetwork).
		Build()
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).Return(nil, apiErr)

	summary, err := exporter.Run(context.Background(), child)
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestRunPropagatesDatabaseError(t *testing.T) {
	exporter, mockClient, store, _ := newTestExporter(t, false)

	child := testChild()
	mockClient.On("GetEntries", mock.Anything, child, int64(0)).
		Return([]tinybeans.Entry{photoEntry(101, "uuid-1")}, nil)

	// Closing the archive before the run makes the first save fail
	require.NoError(t, store.Close())

	summary, err := exporter.Run(context.Background(), child)
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Counted)
	assert.Zero(t, summary.Saved)
}

func TestRunRequiresJournal(t *testing.T) {
	exporter, _, _, _ := newTestExporter(t, false)

	tests := []struct {
		name  string
		child *tinybeans.Child
	}{
		{"nil child", nil},
		{"child without journal", &tinybeans.Child{ID: 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := exporter.Run(context.Background(), tt.child)
			require.Error(t, err)
			assert.Nil(t, summary)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestLargestBlob(t *testing.T) {
	tests := []struct {
		name  string
		blobs map[string]string
		want  string
	}{
		{
			name:  "prefers o2 over o",
			blobs: map[string]string{"o": "https://cdn/o.jpg", "o2": "https://cdn/o2.jpg"},
			want:  "https://cdn/o2.jpg",
		},
		{
			name:  "prefers o over thumbnails",
			blobs: map[string]string{"t": "https://cdn/t.jpg", "o": "https://cdn/o.jpg", "s": "https://cdn/s.jpg"},
			want:  "https://cdn/o.jpg",
		},
		{
			name:  "falls back to sorted unknown keys",
			blobs: map[string]string{"z9": "https://cdn/z9.jpg", "a1": "https://cdn/a1.jpg"},
			want:  "https://cdn/a1.jpg",
		},
		{
			name:  "empty map",
			blobs: map[string]string{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, largestBlob(tt.blobs))
		})
	}
}
