// Package export archives a child's complete journal history into a local
// SQLite database and a year/month directory tree of media files.
package export

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/datastore"
	"github.com/tphakala/tinybeans-go/internal/errors"
	"github.com/tphakala/tinybeans-go/internal/logging"
	"github.com/tphakala/tinybeans-go/internal/tinybeans"
)

// Package-level logger specific to export operations
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "export.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "export", serviceLevelVar)
	if err != nil {
		// Fallback: disable service logging but keep a non-nil logger
		log.Printf("FATAL: Failed to initialize export file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "export")
		closeLogger = func() error { return nil }
	}
}

// DefaultDownloadTimeout bounds a single media download. Videos can run to
// hundreds of megabytes, so this is far longer than the API timeout.
const DefaultDownloadTimeout = 5 * time.Minute

// blobPreference orders blob keys from full resolution down to thumbnail.
var blobPreference = []string{"o2", "o", "l", "p", "s", "t"}

// Summary reports what a single export run did.
type Summary struct {
	Counted    int // entries returned by the API
	Saved      int // entries upserted into the archive database
	Downloaded int // media files fetched from the CDN
	Skipped    int // media files already present on disk
	Failed     int // media downloads that errored
}

// Exporter archives the journal of one child per run. The archive database
// must be opened by the caller before Run and closed after.
type Exporter struct {
	settings   *conf.Settings
	client     tinybeans.Interface
	store      datastore.Interface
	httpClient *http.Client
}

// New creates an exporter backed by the given API client and archive store.
func New(settings *conf.Settings, client tinybeans.Interface, store datastore.Interface) *Exporter {
	return &Exporter{
		settings:   settings,
		client:     client,
		store:      store,
		httpClient: &http.Client{Timeout: DefaultDownloadTimeout},
	}
}

// Close releases the exporter's resources.
func (ex *Exporter) Close() {
	ex.httpClient.CloseIdleConnections()
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Failed to close export logger: %v", err)
		}
	}
}

// Run fetches the complete entry history of a child and records every entry
// in the archive database. When media download is enabled each entry's media
// files are fetched into <export.path>/<year>/<month>/, skipping files that
// already exist on disk, so re-runs only transfer what is new.
func (ex *Exporter) Run(ctx context.Context, child *tinybeans.Child) (*Summary, error) {
	if child == nil || child.JournalID == 0 {
		return nil, errors.Newf("child with a journal is required for export").
			Component("export").
			Category(errors.CategoryValidation).
			Context("operation", "run_export").
			Build()
	}

	logger.Info("Starting journal export",
		"child", child.Name(),
		"journal_id", child.JournalID,
		"media", ex.settings.Export.Media)

	entries, err := ex.client.GetEntries(ctx, child, 0)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Counted: len(entries)}
	basePath := conf.GetBasePath(ex.settings.Export.Path)

	for i := range entries {
		entry := &entries[i]

		if err := ex.store.SaveEntry(newArchivedEntry(entry)); err != nil {
			fmt.Println()
			return summary, err
		}
		summary.Saved++

		if ex.settings.Export.Media {
			ex.fetchMedia(ctx, entry, basePath, summary)
		}

		fmt.Printf("\r📥 Archiving entries: %d/%d", i+1, len(entries))
	}
	if len(entries) > 0 {
		fmt.Println()
	}

	logger.Info("Journal export finished",
		"journal_id", child.JournalID,
		"counted", summary.Counted,
		"saved", summary.Saved,
		"downloaded", summary.Downloaded,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	return summary, nil
}

// newArchivedEntry maps an API entry onto the archive model.
func newArchivedEntry(entry *tinybeans.Entry) *datastore.ArchivedEntry {
	record := &datastore.ArchivedEntry{
		UUID:      entry.UUID,
		EntryID:   entry.ID,
		JournalID: entry.JournalID,
		Type:      entry.Type,
		Caption:   entry.Caption,
		Latitude:  entry.Latitude,
		Longitude: entry.Longitude,
		Timestamp: entry.Timestamp,
		Deleted:   entry.Deleted,
		BlobURL:   largestBlob(entry.Blobs),
		VideoURL:  entry.VideoURL,
	}
	for _, comment := range entry.Comments {
		record.Comments = append(record.Comments, datastore.ArchivedComment{
			CommentID:  comment.ID,
			Text:       comment.Text,
			AuthorID:   comment.User.ID,
			AuthorName: comment.User.Username,
		})
	}
	for _, emotion := range entry.Emotions {
		record.Emotions = append(record.Emotions, datastore.ArchivedEmotion{
			EmotionID: emotion.ID,
			UserID:    emotion.UserID,
			Type:      emotion.Type,
		})
	}
	return record
}

// largestBlob picks the fullest resolution blob URL an entry offers.
func largestBlob(blobs map[string]string) string {
	for _, key := range blobPreference {
		if blobs[key] != "" {
			return blobs[key]
		}
	}

	// Only unknown keys present, fall back to the first in sorted order
	keys := make([]string, 0, len(blobs))
	for key := range blobs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if blobs[key] != "" {
			return blobs[key]
		}
	}
	return ""
}

// mediaTarget is a single remote file to mirror into the archive tree.
type mediaTarget struct {
	url     string
	path    string
	primary bool // recorded as the entry's local media path
}

// mediaTargets lists the files to fetch for an entry. Photos resolve to the
// largest blob, videos to the mp4 attachment plus the blob poster frame.
// Text entries carry no media.
func mediaTargets(entry *tinybeans.Entry, basePath string) []mediaTarget {
	when := entry.Time()
	dir := filepath.Join(basePath, strconv.Itoa(when.Year()), fmt.Sprintf("%02d", int(when.Month())))

	blobURL := largestBlob(entry.Blobs)

	var targets []mediaTarget
	switch entry.Type {
	case tinybeans.EntryTypeVideo:
		if entry.VideoURL != "" {
			targets = append(targets, mediaTarget{
				url:     entry.VideoURL,
				path:    filepath.Join(dir, entry.UUID+".mp4"),
				primary: true,
			})
		}
		if blobURL != "" {
			targets = append(targets, mediaTarget{
				url:  blobURL,
				path: filepath.Join(dir, entry.UUID+remoteExt(blobURL)),
			})
		}
	case tinybeans.EntryTypePhoto:
		if blobURL != "" {
			targets = append(targets, mediaTarget{
				url:     blobURL,
				path:    filepath.Join(dir, entry.UUID+remoteExt(blobURL)),
				primary: true,
			})
		}
	}
	return targets
}

// remoteExt extracts the file extension from a media URL, ignoring query parameters.
func remoteExt(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return filepath.Ext(rawURL)
	}
	return filepath.Ext(parsed.Path)
}

// fetchMedia mirrors the media files of one entry onto disk. Download
// failures are logged and counted but never stop the run.
func (ex *Exporter) fetchMedia(ctx context.Context, entry *tinybeans.Entry, basePath string, summary *Summary) {
	for _, target := range mediaTargets(entry, basePath) {
		if _, err := os.Stat(target.path); err == nil {
			summary.Skipped++
		} else {
			if err := ex.download(ctx, target.url, target.path); err != nil {
				logger.Warn("Media download failed",
					"entry_uuid", entry.UUID,
					"url", target.url,
					"error", err)
				summary.Failed++
				continue
			}
			summary.Downloaded++
		}

		if target.primary {
			if err := ex.store.SetLocalPath(entry.UUID, target.path); err != nil {
				logger.Warn("Failed to record media path",
					"entry_uuid", entry.UUID,
					"path", target.path,
					"error", err)
			}
		}
	}
}

// download fetches a single media file to disk, removing partial files on failure.
func (ex *Exporter) download(ctx context.Context, mediaURL, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "create_media_dir").
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, http.NoBody)
	if err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryValidation).
			Context("operation", "build_download_request").
			Build()
	}

	resp, err := ex.httpClient.Do(req)
	if err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryNetwork).
			Context("operation", "download_media").
			NetworkContext(mediaURL, ex.httpClient.Timeout).
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close download body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("media download failed with status %d", resp.StatusCode).
			Component("export").
			Category(errors.CategoryNetwork).
			Context("operation", "download_media").
			Context("status_code", resp.StatusCode).
			Build()
	}

	out, err := os.Create(destPath)
	if err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "create_media_file").
			FileContext(destPath, 0).
			Build()
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(destPath) // drop the partial file
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "write_media_file").
			FileContext(destPath, 0).
			Build()
	}
	if err := out.Close(); err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "close_media_file").
			FileContext(destPath, 0).
			Build()
	}

	logger.Debug("Downloaded media file", "url", mediaURL, "path", destPath)
	return nil
}
