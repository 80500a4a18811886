package tinybeans

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/errors"
	"github.com/tphakala/tinybeans-go/internal/objectstore"
)

// newUploadID generates the name stem for a remote media object.
// Uppercase matches the object names the official apps produce.
// Variable so tests can pin the value.
var newUploadID = func() string {
	return strings.ToUpper(uuid.New().String())
}

// uploadKey builds the object storage key for a local file. The file
// extension is preserved so the service can detect the media type, a
// file without an extension gets a bare identifier.
func uploadKey(filePath string) string {
	id := newUploadID()
	ext := filepath.Ext(filePath)
	if ext == "" {
		return id
	}
	return id + ext
}

// childIDs extracts the IDs for an entry registration payload
func childIDs(children []Child) []int64 {
	ids := make([]int64, 0, len(children))
	for i := range children {
		ids = append(ids, children[i].ID)
	}
	return ids
}

// defaultUploadScope exchanges the configured identity for object
// storage credentials and runs fn with a store bound to them
func defaultUploadScope(ctx context.Context, fn func(store objectstore.Uploader) error) error {
	cfg := objectstore.DefaultConfig()
	if settings := conf.GetSettings(); settings != nil {
		up := &settings.Upload
		if up.Bucket != "" {
			cfg.Bucket = up.Bucket
		}
		if up.CognitoRegion != "" {
			cfg.CognitoRegion = up.CognitoRegion
		}
		if up.S3Region != "" {
			cfg.S3Region = up.S3Region
		}
		if up.PartSizeMB > 0 {
			cfg.PartSizeMB = up.PartSizeMB
		}
	}

	return objectstore.WithClient(ctx, cfg, func(store *objectstore.Store) error {
		return fn(store)
	})
}

// UploadMedia pushes one media file to object storage and registers it
// as a journal entry dated by the item. The journal is taken from the
// item's first child. index and total describe the position within a
// batch and only affect progress reporting, a single upload passes 0
// and 1.
//
// A storage failure is logged and the registration is still attempted,
// the service shows a placeholder until the media arrives or the entry
// is retried. A registration failure is returned to the caller.
func (c *Client) UploadMedia(ctx context.Context, store objectstore.Uploader, item *MediaItem, index, total int) error {
	if item == nil || len(item.Children) == 0 {
		return errors.Newf("a media item with at least one child is required").
			Category(errors.CategoryValidation).
			Component("tinybeans").
			Build()
	}

	journalID := item.Children[0].JournalID
	if journalID == 0 {
		return errors.Newf("media item children carry no journal").
			Category(errors.CategoryValidation).
			Context("file", item.File).
			Component("tinybeans").
			Build()
	}

	// A file that cannot be read is fatal before any network traffic
	info, err := os.Stat(item.File)
	if err != nil {
		return errors.Newf("cannot stat media file: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(item.File, 0).
			Component("tinybeans").
			Build()
	}
	fileSize := info.Size()

	key := uploadKey(item.File)

	logger.Info("Uploading media",
		"file", item.File,
		"key", key,
		"size_bytes", fileSize,
		"journal_id", journalID,
		"item", index+1,
		"total", total)

	var uploaded int64
	progress := func(delta int64) {
		uploaded += delta
		if fileSize > 0 {
			fmt.Printf("\r%.2f%%", float64(uploaded)/float64(fileSize)*100)
		}
	}

	doUpload := func(s objectstore.Uploader) error {
		return s.Upload(ctx, key, item.File, progress)
	}

	if store != nil {
		err = doUpload(store)
	} else {
		// No shared batch scope, acquire credentials for this one file
		err = c.uploadScope(ctx, doUpload)
	}
	fmt.Println()
	if err != nil {
		// The entry is registered regardless, the service reconciles
		// uploads that never arrived
		logger.Error("Media upload failed",
			"file", item.File,
			"key", key,
			"error", err)
	}

	if total > 0 {
		logger.Info("Media upload finished",
			"item", index+1,
			"total", total,
			"progress_percent", fmt.Sprintf("%.2f", float64(index+1)/float64(total)*100))
	}

	payload := map[string]any{
		"day":            item.Day,
		"month":          item.Month,
		"year":           item.Year,
		"children":       childIDs(item.Children),
		"caption":        "",
		"remoteFileName": key,
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	path := fmt.Sprintf("journals/%d/entries", journalID)
	if err := c.doRequest(reqCtx, http.MethodPost, path, nil, payload, nil); err != nil {
		return err
	}

	logger.Info("Registered media entry",
		"journal_id", journalID,
		"remote_file_name", key)

	return nil
}

// UploadMedias publishes a batch of media files under a single storage
// credential scope, registering each one in order. The batch stops at
// the first registration failure.
func (c *Client) UploadMedias(ctx context.Context, items []*MediaItem) error {
	if len(items) == 0 {
		return nil
	}

	return c.uploadScope(ctx, func(store objectstore.Uploader) error {
		for i, item := range items {
			if err := c.UploadMedia(ctx, store, item, i, len(items)); err != nil {
				return err
			}
		}
		return nil
	})
}
