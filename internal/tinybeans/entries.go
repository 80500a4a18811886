package tinybeans

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tphakala/tinybeans-go/internal/errors"
)

// maxEntryPages bounds the pagination loop. A server that keeps
// reporting remaining entries, or a cursor that stops moving, must not
// spin the client forever.
const maxEntryPages = 1000

// GetEntries retrieves the entry history of a child's journal, paging
// backwards in time from the last cursor. A zero or negative last starts
// from the current time. Entries flagged deleted are dropped unless the
// client is configured to include them.
//
// The cursor protocol pages from newest to oldest: each response reports
// how many entries remain and the next request passes the timestamp of
// the first entry of the page just received.
func (c *Client) GetEntries(ctx context.Context, child *Child, last int64) ([]Entry, error) {
	if child == nil || child.JournalID == 0 {
		return nil, errors.Newf("a child with a journal is required to list entries").
			Category(errors.CategoryValidation).
			Component("tinybeans").
			Build()
	}

	if last <= 0 {
		last = time.Now().UnixMilli()
	}

	path := fmt.Sprintf("journals/%d/entries", child.JournalID)

	var fetched []Entry
	cursor := last
	page := 0
	for ; page < maxEntryPages; page++ {
		query := url.Values{}
		query.Set("clientId", ClientID)
		query.Set("fetchSize", strconv.Itoa(c.config.FetchSize))
		query.Set("last", strconv.FormatInt(cursor, 10))

		// Apply timeout per page request
		reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		var result entriesPage
		err := c.doRequest(reqCtx, http.MethodGet, path, query, nil, &result)
		cancel()
		if err != nil {
			if errors.IsCategory(err, errors.CategoryJSONParsing) {
				// A page that does not decode cannot advance the cursor.
				// Keep what was collected so far.
				logger.Warn("Stopping entry pagination on malformed page",
					"journal_id", child.JournalID,
					"page", page,
					"error", err)
				break
			}
			return nil, err
		}

		// The API omits the journal ID from nested entry payloads
		for i := range result.Entries {
			if result.Entries[i].JournalID == 0 {
				result.Entries[i].JournalID = child.JournalID
			}
		}
		fetched = append(fetched, result.Entries...)

		if c.debug {
			logger.Debug("Fetched entry page",
				"journal_id", child.JournalID,
				"page", page,
				"entries", len(result.Entries),
				"entries_remaining", result.NumEntriesRemaining,
				"cursor", cursor)
		}

		if result.NumEntriesRemaining <= 0 {
			break
		}
		if len(result.Entries) == 0 {
			// The server claims more entries but returned none, the
			// cursor cannot advance
			logger.Warn("Stopping entry pagination on empty page",
				"journal_id", child.JournalID,
				"page", page,
				"entries_remaining", result.NumEntriesRemaining)
			break
		}
		cursor = result.Entries[0].Timestamp
	}
	if page == maxEntryPages {
		logger.Warn("Entry pagination reached the page limit",
			"journal_id", child.JournalID,
			"pages", page,
			"entries", len(fetched))
	}

	kept := make([]Entry, 0, len(fetched))
	for i := range fetched {
		if fetched[i].Deleted && !c.config.IncludeDeleted {
			continue
		}
		kept = append(kept, fetched[i])
	}

	logger.Debug("Entry listing complete",
		"journal_id", child.JournalID,
		"fetched", len(fetched),
		"returned", len(kept))

	return kept, nil
}

// DeleteEntry flags an entry as deleted in its journal. The call is fire
// and forget, the response status is logged but not interpreted, which
// matches how the official apps treat this endpoint.
func (c *Client) DeleteEntry(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.JournalID == 0 {
		return errors.Newf("an entry with a journal is required for deletion").
			Category(errors.CategoryValidation).
			Component("tinybeans").
			Build()
	}

	logger.Info("Deleting entry",
		"entry_id", entry.ID,
		"journal_id", entry.JournalID,
		"type", entry.Type)

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	path := fmt.Sprintf("journals/%d/entries/%d", entry.JournalID, entry.ID)
	resp, err := c.send(reqCtx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			// Log error but don't propagate it
			_ = err
		}
	}()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.Debug("Delete entry response",
		"entry_id", entry.ID,
		"status_code", resp.StatusCode)

	return nil
}
