package tinybeans

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tinybeans-go/internal/errors"
)

func testChild() *Child {
	return &Child{ID: 11, FirstName: "Alice", LastName: "Example", JournalID: 77}
}

func TestGetEntriesPaginates(t *testing.T) {
	setupHTTPMock(t)

	// Three pages: the first two report more entries remaining, the
	// third closes the listing. The next cursor is always the timestamp
	// of the first entry of the page just received.
	pages := []string{
		entriesPageJSON(3, photoEntryJSON(101, 4000, false), photoEntryJSON(102, 4500, false)),
		entriesPageJSON(1, photoEntryJSON(103, 3000, false), photoEntryJSON(104, 3500, false)),
		entriesPageJSON(0, photoEntryJSON(105, 2000, false)),
	}
	rec := registerEntriesResponder(t, 77, pages)

	client := newTestClient(t, func(c *Config) { c.FetchSize = 2 })
	entries, err := client.GetEntries(context.Background(), testChild(), 5000)

	require.NoError(t, err)
	assert.Equal(t, 3, rec.calls)
	assert.Equal(t, []string{"5000", "4000", "3000"}, rec.lasts)

	require.Len(t, entries, 5)
	ids := make([]int64, 0, len(entries))
	for i := range entries {
		ids = append(ids, entries[i].ID)
	}
	assert.Equal(t, []int64{101, 102, 103, 104, 105}, ids)

	// Every entry carries the journal it came from
	for i := range entries {
		assert.Equal(t, int64(77), entries[i].JournalID)
	}
}

func TestGetEntriesSinglePage(t *testing.T) {
	setupHTTPMock(t)

	pages := []string{entriesPageJSON(0, photoEntryJSON(101, 4000, false))}
	rec := registerEntriesResponder(t, 77, pages)

	client := newTestClient(t)
	entries, err := client.GetEntries(context.Background(), testChild(), 5000)

	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
	assert.Len(t, entries, 1)
}

func TestGetEntriesSendsFetchParameters(t *testing.T) {
	setupHTTPMock(t)

	var clientID, fetchSize string
	httpmock.RegisterResponder("GET", `=~^https://tinybeans\.com/api/1/journals/77/entries`,
		func(req *http.Request) (*http.Response, error) {
			clientID = req.URL.Query().Get("clientId")
			fetchSize = req.URL.Query().Get("fetchSize")
			return httpmock.NewStringResponse(http.StatusOK, entriesPageJSON(0)), nil
		})

	client := newTestClient(t, func(c *Config) { c.FetchSize = 25 })
	_, err := client.GetEntries(context.Background(), testChild(), 5000)

	require.NoError(t, err)
	assert.Equal(t, ClientID, clientID)
	assert.Equal(t, "25", fetchSize)
}

func TestGetEntriesDefaultCursorIsNow(t *testing.T) {
	setupHTTPMock(t)

	pages := []string{entriesPageJSON(0)}
	rec := registerEntriesResponder(t, 77, pages)

	before := time.Now().UnixMilli()
	client := newTestClient(t)
	_, err := client.GetEntries(context.Background(), testChild(), 0)
	after := time.Now().UnixMilli()

	require.NoError(t, err)
	require.Len(t, rec.lasts, 1)

	cursor, err := strconv.ParseInt(rec.lasts[0], 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cursor, before)
	assert.LessOrEqual(t, cursor, after)
}

func TestGetEntriesFiltersDeleted(t *testing.T) {
	setupHTTPMock(t)

	pages := []string{entriesPageJSON(0,
		photoEntryJSON(101, 4000, false),
		photoEntryJSON(102, 3900, true),
		photoEntryJSON(103, 3800, false),
	)}
	registerEntriesResponder(t, 77, pages)

	client := newTestClient(t)
	entries, err := client.GetEntries(context.Background(), testChild(), 5000)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(101), entries[0].ID)
	assert.Equal(t, int64(103), entries[1].ID)
}

func TestGetEntriesIncludesDeletedWhenConfigured(t *testing.T) {
	setupHTTPMock(t)

	pages := []string{entriesPageJSON(0,
		photoEntryJSON(101, 4000, false),
		photoEntryJSON(102, 3900, true),
	)}
	registerEntriesResponder(t, 77, pages)

	client := newTestClient(t, func(c *Config) { c.IncludeDeleted = true })
	entries, err := client.GetEntries(context.Background(), testChild(), 5000)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[1].Deleted)
}

func TestGetEntriesStopsOnEmptyPage(t *testing.T) {
	setupHTTPMock(t)

	// The server claims entries remain but the page is empty, the
	// cursor cannot advance and the loop must stop
	pages := []string{entriesPageJSON(10)}
	rec := registerEntriesResponder(t, 77, pages)

	client := newTestClient(t)
	entries, err := client.GetEntries(context.Background(), testChild(), 5000)

	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
	assert.Empty(t, entries)
}

func TestGetEntriesKeepsCollectedOnMalformedPage(t *testing.T) {
	setupHTTPMock(t)

	pages := []string{
		entriesPageJSON(5, photoEntryJSON(101, 4000, false), photoEntryJSON(102, 4500, false)),
		`{invalid json`,
	}
	rec := registerEntriesResponder(t, 77, pages)

	client := newTestClient(t)
	entries, err := client.GetEntries(context.Background(), testChild(), 5000)

	require.NoError(t, err)
	assert.Equal(t, 2, rec.calls)
	assert.Len(t, entries, 2, "entries fetched before the malformed page survive")
}

func TestGetEntriesHTTPErrorPropagates(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder("GET", `=~^https://tinybeans\.com/api/1/journals/77/entries`,
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"status": "error"}`))

	client := newTestClient(t)
	entries, err := client.GetEntries(context.Background(), testChild(), 5000)

	require.Error(t, err)
	assert.Nil(t, entries)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestGetEntriesRequiresJournal(t *testing.T) {
	client := newTestClient(t)

	tests := []struct {
		name  string
		child *Child
	}{
		{"nil child", nil},
		{"no journal", &Child{ID: 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetEntries(context.Background(), tt.child, 0)

			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestDeleteEntry(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("DELETE", "https://tinybeans.com/api/1/journals/77/entries/321",
		httpmock.NewStringResponder(http.StatusOK, `{"status": "ok"}`))

	client := newTestClient(t)
	entry := &Entry{ID: 321, JournalID: 77, Type: EntryTypePhoto}

	require.NoError(t, client.DeleteEntry(context.Background(), entry))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestDeleteEntryIgnoresServerStatus(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("DELETE", "https://tinybeans.com/api/1/journals/77/entries/321",
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"status": "error"}`))

	client := newTestClient(t)
	entry := &Entry{ID: 321, JournalID: 77}

	// The endpoint is fire and forget, server side failures are not surfaced
	require.NoError(t, client.DeleteEntry(context.Background(), entry))
}

func TestDeleteEntryTransportFailure(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("DELETE", "https://tinybeans.com/api/1/journals/77/entries/321",
		httpmock.NewErrorResponder(errors.NewStd("connection refused")))

	client := newTestClient(t)
	entry := &Entry{ID: 321, JournalID: 77}

	err := client.DeleteEntry(context.Background(), entry)

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestDeleteEntryRequiresJournal(t *testing.T) {
	client := newTestClient(t)

	tests := []struct {
		name  string
		entry *Entry
	}{
		{"nil entry", nil},
		{"no journal", &Entry{ID: 321}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.DeleteEntry(context.Background(), tt.entry)

			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}
