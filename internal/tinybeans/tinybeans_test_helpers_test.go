package tinybeans

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

// setupHTTPMock activates httpmock and returns a cleanup function.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

// newTestClient creates a client with test credentials and configurable options.
func newTestClient(t *testing.T, opts ...func(*Config)) *Client {
	t.Helper()

	config := DefaultConfig()
	config.Username = "parent@example.com"
	config.Password = "hunter2"
	config.Timeout = 5 * time.Second
	config.CacheTTL = time.Minute

	for _, opt := range opts {
		opt(&config)
	}

	client, err := New(config)
	require.NoError(t, err)

	return client
}

// authSuccessResponse returns a valid authenticate response JSON string.
func authSuccessResponse() string {
	return `{
  "status": "ok",
  "accessToken": "test-session-token",
  "user": {
    "id": 9001,
    "emailAddress": "parent@example.com",
    "firstName": "Pat",
    "lastName": "Parent",
    "username": "patparent"
  }
}`
}

// followingsSuccessResponse returns a followings response with two
// journals and three children.
func followingsSuccessResponse() string {
	return `{
  "status": "ok",
  "followings": [
    {
      "id": 501,
      "URL": "https://tinybeans.com/main/journal/1572712",
      "relationship": {"name": "PARENT", "label": "Parent"},
      "journal": {
        "id": 1572712,
        "title": "Our Family",
        "children": [
          {"id": 11, "firstName": "Alice", "lastName": "Example", "gender": "FEMALE", "dob": "2019-03-14"},
          {"id": 12, "firstName": "Ben", "lastName": "Example", "gender": "MALE", "dob": "2021-11-02"}
        ]
      }
    },
    {
      "id": 502,
      "URL": "https://tinybeans.com/main/journal/2000001",
      "relationship": {"name": "AUNT_UNCLE", "label": "Aunt"},
      "journal": {
        "id": 2000001,
        "title": "Cousins",
        "children": [
          {"id": 21, "firstName": "Cleo", "lastName": "Cousin", "gender": "FEMALE", "dob": "2020-07-21"}
        ]
      }
    }
  ]
}`
}

// photoEntryJSON builds a photo entry payload with the given identity,
// timestamp and deletion flag.
func photoEntryJSON(id, ts int64, deleted bool) string {
	return fmt.Sprintf(`{
  "id": %d,
  "uuid": "uuid-%d",
  "type": "PHOTO",
  "deleted": %t,
  "caption": "caption %d",
  "timestamp": %d,
  "blobs": {"o": "https://tinybeans.com/pv/e/%d/o.jpg", "p": "https://tinybeans.com/pv/e/%d/p.jpg"}
}`, id, id, deleted, id, ts, id, id)
}

// entriesPageJSON builds one page of the entries listing.
func entriesPageJSON(remaining int, entries ...string) string {
	return fmt.Sprintf(`{"status": "ok", "numEntriesRemaining": %d, "entries": [%s]}`,
		remaining, strings.Join(entries, ","))
}

// registerAuthResponder registers a mock responder for the authenticate endpoint.
func registerAuthResponder(t *testing.T, statusCode int, body string) {
	t.Helper()

	httpmock.RegisterResponder("POST", `=~^https://tinybeans\.com/api/1/authenticate`,
		httpmock.NewStringResponder(statusCode, body))
}

// registerFollowingsResponder registers a mock responder for the followings endpoint.
func registerFollowingsResponder(t *testing.T, statusCode int, body string) {
	t.Helper()

	httpmock.RegisterResponder("GET", `=~^https://tinybeans\.com/api/1/followings`,
		httpmock.NewStringResponder(statusCode, body))
}

// entriesRecorder captures the cursor of every entries listing request.
type entriesRecorder struct {
	lasts []string
	calls int
}

// registerEntriesResponder serves the given pages in order, repeating
// the final page, and records the cursor of each request.
func registerEntriesResponder(t *testing.T, journalID int64, pages []string) *entriesRecorder {
	t.Helper()

	rec := &entriesRecorder{}
	pattern := fmt.Sprintf(`=~^https://tinybeans\.com/api/1/journals/%d/entries`, journalID)
	httpmock.RegisterResponder("GET", pattern,
		func(req *http.Request) (*http.Response, error) {
			rec.lasts = append(rec.lasts, req.URL.Query().Get("last"))
			page := rec.calls
			if page >= len(pages) {
				page = len(pages) - 1
			}
			rec.calls++
			return httpmock.NewStringResponse(http.StatusOK, pages[page]), nil
		})
	return rec
}
