package tinybeans

import (
	"context"

	"github.com/tphakala/tinybeans-go/internal/objectstore"
)

// Interface defines what methods a Tinybeans client must have
type Interface interface {
	Login(ctx context.Context) error
	LoggedIn() bool
	User() *User
	GetFollowings(ctx context.Context) ([]Following, error)
	Children(ctx context.Context) ([]Child, error)
	GetEntries(ctx context.Context, child *Child, last int64) ([]Entry, error)
	DeleteEntry(ctx context.Context, entry *Entry) error
	UploadMedia(ctx context.Context, store objectstore.Uploader, item *MediaItem, index, total int) error
	UploadMedias(ctx context.Context, items []*MediaItem) error
	Close()
}

// Compile-time check that Client satisfies the interface
var _ Interface = (*Client)(nil)
