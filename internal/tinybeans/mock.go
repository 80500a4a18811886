// mock.go: shared mock client used by exporter tests

package tinybeans

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tphakala/tinybeans-go/internal/objectstore"
)

// MockClient implements Interface for testing
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Login(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClient) LoggedIn() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockClient) User() *User {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*User)
}

func (m *MockClient) GetFollowings(ctx context.Context) ([]Following, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Following), args.Error(1)
}

func (m *MockClient) Children(ctx context.Context) ([]Child, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Child), args.Error(1)
}

func (m *MockClient) GetEntries(ctx context.Context, child *Child, last int64) ([]Entry, error) {
	args := m.Called(ctx, child, last)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entry), args.Error(1)
}

func (m *MockClient) DeleteEntry(ctx context.Context, entry *Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockClient) UploadMedia(ctx context.Context, store objectstore.Uploader, item *MediaItem, index, total int) error {
	args := m.Called(ctx, store, item, index, total)
	return args.Error(0)
}

func (m *MockClient) UploadMedias(ctx context.Context, items []*MediaItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockClient) Close() {
	m.Called()
}

// Compile-time check that the mock satisfies the interface
var _ Interface = (*MockClient)(nil)
