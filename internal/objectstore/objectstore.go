// Package objectstore uploads media to the Tinybeans S3 ingest bucket.
// Credentials are not configured locally, they are acquired by exchanging
// a Cognito identity for a temporary credential set scoped to one batch
// of uploads.
package objectstore

import (
	"context"
	"io"
	"log"
	"log/slog"
	"path/filepath"

	"github.com/tphakala/tinybeans-go/internal/logging"
)

// Package-level logger specific to object storage operations
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "objectstore.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "objectstore", serviceLevelVar)
	if err != nil {
		// Fallback: disable service logging but keep a non-nil logger
		log.Printf("FATAL: Failed to initialize objectstore file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "objectstore")
		closeLogger = func() error { return nil }
	}
}

// IdentityEnvVar names the environment variable carrying the Cognito
// identity ID. The identity is account specific and never stored in the
// configuration file.
const IdentityEnvVar = "IDENTITY_ID"

// Defaults for the production upload pipeline
const (
	DefaultBucket        = "tinybeans-remote-upload-prod"
	DefaultCognitoRegion = "us-east-1"
	DefaultS3Region      = "us-west-2"
	DefaultPartSizeMB    = 5
)

// Config holds configuration options for the object store
type Config struct {
	IdentityID    string // Cognito identity, read from IdentityEnvVar when empty
	Bucket        string // Upload bucket name
	CognitoRegion string // Region of the identity pool
	S3Region      string // Region of the upload bucket
	PartSizeMB    int    // Multipart chunk size in megabytes
}

// DefaultConfig returns a configuration pointing at the production
// upload pipeline. The identity ID must still come from the environment
// or the caller.
func DefaultConfig() Config {
	return Config{
		Bucket:        DefaultBucket,
		CognitoRegion: DefaultCognitoRegion,
		S3Region:      DefaultS3Region,
		PartSizeMB:    DefaultPartSizeMB,
	}
}

// ProgressFunc receives the number of bytes transferred since the
// previous call
type ProgressFunc func(delta int64)

// Uploader is the part of the store upload callers depend on
type Uploader interface {
	Upload(ctx context.Context, key, filePath string, progress ProgressFunc) error
}

// WithClient acquires credentials for cfg and runs fn with a store bound
// to them. It is a convenience for one-off uploads, batch callers should
// build a Provider and reuse it.
func WithClient(ctx context.Context, cfg Config, fn func(store *Store) error) error {
	provider, err := NewProvider(cfg)
	if err != nil {
		return err
	}
	return provider.WithClient(ctx, fn)
}
