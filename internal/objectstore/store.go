package objectstore

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tphakala/tinybeans-go/internal/errors"
)

// uploadAPI is the part of the S3 transfer manager the store uses,
// narrowed for testing
type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Store uploads objects under one temporary credential set
type Store struct {
	bucket   string
	uploader uploadAPI
}

// Bucket returns the bucket this store writes to.
func (s *Store) Bucket() string {
	return s.bucket
}

// Upload streams a local file to the bucket under key, reporting
// transferred bytes through progress when it is non-nil.
func (s *Store) Upload(ctx context.Context, key, filePath string, progress ProgressFunc) error {
	f, err := os.Open(filePath)
	if err != nil {
		return errors.Newf("cannot open media file: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(filePath, 0).
			Component("objectstore").
			Build()
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Debug("Failed to close media file", "file", filePath, "error", err)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return errors.Newf("cannot stat media file: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(filePath, 0).
			Component("objectstore").
			Build()
	}

	var body io.Reader = f
	if progress != nil {
		body = &progressReader{reader: f, progress: progress}
	}

	start := time.Now()
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return errors.Newf("upload to bucket %s failed: %w", s.bucket, err).
			Category(errors.CategoryObjectStore).
			Context("bucket", s.bucket).
			Context("key", key).
			FileContext(filePath, info.Size()).
			Component("objectstore").
			Build()
	}

	logger.Debug("Object uploaded",
		"bucket", s.bucket,
		"key", key,
		"size_bytes", info.Size(),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// progressReader counts bytes as the transfer manager drains the file
type progressReader struct {
	reader   io.Reader
	progress ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.progress(int64(n))
	}
	return n, err
}

// Compile-time check that Store satisfies the uploader contract
var _ Uploader = (*Store)(nil)
