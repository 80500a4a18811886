package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentity/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tinybeans-go/internal/errors"
)

// fakeIdentityAPI stands in for the Cognito identity service
type fakeIdentityAPI struct {
	out   *cognitoidentity.GetCredentialsForIdentityOutput
	err   error
	calls int
}

func (f *fakeIdentityAPI) GetCredentialsForIdentity(_ context.Context, _ *cognitoidentity.GetCredentialsForIdentityInput, _ ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

// fakeUploadAPI stands in for the S3 transfer manager
type fakeUploadAPI struct {
	input     *s3.PutObjectInput
	err       error
	bytesRead int64
}

func (f *fakeUploadAPI) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	n, err := io.Copy(io.Discard, input.Body)
	if err != nil {
		return nil, err
	}
	f.bytesRead = n
	return &manager.UploadOutput{}, nil
}

func validCredentials() *cognitoidentity.GetCredentialsForIdentityOutput {
	expiration := time.Now().Add(time.Hour)
	return &cognitoidentity.GetCredentialsForIdentityOutput{
		Credentials: &cognitotypes.Credentials{
			AccessKeyId:  aws.String("ASIATEST"),
			SecretKey:    aws.String("secret"),
			SessionToken: aws.String("token"),
			Expiration:   &expiration,
		},
	}
}

// writeTempFile creates a file with the given content and returns its path
func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestNewProviderRequiresIdentity(t *testing.T) {
	t.Setenv(IdentityEnvVar, "")

	_, err := NewProvider(Config{})

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.Contains(t, err.Error(), IdentityEnvVar)
}

func TestNewProviderReadsIdentityFromEnvironment(t *testing.T) {
	t.Setenv(IdentityEnvVar, "us-east-1:12345678-abcd-abcd-abcd-123456789012")

	provider, err := NewProvider(Config{})

	require.NoError(t, err)
	require.NotNil(t, provider)
}

func TestWithClientAppliesDefaults(t *testing.T) {
	provider, err := NewProvider(Config{IdentityID: "us-east-1:test-identity"})
	require.NoError(t, err)

	fake := &fakeIdentityAPI{out: validCredentials()}
	provider.identity = fake

	var seenBucket string
	err = provider.WithClient(context.Background(), func(store *Store) error {
		seenBucket = store.Bucket()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, DefaultBucket, seenBucket)
}

func TestWithClientExchangesPerCall(t *testing.T) {
	provider, err := NewProvider(Config{IdentityID: "us-east-1:test-identity", Bucket: "custom-bucket"})
	require.NoError(t, err)

	fake := &fakeIdentityAPI{out: validCredentials()}
	provider.identity = fake

	for i := 0; i < 3; i++ {
		err = provider.WithClient(context.Background(), func(store *Store) error {
			assert.Equal(t, "custom-bucket", store.Bucket())
			return nil
		})
		require.NoError(t, err)
	}

	// Credentials are never cached across scopes
	assert.Equal(t, 3, fake.calls)
}

func TestWithClientExchangeFailure(t *testing.T) {
	provider, err := NewProvider(Config{IdentityID: "us-east-1:test-identity"})
	require.NoError(t, err)

	provider.identity = &fakeIdentityAPI{err: errors.NewStd("NotAuthorizedException")}

	called := false
	err = provider.WithClient(context.Background(), func(store *Store) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called, "fn must not run without credentials")
	assert.True(t, errors.IsCategory(err, errors.CategoryAuth))
}

func TestWithClientIncompleteCredentials(t *testing.T) {
	provider, err := NewProvider(Config{IdentityID: "us-east-1:test-identity"})
	require.NoError(t, err)

	out := validCredentials()
	out.Credentials.SecretKey = nil
	provider.identity = &fakeIdentityAPI{out: out}

	err = provider.WithClient(context.Background(), func(store *Store) error { return nil })

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAuth))
}

func TestStoreUpload(t *testing.T) {
	content := []byte("not really a jpeg but long enough to read in chunks")
	path := writeTempFile(t, "photo.jpg", content)

	fake := &fakeUploadAPI{}
	store := &Store{bucket: "upload-bucket", uploader: fake}

	var reported int64
	err := store.Upload(context.Background(), "ABC123.jpg", path, func(delta int64) {
		reported += delta
	})

	require.NoError(t, err)
	require.NotNil(t, fake.input)
	assert.Equal(t, "upload-bucket", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "ABC123.jpg", aws.ToString(fake.input.Key))
	assert.Equal(t, int64(len(content)), fake.bytesRead)
	assert.Equal(t, int64(len(content)), reported, "progress must account for every byte")
}

func TestStoreUploadNilProgress(t *testing.T) {
	path := writeTempFile(t, "clip.mp4", []byte("mp4 bytes"))

	fake := &fakeUploadAPI{}
	store := &Store{bucket: "upload-bucket", uploader: fake}

	err := store.Upload(context.Background(), "DEF456.mp4", path, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(len("mp4 bytes")), fake.bytesRead)
}

func TestStoreUploadMissingFile(t *testing.T) {
	fake := &fakeUploadAPI{}
	store := &Store{bucket: "upload-bucket", uploader: fake}

	err := store.Upload(context.Background(), "GHI789.jpg", filepath.Join(t.TempDir(), "missing.jpg"), nil)

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	assert.Nil(t, fake.input, "no upload may start for an unreadable file")
}

func TestStoreUploadFailure(t *testing.T) {
	path := writeTempFile(t, "photo.jpg", []byte("data"))

	fake := &fakeUploadAPI{err: errors.NewStd("AccessDenied")}
	store := &Store{bucket: "upload-bucket", uploader: fake}

	err := store.Upload(context.Background(), "JKL012.jpg", path, nil)

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryObjectStore))
	assert.Contains(t, err.Error(), "upload-bucket")
}
