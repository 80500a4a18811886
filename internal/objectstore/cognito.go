package objectstore

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tphakala/tinybeans-go/internal/errors"
)

// identityAPI is the part of the Cognito identity service the provider
// uses, narrowed for testing
type identityAPI interface {
	GetCredentialsForIdentity(ctx context.Context, params *cognitoidentity.GetCredentialsForIdentityInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error)
}

// Provider exchanges a Cognito identity for temporary upload credentials.
// The exchange is anonymous, the identity pool hands out credentials to
// anyone holding a valid identity ID.
type Provider struct {
	cfg      Config
	identity identityAPI
}

// NewProvider validates the configuration and prepares the credential
// exchange. An empty identity ID falls back to the IDENTITY_ID
// environment variable.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.IdentityID == "" {
		cfg.IdentityID = os.Getenv(IdentityEnvVar)
	}
	if cfg.IdentityID == "" {
		return nil, errors.Newf("no upload identity configured, set the %s environment variable", IdentityEnvVar).
			Category(errors.CategoryConfiguration).
			Component("objectstore").
			Build()
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultConfig().Bucket
	}
	if cfg.CognitoRegion == "" {
		cfg.CognitoRegion = DefaultConfig().CognitoRegion
	}
	if cfg.S3Region == "" {
		cfg.S3Region = DefaultConfig().S3Region
	}
	if cfg.PartSizeMB <= 0 {
		cfg.PartSizeMB = DefaultConfig().PartSizeMB
	}

	provider := &Provider{
		cfg: cfg,
		identity: cognitoidentity.New(cognitoidentity.Options{
			Region:      cfg.CognitoRegion,
			Credentials: aws.AnonymousCredentials{},
		}),
	}

	logger.Debug("Object store provider initialized",
		"bucket", cfg.Bucket,
		"cognito_region", cfg.CognitoRegion,
		"s3_region", cfg.S3Region,
		"part_size_mb", cfg.PartSizeMB)

	return provider, nil
}

// WithClient exchanges the identity for a temporary credential set and
// runs fn with a store bound to it. The credentials are scoped to this
// call, the next WithClient performs a fresh exchange.
func (p *Provider) WithClient(ctx context.Context, fn func(store *Store) error) error {
	store, err := p.newStore(ctx)
	if err != nil {
		return err
	}
	return fn(store)
}

// newStore performs the credential exchange and builds a store around
// the resulting S3 session
func (p *Provider) newStore(ctx context.Context) (*Store, error) {
	out, err := p.identity.GetCredentialsForIdentity(ctx, &cognitoidentity.GetCredentialsForIdentityInput{
		IdentityId: aws.String(p.cfg.IdentityID),
	})
	if err != nil {
		return nil, errors.Newf("credential exchange failed: %w", err).
			Category(errors.CategoryAuth).
			Context("cognito_region", p.cfg.CognitoRegion).
			Component("objectstore").
			Build()
	}

	creds := out.Credentials
	if creds == nil || creds.AccessKeyId == nil || creds.SecretKey == nil || creds.SessionToken == nil {
		return nil, errors.Newf("credential exchange returned an incomplete credential set").
			Category(errors.CategoryAuth).
			Context("cognito_region", p.cfg.CognitoRegion).
			Component("objectstore").
			Build()
	}

	logger.Debug("Upload credentials acquired",
		"expiration", aws.ToTime(creds.Expiration))

	s3Client := s3.New(s3.Options{
		Region: p.cfg.S3Region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			aws.ToString(creds.AccessKeyId),
			aws.ToString(creds.SecretKey),
			aws.ToString(creds.SessionToken),
		)),
	})

	uploader := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		u.PartSize = int64(p.cfg.PartSizeMB) * 1024 * 1024
	})

	return &Store{
		bucket:   p.cfg.Bucket,
		uploader: uploader,
	}, nil
}
