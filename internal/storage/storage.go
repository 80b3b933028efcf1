// Package storage abstracts "a place to put a file". The backend is chosen
// once at boot from configuration; callers only ever see the Target
// interface and never branch on which backend is live.
package storage

import (
	"context"
	"errors"
	"io"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/newslyhq/newsly/config"
	"github.com/newslyhq/newsly/internal/validator"
)

// ErrNotFound is returned by Delete when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Target is an abstract storage destination. Put stores the contents of r
// under key and returns a URL the object can be fetched from. Delete removes
// the object, returning ErrNotFound if it does not exist. Connectivity and
// credential problems surface here, on first use, never at resolution time.
type Target interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Resolve chooses the storage backend from configuration. With USE_S3 off it
// returns a local-filesystem target rooted at MEDIA_ROOT and the AWS settings
// are ignored entirely. With USE_S3 on, every AWS setting must be non-empty;
// missing ones are reported together in a single *config.Error. No network
// I/O happens here — credential validity is discovered on first use.
func Resolve(cfg config.Config) (Target, error) {
	if !cfg.Storage.UseS3 {
		return NewLocal(cfg.Storage.MediaRoot, cfg.Storage.MediaURL), nil
	}

	v := validator.New()
	v.Check(cfg.Storage.AccessKeyID != "", "AWS_ACCESS_KEY_ID", "must be set when USE_S3 is enabled")
	v.Check(cfg.Storage.SecretAccessKey != "", "AWS_SECRET_ACCESS_KEY", "must be set when USE_S3 is enabled")
	v.Check(cfg.Storage.Bucket != "", "AWS_STORAGE_BUCKET_NAME", "must be set when USE_S3 is enabled")
	v.Check(cfg.Storage.Region != "", "AWS_S3_REGION_NAME", "must be set when USE_S3 is enabled")
	if !v.Valid() {
		return nil, &config.Error{Errors: v.Errors}
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey, "")
	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithCredentialsProvider(creds), awsConfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		return nil, err
	}
	return NewS3(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, cfg.Storage.Region), nil
}
