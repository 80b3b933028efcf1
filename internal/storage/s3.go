package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 stores objects in an AWS S3 bucket. Construction performs no network
// I/O; authentication failures surface on the first Put or Delete.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	region   string
}

// NewS3 creates an object-storage target backed by the given client.
func NewS3(client *s3.Client, bucket, region string) *S3 {
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		region:   region,
	}
}

// Put uploads the contents of r under key and returns the object's public URL.
func (t *S3) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	_, err := t.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return "https://" + t.bucket + ".s3." + t.region + ".amazonaws.com/" + key, nil
}

// Delete removes the object stored under key. DeleteObject alone reports
// nothing for a missing key, so the object's existence is checked first and
// ErrNotFound returned to match the local backend's contract.
func (t *S3) Delete(ctx context.Context, key string) error {
	_, err := t.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return ErrNotFound
		}
		return err
	}
	_, err = t.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	return err
}
