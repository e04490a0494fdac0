// Package archive keeps the raw markup of each run in S3-compatible object
// storage so records can be rebuilt later without fetching the page again.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver stores a page of raw markup under key.
type Archiver interface {
	Archive(ctx context.Context, key, markup string) error
}

// Config describes the bucket to archive into.
type Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // custom endpoint for MinIO or Supabase Storage
}

// Key builds the object key for a page fetched at t.
func Key(prefix, source, schema string, t time.Time) string {
	return path.Join(prefix, "raw", source, schema, t.UTC().Format("20060102T150405Z")+".html")
}

// putObjectAPI is the subset of the S3 client used by S3Archiver.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes pages to an S3 bucket.
type S3Archiver struct {
	client putObjectAPI
	bucket string
}

// NewS3Archiver loads AWS credentials from the environment and returns an
// archiver for cfg.Bucket.
func NewS3Archiver(ctx context.Context, cfg Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: cfg.Bucket}, nil
}

// Archive uploads markup as an HTML object.
func (a *S3Archiver) Archive(ctx context.Context, key, markup string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(markup),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}
