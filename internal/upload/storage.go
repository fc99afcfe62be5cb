package upload

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/shopworks/storeapi/internal/config"
)

// Uploader stores an object and returns its download URL.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) (string, error)
}

// S3Storage uploads files to an S3-compatible bucket (AWS, Backblaze B2,
// MinIO) selected by the configured base endpoint.
type S3Storage struct {
	client *s3.Client
	bucket string
}

func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client, bucket: cfg.Bucket}, nil
}

// Upload puts the object and returns its URL.
func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	endpoint := ""
	opts := s.client.Options()
	if opts.BaseEndpoint != nil {
		endpoint = strings.TrimSuffix(*opts.BaseEndpoint, "/")
	} else {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", opts.Region)
	}

	return fmt.Sprintf("%s/%s/%s", endpoint, s.bucket, key), nil
}

// StorageKey builds a date-partitioned key that stays unique even for
// repeated uploads of the same filename.
func StorageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s-%s", d.Year(), d.Month(), d.Day(), uuid.New(), filename)
}
