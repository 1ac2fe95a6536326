package photostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/wastenot/wastenot-backend/internal/config"
)

// S3Store keeps photos in an S3 bucket. Locators are object keys.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds an S3-backed photo store from the uploads configuration.
func NewS3Store(ctx context.Context, cfg *config.UploadsConfig) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	prefix := cfg.S3KeyPrefix
	if prefix == "" {
		prefix = "meal-photos/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		prefix: prefix,
	}, nil
}

// Save uploads the photo under a random key and returns the key.
func (s *S3Store) Save(ctx context.Context, data []byte, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	key := s.prefix + uuid.NewString() + ext
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return key, nil
}

// Delete removes a stored photo.
func (s *S3Store) Delete(ctx context.Context, locator string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locator),
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", locator, err)
	}
	return nil
}

// Read returns the photo bytes.
func (s *S3Store) Read(ctx context.Context, locator string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locator),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get photo %s: %w", locator, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", locator, err)
	}
	return data, nil
}

// Size returns the photo size in bytes without downloading the object.
func (s *S3Store) Size(ctx context.Context, locator string) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locator),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to head photo %s: %w", locator, err)
	}
	if out.ContentLength == nil {
		return 0, fmt.Errorf("no content length for photo %s", locator)
	}
	return *out.ContentLength, nil
}
