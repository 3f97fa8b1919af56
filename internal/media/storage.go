package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pkarpov/verity/internal/model"
)

// Uploader stores submitted claim images and returns the reference the OCR
// stage uses to find them.
type Uploader interface {
	// UploadImage stores image bytes for a claim and returns its reference
	UploadImage(ctx context.Context, claimID string, body io.Reader, contentType string) (string, error)
}

// S3Uploader stores claim images in S3 (or any S3-compatible store)
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Uploader creates an uploader using the standard AWS config chain,
// with optional overrides from configuration.
func NewS3Uploader(ctx context.Context, cfg model.MediaConfig) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Uploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// UploadImage stores image bytes under claims/<id>/image.<ext>
func (u *S3Uploader) UploadImage(ctx context.Context, claimID string, body io.Reader, contentType string) (string, error) {
	key := ObjectKey(u.prefix, claimID, contentType)

	in := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("upload image for claim %s: %w", claimID, err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

// ObjectKey builds the storage key for a claim image
func ObjectKey(prefix, claimID, contentType string) string {
	return path.Join(prefix, "claims", claimID, "image"+extensionFor(contentType))
}

// extensionFor maps a content type onto a file extension
func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// NoopUploader rejects image submissions; used when no media bucket is
// configured so text-only intake keeps working.
type NoopUploader struct{}

// UploadImage always fails
func (NoopUploader) UploadImage(ctx context.Context, claimID string, body io.Reader, contentType string) (string, error) {
	return "", fmt.Errorf("image storage not configured")
}
