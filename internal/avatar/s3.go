// Package avatar stores user avatar images in an S3-compatible bucket.
package avatar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"
)

// Uploader stores an avatar image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, username string, body io.Reader, contentType string) (string, error)
}

var _ Uploader = (*S3Uploader)(nil)

// S3Uploader uploads avatars to a bucket. The object key is derived from
// the username, so re-uploading replaces the previous avatar.
type S3Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// Options configures the bucket connection. Endpoint is optional and
// enables S3-compatible stores such as MinIO.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// NewS3Uploader builds the client with static credentials.
func NewS3Uploader(ctx context.Context, opts Options) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return &S3Uploader{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload puts the image into the bucket and returns its public URL.
// A transient failure is retried once before being surfaced.
func (u *S3Uploader) Upload(ctx context.Context, username string, body io.Reader, contentType string) (string, error) {
	key := fmt.Sprintf("avatars/%s", username)

	// PutObject may retry, so the body must be buffered first.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read avatar body: %w", err)
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	return fmt.Sprintf("%s/%s", u.publicURL, key), nil
}
