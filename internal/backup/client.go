// Package backup uploads compressed SQLite snapshots to S3-compatible
// object storage (Cloudflare R2 in production) and restores them.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("backup: object not found")

// Config holds object storage settings.
type Config struct {
	Endpoint    string // e.g. https://<account-id>.r2.cloudflarestorage.com
	AccessKeyID string
	SecretKey   string
	Bucket      string
}

// Complete reports whether every field is set.
func (c Config) Complete() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretKey != "" && c.Bucket != ""
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ETag         string
	Size         int64
	LastModified time.Time
}

// Client provides the object operations the backup manager needs.
type Client struct {
	s3     *s3.Client
	bucket string
}

// NewClient creates an S3 client for an R2-style endpoint.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Complete() {
		return nil, errors.New("backup: all config fields are required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("backup: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // R2 needs path-style addressing
	})

	return &Client{s3: s3Client, bucket: cfg.Bucket}, nil
}

// Upload stores body under key and returns its ETag.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.s3.PutObject(ctx, input)
	if err != nil {
		return "", fmt.Errorf("backup: upload %q: %w", key, err)
	}
	return trimETag(result.ETag), nil
}

// Download opens the object at key. The caller must close the body.
func (c *Client) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("backup: download %q: %w", key, err)
	}
	return result.Body, nil
}

// Head returns object metadata without the body.
func (c *Client) Head(ctx context.Context, key string) (ObjectInfo, error) {
	result, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, fmt.Errorf("backup: head %q: %w", key, err)
	}

	return ObjectInfo{
		ETag:         trimETag(result.ETag),
		Size:         aws.ToInt64(result.ContentLength),
		LastModified: aws.ToTime(result.LastModified),
	}, nil
}

func trimETag(etag *string) string {
	return strings.Trim(aws.ToString(etag), "\"")
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404
}
