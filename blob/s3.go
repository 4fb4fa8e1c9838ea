package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// S3 uploads to an S3 (or S3-compatible) bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

type S3Option func(*s3Config)

type s3Config struct {
	region    string
	endpoint  string
	pathStyle bool
	baseURL   string
}

func WithRegion(region string) S3Option {
	return func(c *s3Config) { c.region = region }
}

// WithEndpoint points the client at an S3-compatible store (MinIO etc.);
// implies path-style addressing.
func WithEndpoint(endpoint string) S3Option {
	return func(c *s3Config) {
		c.endpoint = endpoint
		c.pathStyle = true
	}
}

// WithBaseURL overrides the public URL prefix returned for uploads, for
// buckets served through a CDN.
func WithBaseURL(baseURL string) S3Option {
	return func(c *s3Config) { c.baseURL = baseURL }
}

func NewS3(ctx context.Context, bucket string, opts ...S3Option) (*S3, error) {
	bc := &s3Config{region: "us-east-1"}
	for _, opt := range opts {
		opt(bc)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(bc.region))
	if err != nil {
		return nil, errors.Wrap(err, "s3.load_config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if bc.endpoint != "" {
			o.BaseEndpoint = aws.String(bc.endpoint)
		}
		o.UsePathStyle = bc.pathStyle
	})

	baseURL := bc.baseURL
	if baseURL == "" {
		if bc.endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", bc.endpoint, bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, bc.region)
		}
	}

	return &S3{client: client, bucket: bucket, baseURL: baseURL}, nil
}

func (u *S3) Upload(ctx context.Context, formID, filename string, data []byte) (string, error) {
	key := ObjectKey(formID, filename, time.Now())

	contentType := mimetype.Detect(data).String()
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrap(err, "s3.put_object")
	}

	return fmt.Sprintf("%s/%s", u.baseURL, key), nil
}

// ObjectKey builds the storage path for an uploaded form file.
func ObjectKey(formID, filename string, now time.Time) string {
	return fmt.Sprintf("forms/%s/files/%s-%d", formID, filename, now.UnixMilli())
}
