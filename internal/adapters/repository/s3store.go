package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
)

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Config holds the connection settings for an S3-compatible bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Store keeps one JSON model object per category in a bucket.
type S3Store struct {
	client ObjectAPI
	bucket string
	opts   options
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds an S3 client from static credentials. A custom endpoint
// switches to path-style addressing for S3-compatible servers.
func NewS3Store(cfg S3Config, opts ...Option) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrMissingBucket
	}
	awsCfg := aws.Config{
		Region: cfg.Region,
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, cfg.Bucket, opts...), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client ObjectAPI, bucket string, opts ...Option) *S3Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &S3Store{client: client, bucket: bucket, opts: o}
}

// Key returns the object key for category.
func (s *S3Store) Key(category model.Position) string {
	return s.opts.prefix + ObjectName(category)
}

// Exists implements Store.
func (s *S3Store) Exists(ctx context.Context, category model.Position) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(category)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", s.Key(category), err)
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, category model.Position) (*model.Model, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(category)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, category)
		}
		return nil, fmt.Errorf("get %s: %w", s.Key(category), err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Key(category), err)
	}
	return decode(category, b)
}

// Save implements Store. A single PutObject replaces the object atomically.
func (s *S3Store) Save(ctx context.Context, category model.Position, m *model.Model) error {
	b, err := encode(category, m)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.Key(category)),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.Key(category), err)
	}
	s.opts.logger.Info(ctx, "model uploaded",
		logger.String("category", string(category)),
		logger.String("bucket", s.bucket),
		logger.String("key", s.Key(category)),
		logger.Int("bytes", len(b)),
	)
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
