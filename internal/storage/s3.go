package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/advflow/advflow/internal/common"
)

// S3Store implements ObjectStore on an S3-compatible endpoint (AWS or MinIO).
type S3Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	publicBase string
	logger     *slog.Logger
}

func NewS3Store(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			// MinIO and most self-hosted gateways only speak path-style.
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBase
	if publicBase == "" && cfg.BaseEndpoint != "" {
		publicBase = strings.TrimSuffix(cfg.BaseEndpoint, "/") + "/" + cfg.Bucket
	}

	return &S3Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		publicBase: publicBase,
		logger:     logger,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("object upload failed", "key", key, "error", err)
		return fmt.Errorf("%w: put %s: %v", common.ErrStorage, key, err)
	}
	s.logger.Debug("object uploaded", "key", key, "size", size)
	return nil
}

func (s *S3Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", common.ErrStorage, key, err)
	}
	return out.Body, nil
}

func (s *S3Store) PublicURL(key string) string {
	if s.publicBase == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return strings.TrimSuffix(s.publicBase, "/") + "/" + key
}

func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %v", common.ErrStorage, key, err)
	}
	return req.URL, nil
}

func (s *S3Store) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("object delete failed", "key", key, "error", err)
		return fmt.Errorf("%w: delete %s: %v", common.ErrStorage, key, err)
	}
	return nil
}
