package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cristianortiz/lotsEngine/internal/shared/config"
	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

var ErrEmptyKey = errors.New("storage: empty object key")

// ObjectAPI is the subset of the S3 client the loader uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Object describes an uploaded object.
type Object struct {
	Key         string
	ContentType string
	Location    string
}

// Loader uploads and removes objects in a single bucket.
type Loader struct {
	api       ObjectAPI
	bucket    string
	publicURL string
}

func NewLoader(api ObjectAPI, bucket, publicURL string) *Loader {
	return &Loader{api: api, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// NewS3Client builds an S3 client with static credentials. A non-empty
// endpoint switches to path-style addressing for MinIO-compatible stores.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// Upload stores body under prefix followed by a fresh uuid.
func (l *Loader) Upload(ctx context.Context, body io.Reader, contentType, prefix string) (*Object, error) {
	key := prefix + uuid.NewString()

	_, err := l.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(l.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error("failed to upload object", zap.String("bucket", l.bucket), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	log.Debug("object uploaded", zap.String("key", key), zap.String("contentType", contentType))
	return &Object{Key: key, ContentType: contentType, Location: l.URL(key)}, nil
}

func (l *Loader) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := l.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error("failed to delete object", zap.String("bucket", l.bucket), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// URL is the public location of key.
func (l *Loader) URL(key string) string {
	return l.publicURL + "/" + key
}
