// Package storage archives uploaded batch files to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/flechaamarilla/mdm/internal/infrastructure/config"
	"go.uber.org/zap"
)

// S3Archive stores the original upload files so a batch can be replayed or audited
type S3Archive struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// NewS3Archive builds an archive from upload configuration. Static credentials
// are used when configured, otherwise the default AWS credential chain.
func NewS3Archive(ctx context.Context, cfg *config.UploadConfig, logger *zap.Logger) (*S3Archive, error) {
	if cfg == nil || cfg.S3Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Archive{
		client: client,
		bucket: cfg.S3Bucket,
		prefix: strings.Trim(cfg.S3Prefix, "/"),
		now:    time.Now,
		logger: logger.Named("archive"),
	}, nil
}

// Key builds the object key <prefix>/<entity type>/<tenant>/<yyyy/mm/dd>/<batch>-<file>
func (a *S3Archive) Key(entityType, tenantID, batchID, filename string) string {
	day := a.now().UTC().Format("2006/01/02")
	name := batchID + "-" + path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return path.Join(a.prefix, strings.ToLower(entityType), tenantID, day, name)
}

// Archive uploads data and returns the s3:// location of the object
func (a *S3Archive) Archive(ctx context.Context, entityType, tenantID, batchID, filename, contentType string, data []byte) (string, error) {
	key := a.Key(entityType, tenantID, batchID, filename)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"tenant-id":   tenantID,
			"entity-type": entityType,
			"batch-id":    batchID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}

	location := "s3://" + a.bucket + "/" + key
	a.logger.Debug("Upload archived", zap.String("location", location), zap.Int("bytes", len(data)))
	return location, nil
}
