package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"citywatch/alertmedia/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type S3Storage struct {
	config   *config.Config
	uploader *manager.Uploader
	s3Client *s3.Client
	logger   *zap.Logger
}

func NewS3Storage(cfg *config.Config, logger *zap.Logger) (*S3Storage, error) {
	// Используем BaseEndpoint для кастомного endpoint (MinIO и т.п.)
	s3Opts := []func(*s3.Options){}

	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true // Обязательно для MinIO
		})
	}

	credsProvider := credentials.NewStaticCredentialsProvider(
		cfg.S3AccessKeyID,
		cfg.S3SecretAccessKey,
		"",
	)

	awsCfg := aws.Config{
		Region:      cfg.S3Region,
		Credentials: credsProvider,
	}

	s3Client := s3.NewFromConfig(awsCfg, s3Opts...)

	storage := &S3Storage{
		config:   cfg,
		uploader: manager.NewUploader(s3Client),
		s3Client: s3Client,
		logger:   logger,
	}

	logger.Info("s3 storage initialized", zap.String("endpoint", cfg.S3Endpoint), zap.String("bucket", cfg.S3BucketName))
	return storage, nil
}

func (s *S3Storage) Bucket() string {
	return s.config.S3BucketName
}

// Upload stores the bytes under a key derived from the owning alert and
// media ids so deletes and downloads never need a lookup table.
func (s *S3Storage) Upload(ctx context.Context, alertID uint, mediaID, filename, contentType string, data []byte) (string, error) {
	key := path.Join("alerts", fmt.Sprintf("%d", alertID), mediaID, filename)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media bytes: %w", err)
	}

	s.logger.Info("media bytes stored",
		zap.String("media_id", mediaID),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return key, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.S3BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.s3Client)

	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))

	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}

func (s *S3Storage) HealthCheck(ctx context.Context) error {
	// Простая проверка - пытаемся листовать bucket'ы
	_, err := s.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
