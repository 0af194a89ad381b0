// Package storage keeps post images in S3-compatible object storage.
// Clients upload and download through presigned URLs; the services only sign,
// delete and health-check.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"photofeed/internal/config"
)

var (
	// ErrNotConfigured is returned by ConfigFromEnv when S3_ENDPOINT is unset.
	ErrNotConfigured = errors.New("object storage not configured")
	// ErrUnsupportedType rejects uploads that are not images.
	ErrUnsupportedType = errors.New("unsupported image content type")
)

// Service defines the interface for storage operations
type Service interface {
	// GeneratePresignedUploadURL creates a time-limited presigned URL for uploading a file
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a time-limited presigned URL for downloading a file
	GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	DeleteFile(ctx context.Context, key string) error
	EnsureBucketExists(ctx context.Context) error
	Health(ctx context.Context) error
}

// Config describes the bucket and the two endpoints: the one services reach
// and the one embedded into URLs handed to browsers.
type Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
}

// ConfigFromEnv reads the S3_* variables.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Endpoint:       os.Getenv("S3_ENDPOINT"),
		PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		Bucket:         os.Getenv("S3_BUCKET_NAME"),
		Region:         os.Getenv("S3_REGION"),
		UseSSL:         os.Getenv("S3_USE_SSL") == "true",
	}
	if cfg.Endpoint == "" {
		return cfg, ErrNotConfigured
	}

	if err := config.ValidateEnv([]string{"S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET_NAME"}); err != nil {
		return cfg, fmt.Errorf("storage: %w", err)
	}
	return cfg, nil
}

type service struct {
	client          *s3.Client
	publicPresigner *s3.PresignClient
	bucketName      string
}

// New builds path-style clients for the internal and public endpoints.
func New(ctx context.Context, cfg Config) (Service, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.PublicEndpoint == "" {
		cfg.PublicEndpoint = cfg.Endpoint
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	clientFor := func(endpoint string) *s3.Client {
		return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(fmt.Sprintf("%s://%s", scheme, endpoint))
			o.UsePathStyle = true
		})
	}

	client := clientFor(cfg.Endpoint)
	public := client
	if cfg.PublicEndpoint != cfg.Endpoint {
		public = clientFor(cfg.PublicEndpoint)
	}
	slog.Info("object storage configured", "endpoint", cfg.Endpoint, "public_endpoint", cfg.PublicEndpoint, "bucket", cfg.Bucket)

	return &service{
		client:          client,
		publicPresigner: s3.NewPresignClient(public),
		bucketName:      cfg.Bucket,
	}, nil
}

// NewFromEnv returns (nil, ErrNotConfigured) when storage is not set up so
// read paths can run without image URLs.
func NewFromEnv(ctx context.Context) (Service, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// EnsureBucketExists creates the bucket if it doesn't already exist
func (s *service) EnsureBucketExists(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)}); err == nil {
		return nil
	}
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucketName)}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	slog.Info("created bucket", "bucket", s.bucketName)
	return nil
}

func (s *service) GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("file key cannot be empty")
	}
	if _, ok := ImageExtension(contentType); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("TTL must be positive")
	}

	req, err := s.publicPresigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL for key %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *service) GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("file key cannot be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("TTL must be positive")
	}

	req, err := s.publicPresigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL for key %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *service) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("file key cannot be empty")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

func (s *service) Health(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)}); err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/gif":  ".gif",
}

// ImageExtension maps an accepted image content type to its file extension.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// NewImageKey returns a fresh object key under the owner's prefix.
func NewImageKey(userID, contentType string) (string, error) {
	ext, ok := ImageExtension(contentType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return fmt.Sprintf("posts/%s/%s%s", userID, uuid.NewString(), ext), nil
}

// OwnsKey reports whether key lives under userID's prefix.
func OwnsKey(userID, key string) bool {
	return strings.HasPrefix(key, "posts/"+userID+"/")
}
