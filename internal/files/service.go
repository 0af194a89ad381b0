package files

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photofeed/internal/storage"
)

var (
	ErrInvalidKey = errors.New("invalid file key")
	ErrTooLarge   = errors.New("image too large")
	ErrForbidden  = errors.New("not allowed to delete this file")
)

// Service hands out presigned URLs for post images.
type Service struct {
	storage storage.Service
	now     func() time.Time
}

// NewService creates a new files service
func NewService(storage storage.Service) *Service {
	return &Service{storage: storage, now: time.Now}
}

// ValidateKey accepts keys produced by storage.NewImageKey.
func ValidateKey(key string) error {
	switch {
	case key == "", len(key) > maxKeyLength:
		return ErrInvalidKey
	case !strings.HasPrefix(key, "posts/"):
		return ErrInvalidKey
	case strings.Contains(key, ".."), strings.Contains(key, "\\"), strings.Contains(key, "//"):
		return ErrInvalidKey
	}
	return nil
}

// GenerateUploadURL reserves a key under the user's prefix and presigns a PUT for it.
func (s *Service) GenerateUploadURL(ctx context.Context, userID string, req *GenerateUploadURLRequest) (*GenerateUploadURLResponse, error) {
	if req.Size > MaxImageSize {
		return nil, fmt.Errorf("%w: max %d bytes", ErrTooLarge, MaxImageSize)
	}

	fileKey, err := storage.NewImageKey(userID, req.ContentType)
	if err != nil {
		return nil, err
	}

	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, fileKey, req.ContentType, UploadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &GenerateUploadURLResponse{
		UploadURL: uploadURL,
		FileKey:   fileKey,
		ExpiresAt: s.now().Add(UploadTTL).Unix(),
	}, nil
}

// GenerateDownloadURL creates a presigned URL for file download
func (s *Service) GenerateDownloadURL(ctx context.Context, req *GenerateDownloadURLRequest) (*GenerateDownloadURLResponse, error) {
	if err := ValidateKey(req.FileKey); err != nil {
		return nil, err
	}

	downloadURL, err := s.storage.GeneratePresignedDownloadURL(ctx, req.FileKey, DownloadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	return &GenerateDownloadURLResponse{
		DownloadURL: downloadURL,
		ExpiresAt:   s.now().Add(DownloadTTL).Unix(),
	}, nil
}

// DeleteFile removes an object the user owns.
func (s *Service) DeleteFile(ctx context.Context, userID, fileKey string) error {
	if err := ValidateKey(fileKey); err != nil {
		return err
	}
	if !storage.OwnsKey(userID, fileKey) {
		return ErrForbidden
	}

	if err := s.storage.DeleteFile(ctx, fileKey); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// HealthCheck checks storage service health
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.storage.Health(ctx)
}
