package files

import "time"

// GenerateUploadURLRequest asks for a presigned PUT for one image.
type GenerateUploadURLRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size,omitempty"` // bytes, optional
}

// GenerateUploadURLResponse represents response with presigned upload URL
type GenerateUploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	ExpiresAt int64  `json:"expires_at"` // Unix timestamp
}

// GenerateDownloadURLRequest represents request for download URL generation
type GenerateDownloadURLRequest struct {
	FileKey string `json:"file_key" binding:"required"`
}

// GenerateDownloadURLResponse represents response with presigned download URL
type GenerateDownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
	ExpiresAt   int64  `json:"expires_at"` // Unix timestamp
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

const (
	MaxImageSize = 20 * 1024 * 1024
	UploadTTL    = 15 * time.Minute
	DownloadTTL  = time.Hour
	maxKeyLength = 512
)
