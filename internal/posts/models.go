package posts

import (
	"time"

	"github.com/google/uuid"
)

// Post is an image post. Posts are immutable once created; they can only be deleted.
type Post struct {
	PostID    int64     `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Caption   string    `json:"caption"`
	ImageKey  string    `json:"image_key"`
	ImageURL  string    `json:"image_url,omitempty"`
	Exif      *Exif     `json:"exif,omitempty"`
	Location  *Location `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Exif holds the camera settings the client parsed from the image.
type Exif struct {
	ShutterSpeed *string  `json:"shutter_speed,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
	Aperture     *float64 `json:"aperture,omitempty"`
}

// Location is where the photo was taken.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreatePostRequest is the body of POST /posts. The owner comes from X-User-ID.
type CreatePostRequest struct {
	Caption  string    `json:"caption" binding:"max=2200"`
	ImageKey string    `json:"image_key" binding:"required"`
	Exif     *Exif     `json:"exif,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// PostResponse is a standard response wrapper
type PostResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *Post  `json:"data,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
