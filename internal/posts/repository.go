package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"photofeed/internal/database"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("not allowed to modify this post")
)

// Columns selects a post aliased as p, in the order ScanPost expects.
const Columns = `p.post_id, p.user_id, p.caption, p.image_key,
	p.shutter_speed, p.iso, p.aperture, p.latitude, p.longitude, p.created_at`

// ScanPost reads Columns from row, followed by any extra destinations.
func ScanPost(row pgx.Row, extra ...any) (*Post, error) {
	var (
		p        Post
		shutter  *string
		iso      *int
		aperture *float64
		lat, lon *float64
	)
	dest := append([]any{
		&p.PostID, &p.UserID, &p.Caption, &p.ImageKey,
		&shutter, &iso, &aperture, &lat, &lon, &p.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if shutter != nil || iso != nil || aperture != nil {
		p.Exif = &Exif{ShutterSpeed: shutter, ISO: iso, Aperture: aperture}
	}
	if lat != nil && lon != nil {
		p.Location = &Location{Latitude: *lat, Longitude: *lon}
	}
	return &p, nil
}

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, req CreatePostRequest) (*Post, error)
	GetByID(ctx context.Context, postID int64) (*Post, error)
	Delete(ctx context.Context, postID int64, userID uuid.UUID) (*Post, error)
}

// Repository handles all database operations for posts
type Repository struct {
	db database.Service
}

// NewRepository creates a new posts repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// Create inserts a new post into the database
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, req CreatePostRequest) (*Post, error) {
	var (
		shutter  *string
		iso      *int
		aperture *float64
		lat, lon *float64
	)
	if req.Exif != nil {
		shutter, iso, aperture = req.Exif.ShutterSpeed, req.Exif.ISO, req.Exif.Aperture
	}
	if req.Location != nil {
		lat, lon = &req.Location.Latitude, &req.Location.Longitude
	}

	const q = `
		INSERT INTO posts AS p (user_id, caption, image_key, shutter_speed, iso, aperture, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + Columns

	post, err := ScanPost(r.db.QueryRow(ctx, q, userID, req.Caption, req.ImageKey, shutter, iso, aperture, lat, lon))
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// GetByID retrieves a single post by ID
func (r *Repository) GetByID(ctx context.Context, postID int64) (*Post, error) {
	const q = `SELECT ` + Columns + ` FROM posts p WHERE p.post_id = $1`

	post, err := ScanPost(r.db.QueryRow(ctx, q, postID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// Delete removes the post when userID owns it and returns the deleted row.
// Likes and comments go with it through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, postID int64, userID uuid.UUID) (*Post, error) {
	const q = `DELETE FROM posts p WHERE p.post_id = $1 AND p.user_id = $2 RETURNING ` + Columns

	post, err := ScanPost(r.db.QueryRow(ctx, q, postID, userID))
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to delete post: %w", err)
	}

	// Nothing deleted: either the post is missing or someone else owns it.
	if _, getErr := r.GetByID(ctx, postID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrForbidden
}
