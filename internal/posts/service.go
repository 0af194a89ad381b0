package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"photofeed/internal/events"
	"photofeed/internal/storage"
)

// ErrInvalidPost wraps every validation failure of a create request.
var ErrInvalidPost = errors.New("invalid post")

const (
	postCacheTTL = 5 * time.Minute
	imageURLTTL  = 15 * time.Minute
)

var shutterSpeedPattern = regexp.MustCompile(`^(\d+/\d+|\d+(\.\d+)?)s?$`)

// Service handles business logic for posts with caching
type Service struct {
	store   Store
	cache   redis.Cmdable
	images  storage.Service
	publish events.Publisher
}

// NewService wires the post store. cache and images may be nil.
func NewService(store Store, cache redis.Cmdable, images storage.Service, publish events.Publisher) *Service {
	if publish == nil {
		publish = events.Nop{}
	}
	return &Service{store: store, cache: cache, images: images, publish: publish}
}

// Validate checks a create request before it reaches the database.
func Validate(userID uuid.UUID, req *CreatePostRequest) error {
	req.Caption = strings.TrimSpace(req.Caption)
	if req.ImageKey == "" {
		return fmt.Errorf("%w: image_key is required", ErrInvalidPost)
	}
	if !storage.OwnsKey(userID.String(), req.ImageKey) {
		return fmt.Errorf("%w: image_key must be an upload of the author", ErrInvalidPost)
	}

	if e := req.Exif; e != nil {
		if e.ShutterSpeed != nil && !shutterSpeedPattern.MatchString(*e.ShutterSpeed) {
			return fmt.Errorf("%w: shutter_speed must look like 1/250 or 2s", ErrInvalidPost)
		}
		if e.ISO != nil && *e.ISO <= 0 {
			return fmt.Errorf("%w: iso must be positive", ErrInvalidPost)
		}
		if e.Aperture != nil && *e.Aperture <= 0 {
			return fmt.Errorf("%w: aperture must be positive", ErrInvalidPost)
		}
		if e.ShutterSpeed == nil && e.ISO == nil && e.Aperture == nil {
			req.Exif = nil
		}
	}

	if l := req.Location; l != nil {
		if l.Latitude < -90 || l.Latitude > 90 {
			return fmt.Errorf("%w: latitude out of range", ErrInvalidPost)
		}
		if l.Longitude < -180 || l.Longitude > 180 {
			return fmt.Errorf("%w: longitude out of range", ErrInvalidPost)
		}
	}
	return nil
}

// CreatePost validates and stores a new post.
func (s *Service) CreatePost(ctx context.Context, userID uuid.UUID, req CreatePostRequest) (*Post, error) {
	if err := Validate(userID, &req); err != nil {
		return nil, err
	}
	post, err := s.store.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	s.attachImageURL(ctx, post)
	return post, nil
}

// GetPost retrieves a post by ID with caching
func (s *Service) GetPost(ctx context.Context, postID int64) (*Post, error) {
	post, ok := s.cached(ctx, postID)
	if !ok {
		var err error
		post, err = s.store.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		s.remember(ctx, post)
	}
	s.attachImageURL(ctx, post)
	return post, nil
}

// DeletePost removes the post, its cached copy and, best effort, its image.
func (s *Service) DeletePost(ctx context.Context, postID int64, userID uuid.UUID) error {
	post, err := s.store.Delete(ctx, postID, userID)
	if err != nil {
		return err
	}

	s.forget(ctx, postID)
	if s.images != nil {
		if err := s.images.DeleteFile(ctx, post.ImageKey); err != nil {
			slog.Warn("image cleanup failed", "post_id", postID, "image_key", post.ImageKey, "error", err)
		}
	}
	events.Emit(ctx, s.publish, events.New(events.PostDeleted, postID, userID.String()))
	return nil
}

func (s *Service) attachImageURL(ctx context.Context, post *Post) {
	if s.images == nil {
		return
	}
	u, err := s.images.GeneratePresignedDownloadURL(ctx, post.ImageKey, imageURLTTL)
	if err != nil {
		slog.Warn("presign image failed", "post_id", post.PostID, "error", err)
		return
	}
	post.ImageURL = u
}

func cacheKey(postID int64) string {
	return fmt.Sprintf("post:%d", postID)
}

func (s *Service) cached(ctx context.Context, postID int64) (*Post, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(postID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("post cache read failed", "post_id", postID, "error", err)
		}
		return nil, false
	}
	var post Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return nil, false
	}
	return &post, true
}

func (s *Service) remember(ctx context.Context, post *Post) {
	if s.cache == nil {
		return
	}
	// Presigned URLs expire; only the stored fields are cached.
	stored := *post
	stored.ImageURL = ""
	data, err := json.Marshal(stored)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(post.PostID), data, postCacheTTL).Err(); err != nil {
		slog.Warn("post cache write failed", "post_id", post.PostID, "error", err)
	}
}

func (s *Service) forget(ctx context.Context, postID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(postID)).Err(); err != nil {
		slog.Warn("post cache invalidation failed", "post_id", postID, "error", err)
	}
}
