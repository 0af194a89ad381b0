package follow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Service interface {
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*Follow, error)
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	FollowersCount(ctx context.Context, userID uuid.UUID) (int64, error)
	FollowingCount(ctx context.Context, userID uuid.UUID) (int64, error)
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Followers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
	Following(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*Follow, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}
	f := &Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: s.now().UTC()}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return s.repo.Delete(ctx, followerID, followeeID)
}

func (s *service) FollowersCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountFollowers(ctx, userID)
}

func (s *service) FollowingCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountFollowing(ctx, userID)
}

func (s *service) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if followerID == followeeID {
		return false, nil
	}
	return s.repo.Exists(ctx, followerID, followeeID)
}

func (s *service) Followers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	limit, offset = page(limit, offset)
	return s.repo.ListFollowers(ctx, userID, limit, offset)
}

func (s *service) Following(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	limit, offset = page(limit, offset)
	return s.repo.ListFollowing(ctx, userID, limit, offset)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
