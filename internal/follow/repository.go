package follow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

type Repository interface {
	Create(ctx context.Context, f *Follow) error
	Delete(ctx context.Context, followerID, followeeID uuid.UUID) error
	Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create relies on the primary key to reject a second follow.
func (r *repository) Create(ctx context.Context, f *Follow) error {
	err := r.db.WithContext(ctx).Create(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyFollowing
	}
	if err != nil {
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, followerID, followeeID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&Follow{})
	if res.Error != nil {
		return fmt.Errorf("delete follow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

func (r *repository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return n > 0, nil
}

func (r *repository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, "followee_id = ?", userID)
}

func (r *repository) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, "follower_id = ?", userID)
}

func (r *repository) count(ctx context.Context, where string, userID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Follow{}).Where(where, userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return n, nil
}

func (r *repository) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	return r.list(ctx, "follower_id", "followee_id = ?", userID, limit, offset)
}

func (r *repository) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	return r.list(ctx, "followee_id", "follower_id = ?", userID, limit, offset)
}

func (r *repository) list(ctx context.Context, column, where string, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where(where, userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Pluck(column, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	return ids, nil
}
