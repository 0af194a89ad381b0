package comments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrParentMismatch  = errors.New("parent comment belongs to another post")
	ErrForbidden       = errors.New("not allowed to modify this comment")
)

type Repository interface {
	Create(ctx context.Context, c *Comment) error
	UpdateBody(ctx context.Context, id int64, userID uuid.UUID, body string) (*Comment, error)
	// Delete removes the comment and its replies and returns the deleted comment
	// with the number of rows removed.
	Delete(ctx context.Context, id int64, userID uuid.UUID) (*Comment, int64, error)
	ListByPost(ctx context.Context, postID int64) ([]*Comment, error)
	CountByPost(ctx context.Context, postID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.ParentID != nil {
			var parent Comment
			err := tx.Select("comment_id", "post_id").First(&parent, "comment_id = ?", *c.ParentID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			if err != nil {
				return fmt.Errorf("load parent comment: %w", err)
			}
			if parent.PostID != c.PostID {
				return ErrParentMismatch
			}
		}

		err := tx.Create(c).Error
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrPostNotFound
		}
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
}

func (r *repository) UpdateBody(ctx context.Context, id int64, userID uuid.UUID, body string) (*Comment, error) {
	var c Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := owned(tx, &c, id, userID); err != nil {
			return err
		}
		c.Body = body
		c.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&c).Updates(map[string]any{"body": c.Body, "updated_at": c.UpdatedAt}).Error; err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const subtreeSize = `
	WITH RECURSIVE thread AS (
		SELECT comment_id FROM comments WHERE comment_id = ?
		UNION ALL
		SELECT c.comment_id FROM comments c JOIN thread t ON c.parent_id = t.comment_id
	)
	SELECT COUNT(*) FROM thread`

func (r *repository) Delete(ctx context.Context, id int64, userID uuid.UUID) (*Comment, int64, error) {
	var (
		c Comment
		n int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := owned(tx, &c, id, userID); err != nil {
			return err
		}
		if err := tx.Raw(subtreeSize, id).Scan(&n).Error; err != nil {
			return fmt.Errorf("count replies: %w", err)
		}
		// replies go through ON DELETE CASCADE
		if err := tx.Delete(&Comment{}, "comment_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &c, n, nil
}

func (r *repository) ListByPost(ctx context.Context, postID int64) ([]*Comment, error) {
	var out []*Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, comment_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

func (r *repository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Comment{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

func owned(tx *gorm.DB, c *Comment, id int64, userID uuid.UUID) error {
	err := tx.First(c, "comment_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("load comment: %w", err)
	}
	if c.UserID != userID {
		return ErrForbidden
	}
	return nil
}
