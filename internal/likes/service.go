package likes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"photofeed/internal/database"
	"photofeed/internal/events"
	"photofeed/internal/metrics"
)

var (
	ErrAlreadyLiked = errors.New("post already liked")
	ErrPostNotFound = errors.New("post not found")
)

type Service interface {
	Like(ctx context.Context, userID uuid.UUID, postID int64) (*Like, error)
	Unlike(ctx context.Context, userID uuid.UUID, postID int64) (bool, error)
	Count(ctx context.Context, postID int64) (int64, error)
	Status(ctx context.Context, userID uuid.UUID, postID int64) (Status, error)
}

type service struct {
	db      database.Service
	publish events.Publisher
}

func NewService(db database.Service, publish events.Publisher) Service {
	if publish == nil {
		publish = events.Nop{}
	}
	return &service{db: db, publish: publish}
}

// Like inserts the row in a single statement. The unique constraint on
// (user_id, post_id) is the only duplicate check.
func (s *service) Like(ctx context.Context, userID uuid.UUID, postID int64) (*Like, error) {
	const q = `
		INSERT INTO likes (user_id, post_id)
		VALUES ($1, $2)
		RETURNING like_id, post_id, user_id, created_at
	`
	l := &Like{}
	err := s.db.QueryRow(ctx, q, userID, postID).Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt)
	switch {
	case database.IsUniqueViolation(err):
		err = ErrAlreadyLiked
	case database.IsForeignKeyViolation(err):
		err = ErrPostNotFound
	case err != nil:
		err = fmt.Errorf("insert like: %w", err)
	}
	metrics.LikesToggled.WithLabelValues("like", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publish, events.New(events.LikeCreated, postID, userID.String()))
	return l, nil
}

// Unlike reports whether a row was removed. Removing a missing like is not an error.
func (s *service) Unlike(ctx context.Context, userID uuid.UUID, postID int64) (bool, error) {
	const q = `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`
	tag, err := s.db.Exec(ctx, q, userID, postID)
	metrics.LikesToggled.WithLabelValues("unlike", outcome(err)).Inc()
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	removed := tag.RowsAffected() > 0
	if removed {
		events.Emit(ctx, s.publish, events.New(events.LikeDeleted, postID, userID.String()))
	}
	return removed, nil
}

func (s *service) Count(ctx context.Context, postID int64) (int64, error) {
	const q = `SELECT COUNT(*) FROM likes WHERE post_id = $1`
	var n int64
	if err := s.db.QueryRow(ctx, q, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func (s *service) Status(ctx context.Context, userID uuid.UUID, postID int64) (Status, error) {
	const q = `
		SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2),
		       (SELECT COUNT(*) FROM likes WHERE post_id = $2)
	`
	var st Status
	if err := s.db.QueryRow(ctx, q, userID, postID).Scan(&st.IsLiked, &st.Count); err != nil {
		return Status{}, fmt.Errorf("like status: %w", err)
	}
	return st, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyLiked):
		return "conflict"
	case errors.Is(err, ErrPostNotFound):
		return "not_found"
	default:
		return "error"
	}
}
