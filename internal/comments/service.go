package comments

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"photofeed/internal/events"
)

var ErrEmptyBody = errors.New("comment body is empty")

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*Comment, error)
	Update(ctx context.Context, userID uuid.UUID, commentID int64, body string) (*Comment, error)
	Delete(ctx context.Context, userID uuid.UUID, commentID int64) (int64, error)
	Thread(ctx context.Context, postID int64) ([]*Comment, int, error)
	Count(ctx context.Context, postID int64) (int64, error)
}

type service struct {
	repo    Repository
	publish events.Publisher
}

func NewService(repo Repository, publish events.Publisher) Service {
	if publish == nil {
		publish = events.Nop{}
	}
	return &service{repo: repo, publish: publish}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*Comment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	c := &Comment{PostID: req.PostID, UserID: userID, ParentID: req.ParentID, Body: body}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	ev := events.New(events.CommentCreated, c.PostID, userID.String())
	ev.CommentID = c.ID
	events.Emit(ctx, s.publish, ev)
	return c, nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, commentID int64, body string) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	return s.repo.UpdateBody(ctx, commentID, userID, body)
}

// Delete returns how many comments went away, replies included.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, commentID int64) (int64, error) {
	c, n, err := s.repo.Delete(ctx, commentID, userID)
	if err != nil {
		return 0, err
	}

	ev := events.New(events.CommentDeleted, c.PostID, userID.String())
	ev.CommentID = c.ID
	events.Emit(ctx, s.publish, ev)
	return n, nil
}

// Thread returns the top-level comments of a post with replies nested, and the total count.
func (s *service) Thread(ctx context.Context, postID int64) ([]*Comment, int, error) {
	flat, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	return BuildThread(flat), len(flat), nil
}

func (s *service) Count(ctx context.Context, postID int64) (int64, error) {
	return s.repo.CountByPost(ctx, postID)
}

// BuildThread nests comments under their parents, keeping input order at every level.
// A reply whose parent is missing from flat is promoted to the top level.
func BuildThread(flat []*Comment) []*Comment {
	byID := make(map[int64]*Comment, len(flat))
	for _, c := range flat {
		c.Replies = nil
		byID[c.ID] = c
	}

	roots := make([]*Comment, 0, len(flat))
	for _, c := range flat {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}
