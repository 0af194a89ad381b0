package feed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"photofeed/internal/posts"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	ErrInvalidQuery     = errors.New("invalid feed query")
	ErrNotAuthenticated = errors.New("must be logged in")
)

// Item is a post annotated for one viewer.
type Item struct {
	posts.Post
	LikeCount    int64 `json:"likeCount"`
	CommentCount int64 `json:"commentCount"`
	ViewerLiked  bool  `json:"viewerLiked"`
}

// Page is the response body of every feed endpoint. Cursor is null on the last page.
type Page struct {
	Data    []Item  `json:"data"`
	Cursor  *string `json:"cursor"`
	HasMore bool    `json:"hasMore"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Sort is a field and a direction.
type Sort struct {
	Field string
	Desc  bool
}

var DefaultSort = Sort{Field: "created_at", Desc: true}

var sortFields = map[string]bool{
	"created_at":    true,
	"like_count":    true,
	"comment_count": true,
}

// ParseSort accepts created_at|like_count|comment_count and asc|desc. Empty values fall back to newest first.
func ParseSort(field, order string) (Sort, error) {
	s := DefaultSort
	if field != "" {
		if !sortFields[field] {
			return Sort{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidQuery, field)
		}
		s.Field = field
	}
	switch strings.ToLower(order) {
	case "", "desc":
		s.Desc = true
	case "asc":
		s.Desc = false
	default:
		return Sort{}, fmt.Errorf("%w: unknown order %q", ErrInvalidQuery, order)
	}
	return s, nil
}

func (s Sort) String() string {
	if s.Desc {
		return s.Field + ":desc"
	}
	return s.Field + ":asc"
}

// Keyset reports whether pages are cut by (created_at, post_id) rather than by offset.
func (s Sort) Keyset() bool { return s.Field == "created_at" }

// Query is one feed request.
type Query struct {
	Limit        int
	Cursor       string
	FollowedOnly bool
	Viewer       uuid.UUID
	Author       uuid.UUID
	Sort         Sort
}

// ClampLimit applies the default and the [1, MaxLimit] bounds.
func ClampLimit(n int) int {
	switch {
	case n == 0:
		return DefaultLimit
	case n < 1:
		return 1
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}
