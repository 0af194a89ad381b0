package likes

import (
	"time"

	"github.com/google/uuid"
)

// Like is one user's like of one post. (user_id, post_id) is unique.
type Like struct {
	ID        uuid.UUID `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Status is the server's view of a (user, post) pair plus the canonical count.
type Status struct {
	IsLiked bool  `json:"isLiked"`
	Count   int64 `json:"count"`
}

type LikeResponse struct {
	Success bool  `json:"success"`
	Data    *Like `json:"data,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CountResponse struct {
	PostID int64 `json:"post_id"`
	Count  int64 `json:"count"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
