package follow

import (
	"time"

	"github.com/google/uuid"
)

// Follow is one edge of the social graph: FollowerID sees FolloweeID's posts in the followed feed.
type Follow struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Follow) TableName() string { return "follows" }

type FollowRequest struct {
	FolloweeID string `json:"followee_id" binding:"required"`
}

type CountResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Count  int64     `json:"count"`
}

type FollowingResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Following bool      `json:"following"`
}

type ListResponse struct {
	UserID uuid.UUID   `json:"user_id"`
	Users  []uuid.UUID `json:"users"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
