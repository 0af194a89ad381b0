package comments

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a remark on a post. ParentID threads replies; a reply belongs to the parent's post.
type Comment struct {
	ID        int64      `gorm:"column:comment_id;primaryKey;autoIncrement" json:"id"`
	PostID    int64      `gorm:"not null" json:"post_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	ParentID  *int64     `json:"parent_id,omitempty"`
	Body      string     `gorm:"not null" json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Replies   []*Comment `gorm:"-" json:"replies,omitempty"`
}

func (Comment) TableName() string { return "comments" }

type CreateCommentRequest struct {
	PostID   int64  `json:"post_id" binding:"required"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Body     string `json:"body" binding:"required,max=2200"`
}

type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required,max=2200"`
}

type ThreadResponse struct {
	PostID   int64      `json:"post_id"`
	Count    int        `json:"count"`
	Comments []*Comment `json:"comments"`
}

type CountResponse struct {
	PostID int64 `json:"post_id"`
	Count  int64 `json:"count"`
}

type DeleteResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
