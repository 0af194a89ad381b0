package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"photofeed/internal/database"
	"photofeed/internal/posts"
)

// Filter selects one page worth of rows. Fetch is the number of rows to read.
type Filter struct {
	Viewer     uuid.UUID
	Author     uuid.UUID
	FollowedBy uuid.UUID
	Sort       Sort
	After      *Cursor
	Fetch      int
}

type Store interface {
	FollowsAnyone(ctx context.Context, userID uuid.UUID) (bool, error)
	List(ctx context.Context, f Filter) ([]Item, error)
}

type Repository struct {
	db database.Service
}

func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FollowsAnyone(ctx context.Context, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1)`, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check follows: %w", err)
	}
	return ok, nil
}

// List reads posts with their counts and the viewer's like flag in one statement.
func (r *Repository) List(ctx context.Context, f Filter) ([]Item, error) {
	q, args := buildListQuery(f)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0, f.Fetch)
	for rows.Next() {
		var it Item
		p, err := posts.ScanPost(rows, &it.LikeCount, &it.CommentCount, &it.ViewerLiked)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		it.Post = *p
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed: %w", err)
	}
	return items, nil
}

func buildListQuery(f Filter) (string, []any) {
	var viewer any
	if f.Viewer != uuid.Nil {
		viewer = f.Viewer
	}
	args := []any{viewer}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var where []string
	if f.Author != uuid.Nil {
		where = append(where, "p.user_id = "+arg(f.Author))
	}
	if f.FollowedBy != uuid.Nil {
		where = append(where, "p.user_id IN (SELECT followee_id FROM follows WHERE follower_id = "+arg(f.FollowedBy)+")")
	}

	dir := "DESC"
	if !f.Sort.Desc {
		dir = "ASC"
	}
	if f.Sort.Keyset() && f.After != nil {
		op := "<"
		if !f.Sort.Desc {
			op = ">"
		}
		where = append(where, fmt.Sprintf("(p.created_at, p.post_id) %s (%s, %s)",
			op, arg(f.After.CreatedAt), arg(f.After.PostID)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + posts.Columns + `,
		(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.post_id) AS like_count,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.post_id) AS comment_count,
		EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.post_id AND l.user_id = $1) AS viewer_liked
	FROM posts p`)
	if len(where) > 0 {
		b.WriteString("\n\tWHERE " + strings.Join(where, " AND "))
	}

	switch f.Sort.Field {
	case "created_at":
		fmt.Fprintf(&b, "\n\tORDER BY p.created_at %s, p.post_id %s", dir, dir)
	default:
		fmt.Fprintf(&b, "\n\tORDER BY %s %s, p.created_at DESC, p.post_id DESC", f.Sort.Field, dir)
	}

	b.WriteString("\n\tLIMIT " + arg(f.Fetch))
	if !f.Sort.Keyset() && f.After != nil {
		b.WriteString(" OFFSET " + arg(f.After.Offset))
	}
	return b.String(), args
}
