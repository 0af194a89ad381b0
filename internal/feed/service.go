package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"photofeed/internal/metrics"
	"photofeed/internal/storage"
)

const imageURLTTL = time.Hour

type Service struct {
	store  Store
	images storage.Service
}

// NewService builds the feed service. images may be nil, in which case posts carry no image URL.
func NewService(store Store, images storage.Service) *Service {
	return &Service{store: store, images: images}
}

// List returns one page. A failing store yields an error and no partial page.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	limit := ClampLimit(q.Limit)
	if q.Sort.Field == "" {
		q.Sort = DefaultSort
	}

	f := Filter{Viewer: q.Viewer, Author: q.Author, Sort: q.Sort, Fetch: limit + 1}
	if q.Cursor != "" {
		c, err := DecodeCursor(q.Cursor, q.Sort)
		if err != nil {
			return nil, err
		}
		f.After = &c
	}

	if q.FollowedOnly {
		if q.Viewer == uuid.Nil {
			return nil, ErrNotAuthenticated
		}
		follows, err := s.store.FollowsAnyone(ctx, q.Viewer)
		if err != nil {
			return nil, err
		}
		if !follows {
			s.observe(q, 0)
			return &Page{Data: []Item{}}, nil
		}
		f.FollowedBy = q.Viewer
	}

	items, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []Item{}
	}
	page := &Page{Data: items}
	if len(items) > limit {
		page.Data = items[:limit]
		page.HasMore = true
	}
	if page.HasMore {
		next := nextCursor(f, page.Data)
		page.Cursor = &next
	}

	for i := range page.Data {
		s.attachImageURL(ctx, &page.Data[i])
	}
	s.observe(q, len(page.Data))
	return page, nil
}

func nextCursor(f Filter, data []Item) string {
	last := data[len(data)-1]
	if f.Sort.Keyset() {
		return Cursor{CreatedAt: last.CreatedAt, PostID: last.PostID, Sort: f.Sort}.Encode()
	}
	offset := len(data)
	if f.After != nil {
		offset += f.After.Offset
	}
	return Cursor{Offset: offset, Sort: f.Sort}.Encode()
}

func (s *Service) attachImageURL(ctx context.Context, it *Item) {
	if s.images == nil {
		return
	}
	u, err := s.images.GeneratePresignedDownloadURL(ctx, it.ImageKey, imageURLTTL)
	if err != nil {
		slog.Warn("failed to presign feed image", "post_id", it.PostID, "error", err)
		return
	}
	it.ImageURL = u
}

func (s *Service) observe(q Query, n int) {
	metrics.FeedPagesServed.WithLabelValues(strconv.FormatBool(q.FollowedOnly)).Inc()
	metrics.FeedPageSize.Observe(float64(n))
}

// String is used in logs.
func (q Query) String() string {
	return fmt.Sprintf("limit=%d sort=%s followed_only=%t author=%s", q.Limit, q.Sort, q.FollowedOnly, q.Author)
}
