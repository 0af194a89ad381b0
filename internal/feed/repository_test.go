package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photofeed/internal/database"
	"photofeed/internal/feed"
	"photofeed/internal/testutil/pgtest"
)

func insertPost(t *testing.T, db database.Service, author uuid.UUID, at time.Time) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO posts (user_id, image_key, created_at) VALUES ($1, 'posts/k.jpg', $2) RETURNING post_id`,
		author, at).Scan(&id)
	require.NoError(t, err)
	return id
}

func collect(t *testing.T, svc *feed.Service, q feed.Query) []feed.Item {
	t.Helper()
	var all []feed.Item
	for i := 0; ; i++ {
		require.Less(t, i, 50, "pagination did not terminate")
		page, err := svc.List(context.Background(), q)
		require.NoError(t, err)
		all = append(all, page.Data...)
		if !page.HasMore {
			require.Nil(t, page.Cursor)
			return all
		}
		q.Cursor = *page.Cursor
	}
}

func TestFeedAgainstPostgres(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	svc := feed.NewService(feed.NewRepository(db), nil)

	author, friend, viewer := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("eleven posts page by ten", func(t *testing.T) {
		pgtest.Truncate(t, db)
		var want []int64
		for i := 1; i <= 11; i++ {
			want = append([]int64{insertPost(t, db, author, base.Add(time.Duration(i)*time.Second))}, want...)
		}

		first, err := svc.List(ctx, feed.Query{Limit: 10})
		require.NoError(t, err)
		require.Len(t, first.Data, 10)
		assert.True(t, first.HasMore)
		assert.Equal(t, want[0], first.Data[0].PostID)
		require.NotNil(t, first.Cursor)

		second, err := svc.List(ctx, feed.Query{Limit: 10, Cursor: *first.Cursor})
		require.NoError(t, err)
		require.Len(t, second.Data, 1)
		assert.Equal(t, want[10], second.Data[0].PostID)
		assert.False(t, second.HasMore)
		assert.Nil(t, second.Cursor)
	})

	t.Run("identical timestamps are split by id", func(t *testing.T) {
		pgtest.Truncate(t, db)
		at := base.Add(123456 * time.Microsecond)
		for i := 0; i < 7; i++ {
			insertPost(t, db, author, at)
		}

		all := collect(t, svc, feed.Query{Limit: 2})
		require.Len(t, all, 7)
		for i := 1; i < len(all); i++ {
			assert.Less(t, all[i].PostID, all[i-1].PostID)
		}
	})

	t.Run("counts and viewer flag come from one query", func(t *testing.T) {
		pgtest.Truncate(t, db)
		liked := insertPost(t, db, author, base)
		other := insertPost(t, db, author, base.Add(time.Second))
		_, err := db.Exec(ctx, `INSERT INTO likes (user_id, post_id) VALUES ($1, $2), ($3, $2)`, viewer, liked, friend)
		require.NoError(t, err)
		_, err = db.Exec(ctx, `INSERT INTO comments (post_id, user_id, body) VALUES ($1, $2, 'nice')`, liked, friend)
		require.NoError(t, err)

		page, err := svc.List(ctx, feed.Query{Viewer: viewer})
		require.NoError(t, err)
		byID := map[int64]feed.Item{}
		for _, it := range page.Data {
			byID[it.PostID] = it
		}
		assert.True(t, byID[liked].ViewerLiked)
		assert.EqualValues(t, 2, byID[liked].LikeCount)
		assert.EqualValues(t, 1, byID[liked].CommentCount)
		assert.False(t, byID[other].ViewerLiked)

		anon, err := svc.List(ctx, feed.Query{})
		require.NoError(t, err)
		for _, it := range anon.Data {
			assert.False(t, it.ViewerLiked)
		}

		sorted, err := svc.List(ctx, feed.Query{Sort: feed.Sort{Field: "like_count", Desc: true}})
		require.NoError(t, err)
		assert.Equal(t, liked, sorted.Data[0].PostID)
	})

	t.Run("followed only and author filter", func(t *testing.T) {
		pgtest.Truncate(t, db)
		mine := insertPost(t, db, friend, base)
		insertPost(t, db, author, base.Add(time.Second))
		_, err := db.Exec(ctx, `INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)`, viewer, friend)
		require.NoError(t, err)

		page, err := svc.List(ctx, feed.Query{FollowedOnly: true, Viewer: viewer})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, mine, page.Data[0].PostID)

		page, err = svc.List(ctx, feed.Query{FollowedOnly: true, Viewer: uuid.New()})
		require.NoError(t, err)
		assert.Empty(t, page.Data)

		page, err = svc.List(ctx, feed.Query{Author: author})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, author, page.Data[0].UserID)
	})
}
