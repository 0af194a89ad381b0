package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photofeed/internal/engagement"
)

func TestLikeCalls(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookie); assert.NoError(t, err) {
			assert.Equal(t, "sid", cookie.Value)
		}
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()

		switch {
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"isLiked":true,"count":12}`))
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "sid")
	ctx := context.Background()

	require.NoError(t, c.Like(ctx, 7))
	require.NoError(t, c.Unlike(ctx, 7))
	st, err := c.Status(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, engagement.State{Liked: true, Count: 12}, st)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"POST /api/likes/7", "DELETE /api/likes/7", "GET /api/likes/7/check"}, seen)
}

func TestErrorsAreTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"must be logged in"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"post already liked"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	assert.False(t, c.LoggedIn())

	err := c.Like(context.Background(), 1)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "post already liked", se.Message)

	assert.ErrorIs(t, c.Unlike(context.Background(), 1), ErrUnauthorized)
}

func TestFeedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/feed", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		assert.Equal(t, "true", r.URL.Query().Get("followedOnly"))
		_, _ = w.Write([]byte(`{"data":[{"post_id":3,"caption":"hi","likeCount":2,"commentCount":0,"viewerLiked":true}],"cursor":"next","hasMore":true}`))
	}))
	defer srv.Close()

	page, err := New(srv.URL, "sid").Feed(context.Background(), FeedOptions{Limit: 5, Cursor: "abc", FollowedOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.EqualValues(t, 3, page.Data[0].PostID)
	assert.True(t, page.Data[0].ViewerLiked)
	assert.EqualValues(t, 2, page.Data[0].LikeCount)
	require.NotNil(t, page.Cursor)
	assert.Equal(t, "next", *page.Cursor)
	assert.True(t, page.HasMore)
}
