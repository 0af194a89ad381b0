package likes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photofeed/internal/identity"
)

type pair struct {
	user uuid.UUID
	post int64
}

// mockService mirrors the store semantics: one like per pair, posts 1..100 exist.
type mockService struct {
	mu    sync.Mutex
	likes map[pair]bool
	err   error
}

func newMockService() *mockService { return &mockService{likes: map[pair]bool{}} }

func (m *mockService) Like(_ context.Context, userID uuid.UUID, postID int64) (*Like, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if postID > 100 {
		return nil, ErrPostNotFound
	}
	k := pair{userID, postID}
	if m.likes[k] {
		return nil, ErrAlreadyLiked
	}
	m.likes[k] = true
	return &Like{ID: uuid.New(), PostID: postID, UserID: userID, CreatedAt: time.Now()}, nil
}

func (m *mockService) Unlike(_ context.Context, userID uuid.UUID, postID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	k := pair{userID, postID}
	had := m.likes[k]
	delete(m.likes, k)
	return had, nil
}

func (m *mockService) Count(_ context.Context, postID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for k := range m.likes {
		if k.post == postID {
			n++
		}
	}
	return n, nil
}

func (m *mockService) Status(ctx context.Context, userID uuid.UUID, postID int64) (Status, error) {
	n, err := m.Count(ctx, postID)
	if err != nil {
		return Status{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{IsLiked: m.likes[pair{userID, postID}], Count: n}, nil
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(svc, RateLimit{})
}

func call(r http.Handler, method, path string, user uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if user != uuid.Nil {
		req.Header.Set(identity.HeaderUserID, user.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	r := newTestRouter(newMockService())
	user := uuid.New()

	w := call(r, http.MethodPost, "/7", user)
	require.Equal(t, http.StatusCreated, w.Code)
	var created LikeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.EqualValues(t, 7, created.Data.PostID)

	w = call(r, http.MethodGet, "/7/check", user)
	assert.JSONEq(t, `{"isLiked":true,"count":1}`, w.Body.String())

	w = call(r, http.MethodDelete, "/7", user)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = call(r, http.MethodGet, "/7/count", uuid.Nil)
	assert.JSONEq(t, `{"post_id":7,"count":0}`, w.Body.String())
}

func TestDuplicateLikeIsRejected(t *testing.T) {
	r := newTestRouter(newMockService())
	user := uuid.New()

	require.Equal(t, http.StatusCreated, call(r, http.MethodPost, "/3", user).Code)
	w := call(r, http.MethodPost, "/3", user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "post already liked")

	w = call(r, http.MethodGet, "/3/count", uuid.Nil)
	assert.JSONEq(t, `{"post_id":3,"count":1}`, w.Body.String())
}

func TestMutationsRequireTrustedIdentity(t *testing.T) {
	r := newTestRouter(newMockService())

	// a client-supplied userId is ignored for mutations
	w := call(r, http.MethodPost, "/3?userId="+uuid.NewString(), uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodDelete, "/3", uuid.Nil).Code)
}

func TestCheckIdentityResolution(t *testing.T) {
	svc := newMockService()
	r := newTestRouter(svc)
	liker := uuid.New()
	require.Equal(t, http.StatusCreated, call(r, http.MethodPost, "/5", liker).Code)

	w := call(r, http.MethodGet, "/5/check?userId="+liker.String(), uuid.Nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isLiked":true`)

	w = call(r, http.MethodGet, "/5/check", uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodGet, "/5/check?userId=nope", uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikeErrorMapping(t *testing.T) {
	svc := newMockService()
	r := newTestRouter(svc)
	user := uuid.New()

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPost, "/500", user).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/abc", user).Code)

	svc.err = errors.New("pool exhausted")
	w := call(r, http.MethodPost, "/1", user)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pool exhausted")
	assert.Equal(t, http.StatusInternalServerError, call(r, http.MethodDelete, "/1", user).Code)
	assert.Equal(t, http.StatusInternalServerError, call(r, http.MethodGet, "/1/check", user).Code)
}

type countingAllower struct {
	mu   sync.Mutex
	hits map[string]int64
}

func (a *countingAllower) Allow(_ context.Context, key string, limit int64, _ time.Duration) (bool, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hits == nil {
		a.hits = map[string]int64{}
	}
	a.hits[key]++
	return a.hits[key] <= limit, a.hits[key], nil
}

func TestWritesAreRateLimitedPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(newMockService(), RateLimit{Allower: &countingAllower{}, Limit: 2, Window: time.Minute})
	user, other := uuid.New(), uuid.New()

	assert.Equal(t, http.StatusCreated, call(r, http.MethodPost, "/1", user).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodDelete, "/1", user).Code)
	w := call(r, http.MethodPost, "/1", user)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, call(r, http.MethodPost, "/1", other).Code)
	// reads are not limited
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/1/check", user).Code)
}
