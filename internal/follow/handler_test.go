package follow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"photofeed/internal/identity"
)

type fakeRepo struct {
	edges map[[2]uuid.UUID]bool
	err   error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{edges: map[[2]uuid.UUID]bool{}} }

func (f *fakeRepo) Create(_ context.Context, fl *Follow) error {
	if f.err != nil {
		return f.err
	}
	k := [2]uuid.UUID{fl.FollowerID, fl.FolloweeID}
	if f.edges[k] {
		return ErrAlreadyFollowing
	}
	f.edges[k] = true
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, a, b uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	k := [2]uuid.UUID{a, b}
	if !f.edges[k] {
		return ErrNotFollowing
	}
	delete(f.edges, k)
	return nil
}

func (f *fakeRepo) Exists(_ context.Context, a, b uuid.UUID) (bool, error) {
	return f.edges[[2]uuid.UUID{a, b}], f.err
}

func (f *fakeRepo) CountFollowers(_ context.Context, u uuid.UUID) (int64, error) {
	var n int64
	for k := range f.edges {
		if k[1] == u {
			n++
		}
	}
	return n, f.err
}

func (f *fakeRepo) CountFollowing(_ context.Context, u uuid.UUID) (int64, error) {
	var n int64
	for k := range f.edges {
		if k[0] == u {
			n++
		}
	}
	return n, f.err
}

func (f *fakeRepo) ListFollowers(_ context.Context, u uuid.UUID, _, _ int) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	for k := range f.edges {
		if k[1] == u {
			out = append(out, k[0])
		}
	}
	return out, f.err
}

func (f *fakeRepo) ListFollowing(_ context.Context, u uuid.UUID, _, _ int) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	for k := range f.edges {
		if k[0] == u {
			out = append(out, k[1])
		}
	}
	return out, f.err
}

func do(r http.Handler, method, path, body string, user uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set(identity.HeaderUserID, user.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFollowLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(NewService(newFakeRepo()))
	me, them := uuid.New(), uuid.New()
	body := `{"followee_id":"` + them.String() + `"}`

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/", body, me).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/", body, me).Code)

	w := do(r, http.MethodGet, "/"+them.String()+"/following/me", "", me)
	assert.JSONEq(t, `{"user_id":"`+them.String()+`","following":true}`, w.Body.String())

	w = do(r, http.MethodGet, "/"+them.String()+"/followers/count", "", uuid.Nil)
	assert.JSONEq(t, `{"user_id":"`+them.String()+`","count":1}`, w.Body.String())

	w = do(r, http.MethodGet, "/"+me.String()+"/following", "", uuid.Nil)
	assert.Contains(t, w.Body.String(), them.String())

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/"+them.String(), "", me).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/"+them.String(), "", me).Code)
}

func TestFollowValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(NewService(newFakeRepo()))
	me := uuid.New()

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/", `{"followee_id":"`+uuid.NewString()+`"}`, uuid.Nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/", `{"followee_id":"`+me.String()+`"}`, me).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/", `{"followee_id":"bob"}`, me).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/", `{}`, me).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/bob/followers/count", "", uuid.Nil).Code)
}

func TestFollowStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	r := SetupRouter(NewService(repo))

	w := do(r, http.MethodPost, "/", `{"followee_id":"`+uuid.NewString()+`"}`, uuid.New())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
