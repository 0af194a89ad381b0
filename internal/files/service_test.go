package files

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photofeed/internal/identity"
)

type fakeStorage struct {
	deleted []string
	err     error
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://s3.local/up/" + key + "?ct=" + contentType, f.err
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.local/down/" + key, f.err
}

func (f *fakeStorage) DeleteFile(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) EnsureBucketExists(context.Context) error { return f.err }
func (f *fakeStorage) Health(context.Context) error             { return f.err }

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("posts/"+uuid.NewString()+"/a.jpg"))
	for _, bad := range []string{"", "a.jpg", "posts/../etc/passwd", "posts//x", "posts\\x", "posts/" + strings.Repeat("a", 600)} {
		assert.ErrorIs(t, ValidateKey(bad), ErrInvalidKey, bad)
	}
}

func TestUploadURLUsesOwnerPrefix(t *testing.T) {
	svc := NewService(&fakeStorage{})
	user := uuid.NewString()

	resp, err := svc.GenerateUploadURL(context.Background(), user, &GenerateUploadURLRequest{ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.FileKey, "posts/"+user+"/"))
	assert.True(t, strings.HasSuffix(resp.FileKey, ".jpg"))

	_, err = svc.GenerateUploadURL(context.Background(), user, &GenerateUploadURLRequest{ContentType: "application/pdf"})
	assert.Error(t, err)

	_, err = svc.GenerateUploadURL(context.Background(), user, &GenerateUploadURLRequest{ContentType: "image/png", Size: MaxImageSize + 1})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func call(r http.Handler, method, path, body string, user uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set(identity.HeaderUserID, user.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFilesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeStorage{}
	r := SetupRouter(NewService(store))
	owner, other := uuid.New(), uuid.New()

	w := call(r, http.MethodPost, "/upload-url", `{"content_type":"image/webp"}`, owner)
	require.Equal(t, http.StatusOK, w.Code)
	var up GenerateUploadURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &up))

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/upload-url", `{"content_type":"image/webp"}`, uuid.Nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/upload-url", `{"content_type":"video/mp4"}`, owner).Code)

	w = call(r, http.MethodPost, "/download-url", `{"file_key":"`+up.FileKey+`"}`, uuid.Nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), up.FileKey)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodDelete, "/"+up.FileKey, "", other).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodDelete, "/"+up.FileKey, "", owner).Code)
	assert.Equal(t, []string{up.FileKey}, store.deleted)

	store.err = errors.New("bucket gone")
	assert.Equal(t, http.StatusServiceUnavailable, call(r, http.MethodGet, "/health", "", uuid.Nil).Code)
	w = call(r, http.MethodPost, "/download-url", `{"file_key":"`+up.FileKey+`"}`, uuid.Nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "bucket gone")
}
