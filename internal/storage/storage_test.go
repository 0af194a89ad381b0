package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "")
	_, err := ConfigFromEnv()
	assert.True(t, errors.Is(err, ErrNotConfigured))

	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("S3_ACCESS_KEY", "")
	t.Setenv("S3_SECRET_KEY", "")
	t.Setenv("S3_BUCKET_NAME", "photos")
	_, err = ConfigFromEnv()
	assert.ErrorContains(t, err, "S3_ACCESS_KEY, S3_SECRET_KEY")
}

func TestPresignUsesPublicEndpoint(t *testing.T) {
	svc, err := New(context.Background(), Config{
		Endpoint:       "minio:9000",
		PublicEndpoint: "cdn.example.com",
		AccessKey:      "key",
		SecretKey:      "secret",
		Bucket:         "photos",
	})
	require.NoError(t, err)

	raw, err := svc.GeneratePresignedDownloadURL(context.Background(), "posts/u1/a.jpg", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "cdn.example.com", u.Host)
	assert.Equal(t, "/photos/posts/u1/a.jpg", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))

	_, err = svc.GeneratePresignedUploadURL(context.Background(), "posts/u1/a.pdf", "application/pdf", time.Minute)
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	up, err := svc.GeneratePresignedUploadURL(context.Background(), "posts/u1/a.png", "image/png", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up, "http://cdn.example.com/photos/"))
}

func TestImageKeys(t *testing.T) {
	key, err := NewImageKey("u1", "image/JPEG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "posts/u1/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.True(t, OwnsKey("u1", key))
	assert.False(t, OwnsKey("u2", key))

	_, err = NewImageKey("u1", "text/plain")
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}
