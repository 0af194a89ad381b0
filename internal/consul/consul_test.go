package consul

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDiscovery(t *testing.T) {
	s := Static{
		"feed-service": {{ID: "feed-1", Name: "feed-service", Address: "10.0.0.5", Port: 8087}},
	}

	inst, err := s.DiscoverOne("feed-service")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8087", inst.BaseURL())

	_, err = s.DiscoverOne("likes-service")
	assert.True(t, errors.Is(err, ErrNoInstances))
}

func TestToRegistrationDefaultsDeregister(t *testing.T) {
	reg := toRegistration(&ServiceConfig{
		ID:   "likes-service-a",
		Name: "likes-service",
		Port: 8084,
		Check: &HealthCheck{
			HTTP:     "http://a:8084/health",
			Interval: "10s",
			Timeout:  "3s",
		},
	})

	require.NotNil(t, reg.Check)
	assert.Equal(t, "1m", reg.Check.DeregisterCriticalServiceAfter)
	assert.Equal(t, "http://a:8084/health", reg.Check.HTTP)

	assert.Nil(t, toRegistration(&ServiceConfig{ID: "x"}).Check)
}

func TestStaticFromEnv(t *testing.T) {
	t.Setenv("UPSTREAM_FEED_SERVICE", "127.0.0.1:8087")

	s, err := StaticFromEnv("feed-service", "likes-service")
	require.NoError(t, err)

	inst, err := s.DiscoverOne("feed-service")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8087", inst.BaseURL())
	_, err = s.DiscoverOne("likes-service")
	assert.ErrorIs(t, err, ErrNoInstances)

	t.Setenv("UPSTREAM_LIKES_SERVICE", "likes:http")
	_, err = StaticFromEnv("likes-service")
	assert.Error(t, err)
}
