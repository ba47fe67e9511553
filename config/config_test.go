package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_SSL_MODE", "")
	t.Setenv("MEDIA_URL_TTL", "")
	t.Setenv("RECALC_CONCURRENCY", "")
	t.Setenv("CRON_ENABLED", "")

	env, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 8080, env.PORT)
	assert.Equal(t, "localhost", env.DB_HOST)
	assert.Equal(t, "5432", env.DB_PORT)
	assert.Equal(t, "disable", env.DB_SSL_MODE)
	assert.Equal(t, 15*time.Minute, env.MEDIA_URL_TTL)
	assert.Equal(t, 4, env.RECALC_CONCURRENCY)
	assert.True(t, env.CRON_ENABLED)
}

func TestGetOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("MEDIA_URL_TTL", "2m")
	t.Setenv("RECALC_CONCURRENCY", "8")
	t.Setenv("CRON_ENABLED", "false")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER_NAME", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "market")

	env, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 9001, env.PORT)
	assert.Equal(t, 2*time.Minute, env.MEDIA_URL_TTL)
	assert.Equal(t, 8, env.RECALC_CONCURRENCY)
	assert.False(t, env.CRON_ENABLED)
	assert.Contains(t, env.PostgresDSN(), "host=db user=app password=secret dbname=market")
}
