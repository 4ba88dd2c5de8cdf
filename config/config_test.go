package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 8, cfg.RedisDB)
	assert.False(t, cfg.CloudActive())
}

func TestCloudActiveWhenRedisConfigured(t *testing.T) {
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	assert.True(t, cfg.CloudActive())
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
}

func TestGetEnvDefault(t *testing.T) {
	assert.Equal(t, "fallback", GetEnv("TRACKER_SURELY_UNSET_KEY", "fallback"))
	assert.Equal(t, "", GetEnv("TRACKER_SURELY_UNSET_KEY"))
}
