package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T, path string) *LocalCache {
	t.Helper()
	c, err := OpenLocalCache(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLocalCacheSetGetRemove(t *testing.T) {
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.db"))

	_, found, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set("k", `["a"]`))
	require.NoError(t, c.Set("k", `["b"]`))

	value, found, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `["b"]`, value)

	require.NoError(t, c.Remove("k"))
	require.NoError(t, c.Remove("k"))
	_, found, err = c.Get("k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocalCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := OpenLocalCache(path)
	require.NoError(t, err)
	require.NoError(t, first.Set("user", "teacher@x.com"))
	require.NoError(t, first.Close())

	second := openTestCache(t, path)
	value, found, err := second.Get("user")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "teacher@x.com", value)
}
