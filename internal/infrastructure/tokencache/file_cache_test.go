package tokencache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petsnapshot/internal/domain"
)

var fixedNow = time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)

func newCache(t *testing.T) (*FileCache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token_cache.json")
	return NewFileCache(path, nil).WithClock(func() time.Time { return fixedNow }), path
}

func TestFileCacheRoundTrip(t *testing.T) {
	t.Parallel()

	cache, _ := newCache(t)
	token := domain.AccessToken{Value: "secret", ExpiresAt: fixedNow.Add(time.Hour)}

	require.NoError(t, cache.Save(token))

	got, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, token.Value, got.Value)
	assert.True(t, token.ExpiresAt.Equal(got.ExpiresAt))
}

func TestFileCacheMissingFile(t *testing.T) {
	t.Parallel()

	cache, _ := newCache(t)
	_, ok := cache.Load()
	assert.False(t, ok)
}

func TestFileCacheCorruptFile(t *testing.T) {
	t.Parallel()

	cache, path := newCache(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"value": "abc", "expires_at":`), 0o600))

	_, ok := cache.Load()
	assert.False(t, ok)
}

func TestFileCacheExpiredRegardlessOfValue(t *testing.T) {
	t.Parallel()

	for _, expiresAt := range []time.Time{fixedNow, fixedNow.Add(-time.Second), {}} {
		for _, value := range []string{"", "abc", "a-very-long-token-value"} {
			cache, _ := newCache(t)
			require.NoError(t, cache.Save(domain.AccessToken{Value: value, ExpiresAt: expiresAt}))

			_, ok := cache.Load()
			assert.False(t, ok, "expires_at=%s value=%q", expiresAt, value)
		}
	}
}

func TestFileCacheSaveCreatesPrivateFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "token_cache.json")
	cache := NewFileCache(path, nil).WithClock(func() time.Time { return fixedNow })
	require.NoError(t, cache.Save(domain.AccessToken{Value: "abc", ExpiresAt: fixedNow.Add(time.Hour)}))
	require.NoError(t, cache.Save(domain.AccessToken{Value: "def", ExpiresAt: fixedNow.Add(time.Hour)}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left next to the cache")
}

func TestFileCacheSaveOverwrites(t *testing.T) {
	t.Parallel()

	cache, _ := newCache(t)
	require.NoError(t, cache.Save(domain.AccessToken{Value: "old", ExpiresAt: fixedNow.Add(time.Minute)}))
	require.NoError(t, cache.Save(domain.AccessToken{Value: "new", ExpiresAt: fixedNow.Add(time.Hour)}))

	got, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, "new", got.Value)
}
