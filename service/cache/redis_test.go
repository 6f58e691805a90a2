package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/forecasthub/service-credentials/service/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, prefix string) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return cache.NewRedisStore(client, prefix), mr
}

func TestRedisStoreSetGetRemove(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, "")

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "greeting", "hello", time.Minute))

	value, found, err := store.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", value)

	require.NoError(t, store.Remove(ctx, "greeting"))

	_, found, err = store.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "creds")

	require.NoError(t, store.Set(ctx, "greeting", "hello", time.Minute))

	assert.True(t, mr.Exists("creds:greeting"), "keys are namespaced under the prefix")

	value, found, err := store.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", value)
}

func TestRedisStoreEntriesExpire(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "")

	require.NoError(t, store.Set(ctx, "short", "lived", time.Second))

	mr.FastForward(2 * time.Second)

	_, found, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreIncrement(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "")

	for want := int64(1); want <= 3; want++ {
		count, err := store.Increment(ctx, "counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	// Only the first increment set the window; the counter dies with it.
	mr.FastForward(2 * time.Minute)

	count, err := store.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStoreExpireSlidesWindow(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "")

	_, err := store.Increment(ctx, "counter", time.Second)
	require.NoError(t, err)

	require.NoError(t, store.Expire(ctx, "counter", time.Minute))

	mr.FastForward(2 * time.Second)

	count, err := store.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "the refreshed window keeps the counter alive")
}
