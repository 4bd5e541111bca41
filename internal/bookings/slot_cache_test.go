package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisSlotCache_SetGetInvalidate(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewRedisSlotCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "A", "2026-03-05")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "A", "2026-03-05", 0, []string{"14:00", "14:00"}))
	assert.True(t, mr.Exists("prism:slots:A:2026-03-05"))
	assert.Equal(t, time.Minute, mr.TTL("prism:slots:A:2026-03-05"))

	slots, ok, err := cache.Get(ctx, "A", "2026-03-05")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"14:00", "14:00"}, slots)

	require.NoError(t, cache.Invalidate(ctx, "A", "2026-03-05"))
	assert.False(t, mr.Exists("prism:slots:A:2026-03-05"))

	version, err := cache.Version(ctx, "A", "2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, slotVersionTTL, mr.TTL("prism:slotver:A:2026-03-05"))
}

func TestRedisSlotCache_EmptyListIsAHit(t *testing.T) {
	_, client := setupTestRedis(t)
	cache := NewRedisSlotCache(client, 0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "B", "2026-03-06", 0, nil))
	slots, ok, err := cache.Get(ctx, "B", "2026-03-06")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{}, slots)
}

func TestRedisSlotCache_DefaultTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewRedisSlotCache(client, 0)

	require.NoError(t, cache.Set(context.Background(), "A", "d", 0, []string{"09:00"}))
	assert.Equal(t, DefaultSlotCacheTTL, mr.TTL("prism:slots:A:d"))
}

func TestRedisSlotCache_ExpiresAfterTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewRedisSlotCache(client, 5*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "A", "d", 0, []string{"09:00"}))
	mr.FastForward(6 * time.Second)

	_, ok, err := cache.Get(ctx, "A", "d")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSlotCache_CorruptValue(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewRedisSlotCache(client, time.Minute)
	require.NoError(t, mr.Set("prism:slots:A:d", "not-json"))

	_, ok, err := cache.Get(context.Background(), "A", "d")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestRedisSlotCache_KeysDoNotCollideOnSeparator(t *testing.T) {
	_, client := setupTestRedis(t)
	cache := NewRedisSlotCache(client, time.Minute)
	ctx := context.Background()

	assert.NotEqual(t, slotKey("A:B", "C"), slotKey("A", "B:C"))

	require.NoError(t, cache.Set(ctx, "A:B", "C", 0, []string{"09:00"}))

	_, ok, err := cache.Get(ctx, "A", "B:C")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Invalidate(ctx, "A", "B:C"))
	slots, ok, err := cache.Get(ctx, "A:B", "C")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"09:00"}, slots)
}

func TestRedisSlotCache_StaleVersionIsNotWritten(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewRedisSlotCache(client, time.Minute)
	ctx := context.Background()

	version, err := cache.Version(ctx, "A", "d")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, cache.Invalidate(ctx, "A", "d"))
	require.NoError(t, cache.Set(ctx, "A", "d", version, []string{}))
	assert.False(t, mr.Exists("prism:slots:A:d"))

	current, err := cache.Version(ctx, "A", "d")
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, "A", "d", current, []string{"09:00"}))
	slots, ok, err := cache.Get(ctx, "A", "d")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"09:00"}, slots)
}
