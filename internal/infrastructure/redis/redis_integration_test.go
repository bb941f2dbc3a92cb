//go:build integration
// +build integration

package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
	rediscache "github.com/chemimartinez77/clubdn-sub002/internal/infrastructure/redis"
)

func testRedisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestCache_EventOpen_GetSetAndMiss(t *testing.T) {
	addr := testRedisAddr(t)

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	require.NoError(t, rdb.Ping(context.Background()).Err())
	require.NoError(t, rdb.FlushDB(context.Background()).Err())

	cache := &rediscache.Cache{Client: rdb}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	eventID := uuid.New()

	_, err := cache.EventOpen(ctx, eventID)
	require.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.SetEventOpen(ctx, eventID, true))
	open, err := cache.EventOpen(ctx, eventID)
	require.NoError(t, err)
	require.True(t, open)

	require.NoError(t, cache.SetEventOpen(ctx, eventID, false))
	open, err = cache.EventOpen(ctx, eventID)
	require.NoError(t, err)
	require.False(t, open)
}

func TestCache_AllowRequest_FixedWindow(t *testing.T) {
	addr := testRedisAddr(t)

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	require.NoError(t, rdb.FlushDB(context.Background()).Err())

	cache := &rediscache.Cache{Client: rdb}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ip := "1.2.3.4"
	limit := 3
	window := 2 * time.Second

	for i := 0; i < limit; i++ {
		ok, err := cache.AllowRequest(ctx, ip, limit, window)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := cache.AllowRequest(ctx, ip, limit, window)
	require.NoError(t, err)
	require.False(t, ok, "4th request should be blocked")

	// wait window => allow again
	time.Sleep(window + 200*time.Millisecond)
	ok, err = cache.AllowRequest(ctx, ip, limit, window)
	require.NoError(t, err)
	require.True(t, ok)
}
