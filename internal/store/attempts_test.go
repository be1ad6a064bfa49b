package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestAttemptCounter_RecordSetsTTLOnFirstAttemptOnly(t *testing.T) {
	client, mr := setupTestRedis(t)
	counter := NewAttemptCounter(client)
	ctx := context.Background()

	require.NoError(t, counter.RecordAttempt(ctx, "203.0.113.1"))
	assert.Equal(t, time.Hour, mr.TTL("newsletter:rate:203.0.113.1"))

	mr.FastForward(10 * time.Minute)
	require.NoError(t, counter.RecordAttempt(ctx, "203.0.113.1"))

	// Second increment must not refresh the window.
	assert.Equal(t, 50*time.Minute, mr.TTL("newsletter:rate:203.0.113.1"))
	got, err := mr.Get("newsletter:rate:203.0.113.1")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestAttemptCounter_IsRateLimitedAtThree(t *testing.T) {
	client, _ := setupTestRedis(t)
	counter := NewAttemptCounter(client)
	ctx := context.Background()

	limited, err := counter.IsRateLimited(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, limited, "absent counter is not limited")

	for i := 0; i < 2; i++ {
		require.NoError(t, counter.RecordAttempt(ctx, "ip"))
	}
	limited, err = counter.IsRateLimited(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, limited)

	require.NoError(t, counter.RecordAttempt(ctx, "ip"))
	limited, err = counter.IsRateLimited(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, limited)
}

func TestAttemptCounter_AllowAttempt(t *testing.T) {
	client, mr := setupTestRedis(t)
	counter := NewAttemptCounter(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := counter.AllowAttempt(ctx, "ip-1")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
	}

	allowed, err := counter.AllowAttempt(ctx, "ip-1")
	require.NoError(t, err)
	assert.False(t, allowed, "fourth attempt should be denied")

	got, err := mr.Get("newsletter:rate:ip-1")
	require.NoError(t, err)
	assert.Equal(t, "3", got, "denied attempts are not counted")

	allowed, err = counter.AllowAttempt(ctx, "ip-2")
	require.NoError(t, err)
	assert.True(t, allowed, "limits are per identifier")

	mr.FastForward(time.Hour + time.Second)
	allowed, err = counter.AllowAttempt(ctx, "ip-1")
	require.NoError(t, err)
	assert.True(t, allowed, "window expired")
}

func TestAttemptCounter_RedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	counter := NewAttemptCounter(client)
	mr.Close()

	_, err := counter.AllowAttempt(context.Background(), "ip")
	assert.Error(t, err)
}
